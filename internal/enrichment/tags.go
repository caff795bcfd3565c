package enrichment

import "strings"

// vocabularyEntry maps a tag to the message substrings that trigger it.
type vocabularyEntry struct {
	tag        string
	substrings []string
}

// vocabulary is checked in order; every entry whose substring matches
// contributes its tag. No entry shares a tag, so the result needs no
// deduplication.
var vocabulary = []vocabularyEntry{
	{tag: "database", substrings: []string{"db", "database"}},
	{tag: "timeout", substrings: []string{"timeout"}},
	{tag: "payments", substrings: []string{"payment", "checkout"}},
	{tag: "latency", substrings: []string{"latency"}},
	{tag: "crash", substrings: []string{"crash", "panic"}},
	{tag: "capacity", substrings: []string{"cpu", "memory"}},
}

// ExtractTags scans the message case-insensitively for the fixed keyword
// vocabulary. Matching is substring-based, not tokenized. A message with
// no recognized keyword yields exactly [general].
func ExtractTags(message string) []string {
	lower := strings.ToLower(message)

	var tags []string
	for _, entry := range vocabulary {
		for _, sub := range entry.substrings {
			if strings.Contains(lower, sub) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []string{"general"}
	}
	return tags
}
