package incidents

import (
	"context"
	"sync"
	"testing"

	"github.com/bissquit/incident-room/internal/domain"
	"github.com/bissquit/incident-room/internal/enrichment"
	"github.com/bissquit/incident-room/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures broadcasts and job submissions in one ordered log,
// so tests can assert the broadcast happens before the enqueue.
type recorder struct {
	mu        sync.Mutex
	log       []string
	jobs      []enrichment.Job
	msgs      []any
	submitErr error
}

func (r *recorder) Broadcast(_ int64, message any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "broadcast")
	r.msgs = append(r.msgs, message)
}

func (r *recorder) Submit(job enrichment.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.submitErr != nil {
		return r.submitErr
	}
	r.log = append(r.log, "submit")
	r.jobs = append(r.jobs, job)
	return nil
}

func newService(t *testing.T) (*Service, *store.Store, *recorder) {
	t.Helper()
	st := store.New()
	rec := &recorder{}
	return NewService(st, rec, rec), st, rec
}

func TestService_CreateIncident(t *testing.T) {
	svc, _, _ := newService(t)

	inc, err := svc.CreateIncident(context.Background(), "API down", domain.SeverityP1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), inc.ID)
	assert.Equal(t, domain.StatusInvestigating, inc.Status)
	require.Len(t, inc.Timeline, 1)
}

func TestService_PostUpdate(t *testing.T) {
	svc, st, rec := newService(t)

	inc, err := svc.CreateIncident(context.Background(), "API down", domain.SeverityP1)
	require.NoError(t, err)

	ev, err := svc.PostUpdate(context.Background(), inc.ID, "db timeout everywhere")
	require.NoError(t, err)

	assert.Equal(t, domain.EventTypeHumanUpdate, ev.Type)
	assert.Equal(t, "db timeout everywhere", ev.Payload["message"])

	// The update is appended before anything else happens.
	got, err := st.Get(inc.ID)
	require.NoError(t, err)
	require.Len(t, got.Timeline, 2)
	assert.Equal(t, ev.EventID, got.Timeline[1].EventID)

	// Broadcast strictly precedes the enqueue, and the job references
	// the appended event.
	require.Equal(t, []string{"broadcast", "submit"}, rec.log)
	require.Len(t, rec.jobs, 1)
	assert.Equal(t, ev.EventID, rec.jobs[0].SourceEventID)
	assert.Equal(t, inc.ID, rec.jobs[0].IncidentID)

	msg, ok := rec.msgs[0].(domain.EventMessage)
	require.True(t, ok)
	assert.Equal(t, "timeline_event", msg.Type)
	assert.Equal(t, ev.EventID, msg.Event.EventID)
}

func TestService_PostUpdate_UnknownIncident(t *testing.T) {
	svc, _, rec := newService(t)

	_, err := svc.PostUpdate(context.Background(), 99, "hello?")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, rec.jobs)
}

func TestService_PostUpdate_ResolvedIncident(t *testing.T) {
	svc, _, rec := newService(t)

	inc, err := svc.CreateIncident(context.Background(), "blip", domain.SeverityP3)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), inc.ID, domain.StatusResolved)
	require.NoError(t, err)
	rec.mu.Lock()
	rec.log = nil
	rec.mu.Unlock()

	_, err = svc.PostUpdate(context.Background(), inc.ID, "too late")
	assert.ErrorIs(t, err, ErrIncidentResolved)
	assert.Empty(t, rec.jobs)
	assert.Empty(t, rec.log)
}

func TestService_PostUpdate_QueueFullStillAppends(t *testing.T) {
	svc, st, rec := newService(t)
	rec.submitErr = enrichment.ErrQueueFull

	inc, err := svc.CreateIncident(context.Background(), "overload", domain.SeverityP2)
	require.NoError(t, err)

	// A dropped enrichment job is the documented overload behavior; the
	// human update itself must not be lost.
	ev, err := svc.PostUpdate(context.Background(), inc.ID, "update during overload")
	require.NoError(t, err)

	got, err := st.Get(inc.ID)
	require.NoError(t, err)
	require.Len(t, got.Timeline, 2)
	assert.Equal(t, ev.EventID, got.Timeline[1].EventID)
}

func TestService_UpdateStatus_BroadcastsTransitionEvents(t *testing.T) {
	svc, _, rec := newService(t)

	inc, err := svc.CreateIncident(context.Background(), "incident", domain.SeverityP2)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), inc.ID, domain.StatusMonitoring)
	require.NoError(t, err)
	require.Len(t, rec.msgs, 1)

	// Resolution broadcasts the status_change and the system notice.
	_, err = svc.UpdateStatus(context.Background(), inc.ID, domain.StatusResolved)
	require.NoError(t, err)
	require.Len(t, rec.msgs, 3)

	last, ok := rec.msgs[2].(domain.EventMessage)
	require.True(t, ok)
	assert.Equal(t, domain.EventTypeSystem, last.Event.Type)
}

func TestService_ListIncidents(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.CreateIncident(context.Background(), "first", domain.SeverityP1)
	require.NoError(t, err)
	_, err = svc.CreateIncident(context.Background(), "second", domain.SeverityP2)
	require.NoError(t, err)

	summaries := svc.ListIncidents(context.Background())
	require.Len(t, summaries, 2)
	assert.Equal(t, "first", summaries[0].Title)
}
