package enrichment

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutex_MutualExclusion(t *testing.T) {
	k := NewKeyMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock(1)
			defer k.Unlock(1)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyMutex_ConcurrentFirstAccessSharesOneLock(t *testing.T) {
	k := NewKeyMutex()

	// Many goroutines racing on the first use of the same identity must
	// end up serialized on a single lock, never two distinct ones.
	inCritical := 0
	maxInCritical := 0
	var observe sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock(7)
			defer k.Unlock(7)

			observe.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			observe.Unlock()

			time.Sleep(time.Millisecond)

			observe.Lock()
			inCritical--
			observe.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

func TestKeyMutex_IndependentIdentities(t *testing.T) {
	k := NewKeyMutex()

	k.Lock(1)
	defer k.Unlock(1)

	acquired := make(chan struct{})
	go func() {
		k.Lock(2)
		defer k.Unlock(2)
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock for a different identity must not block")
	}
}

func TestKeyMutex_EvictsAtZeroRefs(t *testing.T) {
	k := NewKeyMutex()

	k.Lock(1)
	k.Lock(2)
	assert.Equal(t, 2, k.Size())

	k.Unlock(1)
	assert.Equal(t, 1, k.Size())

	k.Unlock(2)
	assert.Equal(t, 0, k.Size())
}

func TestKeyMutex_UnlockWithoutLockPanics(t *testing.T) {
	k := NewKeyMutex()

	assert.Panics(t, func() { k.Unlock(1) })
}
