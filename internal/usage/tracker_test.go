package usage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemstack/formulant/internal/model"
)

func TestTracker_RecordAndCount(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	assert.Equal(t, int64(0), tr.Count("58-08-2"))

	tr.Record("58-08-2", model.OutcomeMiss)
	tr.Record("58-08-2", model.OutcomeHit)
	tr.Record("50-00-0", model.OutcomeHit)

	assert.Equal(t, int64(2), tr.Count("58-08-2"))
	assert.Equal(t, int64(1), tr.Count("50-00-0"))
}

func TestTracker_SnapshotSortedWithLastOutcome(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.Record("67-64-1", model.OutcomeHit)
	tr.Record("50-00-0", model.OutcomeMiss)
	tr.Record("67-64-1", model.OutcomeCached)

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "50-00-0", snap[0].CAS)
	assert.Equal(t, "67-64-1", snap[1].CAS)
	assert.Equal(t, int64(2), snap[1].LookupCount)
	assert.Equal(t, model.OutcomeCached, snap[1].LastOutcome)
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.Record("58-08-2", model.OutcomeHit)

	snap := tr.Snapshot()
	snap[0].LookupCount = 999

	assert.Equal(t, int64(1), tr.Count("58-08-2"))
}

func TestTracker_ConcurrentRecords(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tr.Record("58-08-2", model.OutcomeCached)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), tr.Count("58-08-2"))
}
