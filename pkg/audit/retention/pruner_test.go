package retention

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeStore records prune invocations.
type fakeStore struct {
	count int64

	ageCutoff  *time.Time
	ageDeleted int64
	ageErr     error

	countMax     *int64
	countDeleted int64
	countErr     error
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) { return f.count, nil }

func (f *fakeStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.ageCutoff = &cutoff
	return f.ageDeleted, f.ageErr
}

func (f *fakeStore) PruneToCount(ctx context.Context, max int64) (int64, error) {
	f.countMax = &max
	return f.countDeleted, f.countErr
}

func TestPruner_RunsBothPhases(t *testing.T) {
	store := &fakeStore{ageDeleted: 3, countDeleted: 2}
	pruner := NewPruner(store, &Config{RetentionDays: 30, MaxRecords: 100})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}

	if store.ageCutoff == nil {
		t.Fatal("age phase not invoked")
	}
	wantCutoff := time.Now().AddDate(0, 0, -30)
	if diff := store.ageCutoff.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("age cutoff %v not near %v", store.ageCutoff, wantCutoff)
	}

	if store.countMax == nil || *store.countMax != 100 {
		t.Errorf("count phase max = %v, want 100", store.countMax)
	}
}

func TestPruner_ZeroLimitsDisablePhases(t *testing.T) {
	store := &fakeStore{ageDeleted: 3, countDeleted: 2}
	pruner := NewPruner(store, &Config{RetentionDays: 0, MaxRecords: 0})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if store.ageCutoff != nil {
		t.Error("age phase should be disabled")
	}
	if store.countMax != nil {
		t.Error("count phase should be disabled")
	}
}

func TestPruner_AgeFailureStopsRun(t *testing.T) {
	store := &fakeStore{ageErr: errors.New("disk gone")}
	pruner := NewPruner(store, &Config{RetentionDays: 7, MaxRecords: 10})

	_, err := pruner.Prune(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "prune by age failed") {
		t.Errorf("error %q should name the failed phase", err)
	}
	if store.countMax != nil {
		t.Error("count phase should not run after age failure")
	}
}

func TestPruner_DefaultConfig(t *testing.T) {
	pruner := NewPruner(&fakeStore{}, nil)
	if pruner.config.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want 90", pruner.config.RetentionDays)
	}
	if pruner.config.PruneSchedule != "0 3 * * *" {
		t.Errorf("PruneSchedule = %q", pruner.config.PruneSchedule)
	}
}
