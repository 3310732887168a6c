package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"toolchat/internal/domain"
)

// cutoffRecorder is a ConversationStore that only records purge calls.
type cutoffRecorder struct {
	domain.ConversationStore
	cutoffs []time.Time
	err     error
}

func (c *cutoffRecorder) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	c.cutoffs = append(c.cutoffs, cutoff)
	return 2, c.err
}

func TestRetention_Purge(t *testing.T) {
	rec := &cutoffRecorder{}
	r := NewRetention(rec, 7, testLogger())
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	n, err := r.Purge(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
	if len(rec.cutoffs) != 1 || !rec.cutoffs[0].Equal(now.Add(-7*24*time.Hour)) {
		t.Errorf("unexpected cutoffs: %v", rec.cutoffs)
	}
}

func TestRetention_Disabled(t *testing.T) {
	rec := &cutoffRecorder{}
	r := NewRetention(rec, 0, testLogger())
	if r.Enabled() {
		t.Fatal("zero days should disable retention")
	}
	if n, err := r.Purge(context.Background()); n != 0 || err != nil {
		t.Errorf("disabled purge = %d, %v", n, err)
	}
	if err := r.Start("not a schedule"); err != nil {
		t.Errorf("disabled Start should ignore the schedule: %v", err)
	}
	r.Stop()
	if len(rec.cutoffs) != 0 {
		t.Error("disabled retention must not touch the store")
	}
}

func TestRetention_PurgeError(t *testing.T) {
	rec := &cutoffRecorder{err: errors.New("disk full")}
	r := NewRetention(rec, 1, testLogger())
	if _, err := r.Purge(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRetention_StartValidatesSchedule(t *testing.T) {
	r := NewRetention(&cutoffRecorder{}, 30, testLogger())
	if err := r.Start("every now and then"); err == nil {
		t.Fatal("expected invalid schedule error")
	}

	for _, sched := range []string{"@daily", "0 3 * * *", "@every 1h"} {
		r := NewRetention(&cutoffRecorder{}, 30, testLogger())
		if err := r.Start(sched); err != nil {
			t.Errorf("Start(%q): %v", sched, err)
		}
		r.Stop()
	}
}

func TestRetention_AgainstSQLite(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	if err := store.CreateConversation(ctx, domain.Conversation{ID: "ancient", CreatedAt: now.AddDate(0, 0, -40)}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateConversation(ctx, domain.Conversation{ID: "fresh"}); err != nil {
		t.Fatal(err)
	}

	n, err := NewRetention(store, 30, testLogger()).Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged, got %d", n)
	}
}
