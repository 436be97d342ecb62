package content

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := &Record{
		ID:             "c1",
		Type:           TypeResource,
		TrustGrade:     GradeA,
		AccuracyGrade:  GradeB,
		RelevanceGrade: GradeB,
		Title:          "Shader basics",
		Tags:           []string{"graphics"},
	}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := store.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Title != "Shader basics" || got.Type != TypeResource {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.LastActive.IsZero() {
		t.Error("timestamps should be populated on create")
	}

	// Returned record is a copy; mutating it must not leak back.
	got.Clicks = 999
	got.Tags[0] = "mutated"
	again, _ := store.GetByID(ctx, "c1")
	if again.Clicks != 0 || again.Tags[0] != "graphics" {
		t.Error("GetByID must return a deep copy")
	}
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Create(ctx, &Record{ID: "dup"}); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	if err := store.Create(ctx, &Record{ID: "dup"}); !errors.Is(err, ErrRecordExists) {
		t.Errorf("second Create() = %v, want ErrRecordExists", err)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetByID(context.Background(), "ghost"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("GetByID() = %v, want ErrRecordNotFound", err)
	}
}

func TestMemoryStore_Increments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, &Record{ID: "c1"}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := store.IncrementClicks(ctx, "c1"); err != nil {
			t.Fatalf("IncrementClicks() error: %v", err)
		}
	}
	if err := store.IncrementImpressions(ctx, "c1"); err != nil {
		t.Fatalf("IncrementImpressions() error: %v", err)
	}

	rec, _ := store.GetByID(ctx, "c1")
	if rec.Clicks != 3 {
		t.Errorf("Clicks = %d, want 3", rec.Clicks)
	}
	if rec.Impressions != 1 {
		t.Errorf("Impressions = %d, want 1", rec.Impressions)
	}

	if err := store.IncrementClicks(ctx, "ghost"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("IncrementClicks(ghost) = %v, want ErrRecordNotFound", err)
	}
	if err := store.IncrementImpressions(ctx, "ghost"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("IncrementImpressions(ghost) = %v, want ErrRecordNotFound", err)
	}
}

func TestMemoryStore_ApplyCorrection(t *testing.T) {
	ctx := context.Background()
	base := time.Now()

	tests := []struct {
		name           string
		startClicks    int64
		decrement      int64
		lastActive     time.Time
		wantClicks     int64
		wantLastActive time.Time
	}{
		{
			name:           "plain decrement",
			startClicks:    5,
			decrement:      2,
			lastActive:     base.Add(time.Hour),
			wantClicks:     3,
			wantLastActive: base.Add(time.Hour),
		},
		{
			name:           "decrement clamps at zero",
			startClicks:    1,
			decrement:      10,
			lastActive:     base.Add(time.Hour),
			wantClicks:     0,
			wantLastActive: base.Add(time.Hour),
		},
		{
			name:           "zero decrement still advances last active",
			startClicks:    4,
			decrement:      0,
			lastActive:     base.Add(2 * time.Hour),
			wantClicks:     4,
			wantLastActive: base.Add(2 * time.Hour),
		},
		{
			name:           "stale last active never moves backward",
			startClicks:    4,
			decrement:      1,
			lastActive:     base.Add(-time.Hour),
			wantClicks:     3,
			wantLastActive: base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			if err := store.Create(ctx, &Record{
				ID:         "c1",
				Clicks:     tt.startClicks,
				CreatedAt:  base.Add(-24 * time.Hour),
				LastActive: base,
			}); err != nil {
				t.Fatal(err)
			}

			if err := store.ApplyCorrection(ctx, "c1", tt.lastActive, tt.decrement); err != nil {
				t.Fatalf("ApplyCorrection() error: %v", err)
			}

			rec, _ := store.GetByID(ctx, "c1")
			if rec.Clicks != tt.wantClicks {
				t.Errorf("Clicks = %d, want %d", rec.Clicks, tt.wantClicks)
			}
			if !rec.LastActive.Equal(tt.wantLastActive) {
				t.Errorf("LastActive = %v, want %v", rec.LastActive, tt.wantLastActive)
			}
		})
	}

	t.Run("missing record", func(t *testing.T) {
		store := NewMemoryStore()
		err := store.ApplyCorrection(ctx, "ghost", base, 1)
		if !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("ApplyCorrection(ghost) = %v, want ErrRecordNotFound", err)
		}
	})
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, &Record{ID: "c1"}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	const workers = 10
	const perWorker = 100
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = store.IncrementClicks(ctx, "c1")
			}
		}()
	}
	wg.Wait()

	rec, _ := store.GetByID(ctx, "c1")
	if rec.Clicks != workers*perWorker {
		t.Errorf("Clicks = %d, want %d", rec.Clicks, workers*perWorker)
	}
}

// Corrections racing online increments must never lose an increment:
// the decrement is relative, not an absolute overwrite.
func TestMemoryStore_CorrectionDoesNotLoseConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Create(ctx, &Record{ID: "c1", Clicks: 1000}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = store.IncrementClicks(ctx, "c1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = store.ApplyCorrection(ctx, "c1", time.Now(), 1)
		}
	}()
	wg.Wait()

	rec, _ := store.GetByID(ctx, "c1")
	// 1000 + 100 increments - 100 decrements, no interleaving may lose
	// an update in either direction.
	if rec.Clicks != 1000 {
		t.Errorf("Clicks = %d, want 1000", rec.Clicks)
	}
}
