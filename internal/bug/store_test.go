package bug

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/zulandar/bugboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeClock returns a settable time, safe for concurrent use.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Bug{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// storeCase builds a seeded store for the shared contract tests.
type storeCase struct {
	name string
	open func(t *testing.T, seed []models.Bug, clock *fakeClock) Store
}

var storeCases = []storeCase{
	{
		name: "memory",
		open: func(t *testing.T, seed []models.Bug, clock *fakeClock) Store {
			return NewMemoryStore(seed, clock.Now)
		},
	},
	{
		name: "db",
		open: func(t *testing.T, seed []models.Bug, clock *fakeClock) Store {
			s := NewDBStore(testDB(t), clock.Now)
			if _, err := s.Import(context.Background(), seed); err != nil {
				t.Fatalf("Import: %v", err)
			}
			return s
		},
	},
}

var clockStart = time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

func forEachStore(t *testing.T, fn func(t *testing.T, s Store, clock *fakeClock)) {
	for _, sc := range storeCases {
		t.Run(sc.name, func(t *testing.T) {
			clock := newFakeClock(clockStart)
			fn(t, sc.open(t, SampleBugs(), clock), clock)
		})
	}
}

func ids(bugs []models.Bug) []string {
	out := make([]string, len(bugs))
	for i, b := range bugs {
		out[i] = b.ID
	}
	return out
}

var sampleIDs = []string{"bug-00001", "bug-00002", "bug-00003", "bug-00004", "bug-00005"}

func TestStore_ListInsertionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *fakeClock) {
		bugs, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := ids(bugs); !reflect.DeepEqual(got, sampleIDs) {
			t.Fatalf("List ids = %v, want %v", got, sampleIDs)
		}
		if len(bugs[0].Comments) != 1 || len(bugs[2].Comments) != 0 {
			t.Errorf("comment counts = %d/%d, want 1/0", len(bugs[0].Comments), len(bugs[2].Comments))
		}
		if bugs[2].Comments == nil || bugs[2].Attachments == nil {
			t.Error("empty collections should be non-nil")
		}
		if bugs[0].DueDate == nil || bugs[2].DueDate != nil {
			t.Errorf("due dates = %v/%v, want set/nil", bugs[0].DueDate, bugs[2].DueDate)
		}
	})
}

func TestStore_ListReturnsCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *fakeClock) {
		ctx := context.Background()
		bugs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		bugs[0].Title = "mutated"
		bugs[0].Tags[0] = "mutated"

		b, err := s.Get(ctx, "bug-00001")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if b.Title == "mutated" || b.Tags[0] == "mutated" {
			t.Error("mutating a listed bug changed the store")
		}
	})
}

func TestStore_Get(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *fakeClock) {
		ctx := context.Background()
		b, err := s.Get(ctx, "bug-00002")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if b.Priority != models.PriorityCritical || b.Status != models.StatusInProgress {
			t.Errorf("bug-00002 = %s/%s, want critical/in-progress", b.Priority, b.Status)
		}
		if want := []string{"database", "performance", "timeout"}; !reflect.DeepEqual(b.Tags, want) {
			t.Errorf("Tags = %v, want %v", b.Tags, want)
		}

		_, err = s.Get(ctx, "bug-missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_Create(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		d := validDraft()
		d.AddTag("editor")

		b, err := s.Create(ctx, d)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		for _, id := range sampleIDs {
			if b.ID == id {
				t.Fatalf("Create reused existing ID %q", id)
			}
		}
		if b.Status != models.StatusOpen {
			t.Errorf("Status = %q, want open", b.Status)
		}
		if !b.CreatedAt.Equal(clock.Now()) || !b.CreatedAt.Equal(b.UpdatedAt) {
			t.Errorf("timestamps = %v/%v, want both %v", b.CreatedAt, b.UpdatedAt, clock.Now())
		}
		if len(b.Comments) != 0 {
			t.Errorf("Comments = %v, want none", b.Comments)
		}

		bugs, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(bugs) != 6 || bugs[5].ID != b.ID {
			t.Fatalf("List = %v, want new bug last", ids(bugs))
		}

		got, err := s.Get(ctx, b.ID)
		if err != nil {
			t.Fatalf("Get(new): %v", err)
		}
		if got.Title != d.Title || !reflect.DeepEqual(got.ReproductionSteps, d.ReproductionSteps) {
			t.Errorf("stored bug = %+v", got)
		}
	})
}

func TestStore_CreateInvalidLeavesStoreUnchanged(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *fakeClock) {
		ctx := context.Background()
		d := validDraft()
		d.Title = ""

		_, err := s.Create(ctx, d)
		if !IsValidation(err) {
			t.Fatalf("Create(invalid) = %v, want validation error", err)
		}
		bugs, _ := s.List(ctx)
		if len(bugs) != 5 {
			t.Errorf("len(List) = %d, want 5", len(bugs))
		}
	})
}

func TestStore_AppendComment(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		clock.Advance(time.Hour)

		c, err := s.AppendComment(ctx, "bug-00003", "Lisa Brown", "Still seeing duplicates on page 3.")
		if err != nil {
			t.Fatalf("AppendComment: %v", err)
		}
		if c.ID == "" || c.BugID != "bug-00003" || !c.CreatedAt.Equal(clock.Now()) {
			t.Errorf("comment = %+v", c)
		}

		b, err := s.Get(ctx, "bug-00003")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(b.Comments) != 1 || b.Comments[0].Content != "Still seeing duplicates on page 3." {
			t.Fatalf("Comments = %+v, want the new comment", b.Comments)
		}
		if !b.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("UpdatedAt = %v, want %v", b.UpdatedAt, clock.Now())
		}

		clock.Advance(time.Minute)
		if _, err := s.AppendComment(ctx, "bug-00003", "", "second"); err != nil {
			t.Fatalf("AppendComment(second): %v", err)
		}
		b, _ = s.Get(ctx, "bug-00003")
		if len(b.Comments) != 2 || b.Comments[1].Content != "second" {
			t.Errorf("Comments = %+v, want append order", b.Comments)
		}
	})
}

func TestStore_AppendCommentUnknownBug(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *fakeClock) {
		ctx := context.Background()
		before, _ := s.List(ctx)

		_, err := s.AppendComment(ctx, "bug-nope", "Ana", "hello")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("AppendComment(unknown) = %v, want ErrNotFound", err)
		}

		after, _ := s.List(ctx)
		if !reflect.DeepEqual(ids(before), ids(after)) {
			t.Errorf("List changed: %v -> %v", ids(before), ids(after))
		}
		for i := range before {
			if len(before[i].Comments) != len(after[i].Comments) || !before[i].UpdatedAt.Equal(after[i].UpdatedAt) {
				t.Errorf("%s changed after failed append", before[i].ID)
			}
		}
	})
}

func TestStore_AppendCommentBlankContent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, _ *fakeClock) {
		ctx := context.Background()
		_, err := s.AppendComment(ctx, "bug-00001", "Ana", "  ")
		if !IsValidation(err) {
			t.Fatalf("AppendComment(blank) = %v, want validation error", err)
		}
		b, _ := s.Get(ctx, "bug-00001")
		if len(b.Comments) != 1 {
			t.Errorf("Comments = %d, want 1", len(b.Comments))
		}
	})
}

func TestStore_ClockBeforeCreatedAt(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		// bug-00001 was created on 2024-01-15.
		clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

		_, err := s.AppendComment(ctx, "bug-00001", "Ana", "time travel")
		if !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("AppendComment(backwards) = %v, want ErrInvariantViolation", err)
		}
		_, err = s.SetStatus(ctx, "bug-00001", models.StatusClosed)
		if !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("SetStatus(backwards) = %v, want ErrInvariantViolation", err)
		}

		b, _ := s.Get(ctx, "bug-00001")
		if len(b.Comments) != 1 || b.Status != models.StatusOpen {
			t.Errorf("bug changed after rejected mutations: %d comments, %s", len(b.Comments), b.Status)
		}
	})
}

func TestStore_SetStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		clock.Advance(time.Hour)

		// Any status may follow any other, including reopening closed bugs.
		b, err := s.SetStatus(ctx, "bug-00005", models.StatusOpen)
		if err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
		if b.Status != models.StatusOpen || !b.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("bug = %s updated %v, want open at %v", b.Status, b.UpdatedAt, clock.Now())
		}

		if _, err := s.SetStatus(ctx, "bug-00005", "archived"); !IsValidation(err) {
			t.Errorf("SetStatus(archived) = %v, want validation error", err)
		}
		if _, err := s.SetStatus(ctx, "bug-nope", models.StatusOpen); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetStatus(unknown) = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_Update(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store, clock *fakeClock) {
		ctx := context.Background()
		clock.Advance(time.Hour)

		assignee := "Mike Chen"
		steps := []string{"Open login", "Submit"}
		b, err := s.Update(ctx, "bug-00001", Patch{Assignee: &assignee, ReproductionSteps: &steps, ClearDueDate: true})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if b.Assignee != "Mike Chen" || !reflect.DeepEqual(b.ReproductionSteps, steps) || b.DueDate != nil {
			t.Errorf("updated bug = %+v", b)
		}
		if len(b.Comments) != 1 {
			t.Errorf("Comments = %d, want preserved", len(b.Comments))
		}
		if !b.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("UpdatedAt = %v, want %v", b.UpdatedAt, clock.Now())
		}

		empty := []string{}
		if _, err := s.Update(ctx, "bug-00001", Patch{ReproductionSteps: &empty}); !IsValidation(err) {
			t.Errorf("Update(no steps) = %v, want validation error", err)
		}
		if _, err := s.Update(ctx, "bug-nope", Patch{Assignee: &assignee}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(unknown) = %v, want ErrNotFound", err)
		}
	})
}

func TestDBStore_ImportSkipsExisting(t *testing.T) {
	s := NewDBStore(testDB(t), nil)
	ctx := context.Background()

	n, err := s.Import(ctx, SampleBugs())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 5 {
		t.Errorf("imported = %d, want 5", n)
	}

	n, err = s.Import(ctx, SampleBugs())
	if err != nil {
		t.Fatalf("Import again: %v", err)
	}
	if n != 0 {
		t.Errorf("re-import = %d, want 0", n)
	}

	bugs, _ := s.List(ctx)
	if got := ids(bugs); !reflect.DeepEqual(got, sampleIDs) {
		t.Errorf("List ids = %v, want %v", got, sampleIDs)
	}
}

func TestDBStore_ImportRejectsBadTimestamps(t *testing.T) {
	s := NewDBStore(testDB(t), nil)
	bad := SampleBugs()[:1]
	bad[0].UpdatedAt = bad[0].CreatedAt.Add(-time.Hour)

	_, err := s.Import(context.Background(), bad)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("Import = %v, want ErrInvariantViolation", err)
	}
	bugs, _ := s.List(context.Background())
	if len(bugs) != 0 {
		t.Errorf("failed import left %d bugs", len(bugs))
	}
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewMemoryStore(SampleBugs(), newFakeClock(clockStart).Now)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AppendComment(ctx, "bug-00003", "bot", "ping"); err != nil {
				t.Errorf("AppendComment: %v", err)
			}
		}()
	}
	wg.Wait()

	b, _ := s.Get(ctx, "bug-00003")
	if len(b.Comments) != 20 {
		t.Errorf("Comments = %d, want 20", len(b.Comments))
	}
}

func TestMemoryStore_SeedIsCopied(t *testing.T) {
	seed := SampleBugs()
	s := NewMemoryStore(seed, nil)
	seed[0].Title = "mutated"

	b, _ := s.Get(context.Background(), "bug-00001")
	if b.Title == "mutated" {
		t.Error("store shares memory with its seed")
	}
}
