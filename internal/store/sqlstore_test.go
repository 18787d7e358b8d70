package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/db"
	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
	"github.com/mind-engage/mindengage-outcomes/internal/store"
)

func openStore(t *testing.T) *store.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "outcomes.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return store.NewSQLStore(conn)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.GetSnapshot(ctx, "c1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	score := 7.5
	in := course.Input{
		ID:   "c1",
		Name: "Intro",
		Groups: []course.GroupInput{{Name: "Labs", DropLowest: 1, Assignments: []course.AssignmentInput{
			{Name: "Lab 1", PointsPossible: 10, Submissions: []course.SubmissionInput{{UserID: "s1", Score: &score}}},
		}}},
	}
	if err := s.PutSnapshot(ctx, in); err != nil {
		t.Fatal(err)
	}
	in.Name = "Intro (Fall)"
	if err := s.PutSnapshot(ctx, in); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetSnapshot(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Intro (Fall)" || got.Groups[0].DropLowest != 1 || *got.Groups[0].Assignments[0].Submissions[0].Score != 7.5 {
		t.Fatalf("got %+v", got)
	}
}

func TestOutcomesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	if _, err := s.GetOutcomes(ctx, "c1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	outs := []outcome.Outcome{{Title: "Design", Associations: []outcome.Association{
		{AssignmentGroup: "Labs", ExceedsThreshold: 0.9, DemonstratesThreshold: 0.7},
	}}}
	if err := s.PutOutcomes(ctx, "c1", outs); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetOutcomes(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Associations[0] != outs[0].Associations[0] {
		t.Fatalf("got %+v", got)
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		err := s.PutRun(ctx, store.Run{
			ID: id, CourseID: "c1", BlobKey: "reports/c1/" + id + ".json",
			StudentCount: 30, OutcomeCount: 4, CreatedBy: "admin",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := s.PutRun(ctx, store.Run{ID: "x1", CourseID: "c2", BlobKey: "k"}); err != nil {
		t.Fatal(err)
	}

	r, err := s.GetRun(ctx, "r2")
	if err != nil {
		t.Fatal(err)
	}
	if r.CourseID != "c1" || r.StudentCount != 30 || !r.CreatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("got %+v", r)
	}
	if _, err := s.GetRun(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	runs, err := s.ListRuns(ctx, "c1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "r3" || runs[1].ID != "r2" {
		t.Fatalf("got %+v", runs)
	}
}

func TestListRunsOrderWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	// The later run gets the lexically smaller id so the id tie-break alone
	// would pick the wrong one.
	for _, r := range []store.Run{
		{ID: "b-first", CourseID: "c1", BlobKey: "k1", CreatedAt: base.Add(100 * time.Millisecond)},
		{ID: "a-second", CourseID: "c1", BlobKey: "k2", CreatedAt: base.Add(900 * time.Millisecond)},
	} {
		if err := s.PutRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := s.ListRuns(ctx, "c1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "a-second" {
		t.Fatalf("latest run: %+v", runs)
	}
	if !runs[0].CreatedAt.Equal(base.Add(900 * time.Millisecond)) {
		t.Fatalf("created_at lost precision: %v", runs[0].CreatedAt)
	}
}

func TestListRunsLimits(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	total := store.MaxListRuns + 5
	for i := 0; i < total; i++ {
		err := s.PutRun(ctx, store.Run{
			ID: fmt.Sprintf("r%03d", i), CourseID: "c1", BlobKey: "k",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	cases := []struct{ limit, want int }{
		{0, store.DefaultListRuns},
		{-3, store.DefaultListRuns},
		{150, 150},
		{store.MaxListRuns, store.MaxListRuns},
		{store.MaxListRuns + 1, store.MaxListRuns},
		{1000, store.MaxListRuns},
	}
	for _, tc := range cases {
		runs, err := s.ListRuns(ctx, "c1", tc.limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != tc.want {
			t.Errorf("limit %d: got %d runs want %d", tc.limit, len(runs), tc.want)
		}
	}
}
