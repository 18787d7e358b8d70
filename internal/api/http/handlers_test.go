package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
	"github.com/mind-engage/mindengage-outcomes/internal/rbac"
	"github.com/mind-engage/mindengage-outcomes/internal/report"
	"github.com/mind-engage/mindengage-outcomes/internal/storage"
	"github.com/mind-engage/mindengage-outcomes/internal/store"
	syncx "github.com/mind-engage/mindengage-outcomes/internal/sync"
)

type fakeStore struct {
	mu        sync.Mutex
	snapshots map[string]course.Input
	outcomes  map[string][]outcome.Outcome
	runs      map[string]store.Run
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots: map[string]course.Input{},
		outcomes:  map[string][]outcome.Outcome{},
		runs:      map[string]store.Run{},
	}
}

func (f *fakeStore) PutSnapshot(_ context.Context, in course.Input) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[in.ID] = in
	return nil
}

func (f *fakeStore) GetSnapshot(_ context.Context, id string) (course.Input, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.snapshots[id]
	if !ok {
		return course.Input{}, store.ErrNotFound
	}
	return in, nil
}

func (f *fakeStore) PutOutcomes(_ context.Context, id string, outs []outcome.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[id] = outs
	return nil
}

func (f *fakeStore) GetOutcomes(_ context.Context, id string) ([]outcome.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outs, ok := f.outcomes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return outs, nil
}

func (f *fakeStore) PutRun(_ context.Context, r store.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[r.ID] = r
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, id string) (store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return store.Run{}, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListRuns(_ context.Context, courseID string, limit int) ([]store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Run
	for _, r := range f.runs {
		if r.CourseID == courseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit <= 0 {
		limit = store.DefaultListRuns
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	reports map[string]*report.Report
	latest  map[string]string
}

func (c *fakeCache) Put(_ context.Context, rep *report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[rep.RunID] = rep
	c.latest[rep.CourseID] = rep.RunID
	return nil
}

func (c *fakeCache) Get(_ context.Context, runID string) (*report.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rep, ok := c.reports[runID]
	return rep, ok, nil
}

func (c *fakeCache) Latest(_ context.Context, courseID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.latest[courseID]
	return id, ok, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []syncx.Event
}

func (e *fakeEvents) Record(_ context.Context, typ, key string, data any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	buf, _ := json.Marshal(data)
	e.events = append(e.events, syncx.Event{Seq: int64(len(e.events) + 1), Type: typ, Key: key, DataJSON: string(buf)})
	return nil
}

func (e *fakeEvents) Since(_ context.Context, seq int64, limit int) ([]syncx.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []syncx.Event
	for _, ev := range e.events {
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (e *fakeEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	deps   Deps
	store  *fakeStore
	cache  *fakeCache
	events *fakeEvents
	router chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		store:  newFakeStore(),
		cache:  &fakeCache{reports: map[string]*report.Report{}, latest: map[string]string{}},
		events: &fakeEvents{},
	}
	f.deps = Deps{
		Store:   f.store,
		Builder: report.NewBuilder(report.WithWorkers(2)),
		Cache:   f.cache,
		Archive: storage.NewReportArchive(fs),
		Events:  f.events,
		Log:     zerolog.Nop(),
	}
	r := chi.NewRouter()
	r.Route("/courses/{courseID}", func(cr chi.Router) {
		cr.Put("/snapshot", PutSnapshotHandler(f.deps))
		cr.Get("/snapshot", GetSnapshotHandler(f.deps))
		cr.Put("/outcomes", PutOutcomesHandler(f.deps))
		cr.Get("/outcomes", GetOutcomesHandler(f.deps))
		cr.Get("/outcomes/check", CheckOutcomesHandler(f.deps))
		cr.Post("/reports", RunReportHandler(f.deps))
		cr.Get("/reports", ListReportsHandler(f.deps))
		cr.Get("/reports/latest", LatestReportHandler(f.deps))
		cr.Get("/reports/{runID}", GetReportHandler(f.deps))
	})
	r.Get("/events", ListEventsHandler(f.deps))
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(method, path, bytes.NewReader([]byte(body))))
	return rr
}

const snapshotJSON = `{
  "name": "Intro",
  "students": [{"id": "s1"}, {"id": "s2"}],
  "assignment_groups": [{
    "name": "Labs",
    "assignments": [
      {"name": "Lab 1", "points_possible": 10, "submissions": [
        {"user_id": "s1", "score": 10}, {"user_id": "s2", "score": 5}]},
      {"name": "Lab 2", "points_possible": 10, "submissions": [
        {"user_id": "s1", "score": 9}, {"user_id": "s2", "score": 6}]}
    ]
  }]
}`

func TestSnapshotHandlers(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/courses/c1/snapshot", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing snapshot: %d", rr.Code)
	}

	rr = f.do(t, http.MethodPut, "/courses/c1/snapshot", snapshotJSON)
	if rr.Code != http.StatusOK {
		t.Fatalf("put: %d %s", rr.Code, rr.Body)
	}
	var sum snapshotSummary
	_ = json.NewDecoder(rr.Body).Decode(&sum)
	if sum != (snapshotSummary{CourseID: "c1", Students: 2, AssignmentGroups: 1, Assignments: 2}) {
		t.Fatalf("summary: %+v", sum)
	}

	rr = f.do(t, http.MethodGet, "/courses/c1/snapshot", "")
	var in course.Input
	if err := json.NewDecoder(rr.Body).Decode(&in); err != nil || in.ID != "c1" {
		t.Fatalf("get: %v %+v", err, in)
	}

	if rr := f.do(t, http.MethodPut, "/courses/c2/snapshot", `{"id":"c1"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("id mismatch: %d", rr.Code)
	}
	bad := `{"assignment_groups":[{"name":"","assignments":[]}]}`
	rr = f.do(t, http.MethodPut, "/courses/c3/snapshot", bad)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "errors") {
		t.Fatalf("invalid snapshot: %d %s", rr.Code, rr.Body)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != syncx.TypeSnapshotImported {
		t.Fatalf("events: %v", got)
	}
}

func TestOutcomeHandlers(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/courses/c1/snapshot", snapshotJSON)

	rr := f.do(t, http.MethodGet, "/courses/c1/outcomes", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("empty outcomes: %d %s", rr.Code, rr.Body)
	}

	rr = f.do(t, http.MethodPut, "/courses/c1/outcomes", `[{"title":"","associations":[{"assignment_group":"Labs"}]}]`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing title accepted: %d", rr.Code)
	}

	body := `[{"title":"Lab skills","associations":[
		{"assignment_group":"Labs","exceeds_threshold":0.5,"demonstrates_threshold":0.6},
		{"assignment_group":"Labs"},
		{"assignment_group":"Exams"}]}]`
	rr = f.do(t, http.MethodPut, "/courses/c1/outcomes", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("put outcomes: %d %s", rr.Code, rr.Body)
	}
	var outs []outcome.Outcome
	_ = json.NewDecoder(rr.Body).Decode(&outs)
	if len(outs[0].Associations) != 2 || outs[0].Associations[0].Thresholds() != outcome.DefaultThresholds() {
		t.Fatalf("outcomes not normalized: %+v", outs)
	}

	rr = f.do(t, http.MethodGet, "/courses/c1/outcomes/check", "")
	var check struct {
		OK      bool             `json:"ok"`
		Missing []report.Missing `json:"missing"`
	}
	_ = json.NewDecoder(rr.Body).Decode(&check)
	if check.OK || len(check.Missing) != 1 || check.Missing[0].Association.AssignmentGroup != "Exams" {
		t.Fatalf("check: %+v", check)
	}
}

func TestRunAndFetchReport(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/courses/c1/snapshot", snapshotJSON)

	if rr := f.do(t, http.MethodPost, "/courses/c1/reports", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("report without outcomes: %d", rr.Code)
	}

	f.do(t, http.MethodPut, "/courses/c1/outcomes", `[{"title":"Lab skills","associations":[{"assignment_group":"Labs"}]}]`)
	rr := f.do(t, http.MethodPost, "/courses/c1/reports", `{"students":["s1"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("run: %d %s", rr.Code, rr.Body)
	}
	var rep report.Report
	if err := json.NewDecoder(rr.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	row := rep.Outcomes[0].Students[0]
	if row.Student != "s1" || row.Verdict != outcome.Attained || !near(row.Percent, 0.95) {
		t.Fatalf("row: %+v", row)
	}
	if _, ok := f.store.runs[rep.RunID]; !ok {
		t.Fatal("run metadata not stored")
	}

	// Served from the cache.
	rr = f.do(t, http.MethodGet, "/courses/c1/reports/"+rep.RunID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get cached: %d", rr.Code)
	}

	// Served from the archive after a cache flush.
	f.cache.reports = map[string]*report.Report{}
	rr = f.do(t, http.MethodGet, "/courses/c1/reports/"+rep.RunID, "")
	var back report.Report
	if err := json.NewDecoder(rr.Body).Decode(&back); err != nil || back.RunID != rep.RunID {
		t.Fatalf("archive fallback: %d %v", rr.Code, err)
	}
	if _, ok := f.cache.reports[rep.RunID]; !ok {
		t.Fatal("cache not refilled")
	}

	if rr := f.do(t, http.MethodGet, "/courses/c2/reports/"+rep.RunID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("other course: %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/courses/c1/reports/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown run: %d", rr.Code)
	}

	rr = f.do(t, http.MethodGet, "/courses/c1/reports/latest", "")
	if err := json.NewDecoder(rr.Body).Decode(&back); err != nil || back.RunID != rep.RunID {
		t.Fatalf("latest: %d %v", rr.Code, err)
	}

	rr = f.do(t, http.MethodGet, "/courses/c1/reports", "")
	var runs []store.Run
	_ = json.NewDecoder(rr.Body).Decode(&runs)
	if len(runs) != 1 || runs[0].StudentCount != 1 || runs[0].OutcomeCount != 1 {
		t.Fatalf("runs: %+v", runs)
	}

	rr = f.do(t, http.MethodGet, "/events?since=1", "")
	var evs []syncx.Event
	_ = json.NewDecoder(rr.Body).Decode(&evs)
	if len(evs) != 2 || evs[len(evs)-1].Type != syncx.TypeReportBuilt {
		t.Fatalf("events: %+v", evs)
	}
}

func TestRunReportRecordsCaller(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/courses/c1/snapshot", snapshotJSON)
	f.do(t, http.MethodPut, "/courses/c1/outcomes", `[{"title":"Lab skills","associations":[{"assignment_group":"Labs"}]}]`)

	req := httptest.NewRequest(http.MethodPost, "/courses/c1/reports", nil)
	req = req.WithContext(rbac.WithPrincipal(req.Context(), rbac.Principal{Subject: "t1", Role: "teacher"}))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("run: %d %s", rr.Code, rr.Body)
	}
	var rep report.Report
	if err := json.NewDecoder(rr.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if got := f.store.runs[rep.RunID].CreatedBy; got != "t1" {
		t.Fatalf("created_by: %q", got)
	}
}

func TestRunReportMissingAssociations(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/courses/c1/snapshot", snapshotJSON)
	f.do(t, http.MethodPut, "/courses/c1/outcomes", `[{"title":"O","associations":[{"assignment_group":"Exams"}]}]`)

	rr := f.do(t, http.MethodPost, "/courses/c1/reports", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d %s", rr.Code, rr.Body)
	}
	if len(f.store.runs) != 0 {
		t.Fatal("blocked run stored")
	}
	got := f.events.types()
	if got[len(got)-1] != syncx.TypeReportBlocked {
		t.Fatalf("events: %v", got)
	}
}

func TestLatestWithoutCache(t *testing.T) {
	f := newFixture(t)
	f.deps.Cache = nil
	r := chi.NewRouter()
	r.Get("/courses/{courseID}/reports/latest", LatestReportHandler(f.deps))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/courses/c1/reports/latest", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rr.Code)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
