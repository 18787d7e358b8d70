package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-outcomes/internal/rbac"
	"github.com/mind-engage/mindengage-outcomes/internal/report"
	"github.com/mind-engage/mindengage-outcomes/internal/store"
	syncx "github.com/mind-engage/mindengage-outcomes/internal/sync"
)

type runReportReq struct {
	Students []string `json:"students,omitempty"`
}

// POST /courses/{courseID}/reports
// Body (optional): {"students": ["..."]}
func RunReportHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		var req runReportReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		c, outs, status, err := d.loadCourse(r.Context(), courseID)
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}

		rep, err := d.Builder.Build(r.Context(), c, outs, req.Students)
		var me *report.MissingAssociationsError
		switch {
		case errors.As(err, &me):
			d.record(r.Context(), syncx.TypeReportBlocked, courseID, me.Missing)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": me.Error(), "missing": me.Missing})
			return
		case err != nil:
			d.Log.Error().Err(err).Str("course_id", courseID).Msg("build report")
			http.Error(w, "build report", http.StatusInternalServerError)
			return
		}

		key, err := d.Archive.Save(rep)
		if err != nil {
			d.Log.Error().Err(err).Str("run_id", rep.RunID).Msg("archive report")
			http.Error(w, "archive report", http.StatusInternalServerError)
			return
		}
		caller, _ := rbac.PrincipalFrom(r.Context())
		run := store.Run{
			ID:           rep.RunID,
			CourseID:     courseID,
			BlobKey:      key,
			StudentCount: len(rep.Students),
			OutcomeCount: len(rep.Outcomes),
			CreatedBy:    caller.Subject,
			CreatedAt:    rep.GeneratedAt,
		}
		if err := d.Store.PutRun(r.Context(), run); err != nil {
			d.Log.Error().Err(err).Str("run_id", rep.RunID).Msg("store run")
			http.Error(w, "store run", http.StatusInternalServerError)
			return
		}
		if d.Cache != nil {
			if err := d.Cache.Put(r.Context(), rep); err != nil {
				d.Log.Warn().Err(err).Str("run_id", rep.RunID).Msg("cache report")
			}
		}
		d.record(r.Context(), syncx.TypeReportBuilt, courseID, run)
		writeJSON(w, http.StatusCreated, rep)
	}
}

// GET /courses/{courseID}/reports?limit=20 (the store applies the bounds)
func ListReportsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		runs, err := d.Store.ListRuns(r.Context(), courseID, limit)
		if err != nil {
			http.Error(w, "list runs: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []store.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

// GET /courses/{courseID}/reports/latest
func LatestReportHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		if d.Cache != nil {
			runID, ok, err := d.Cache.Latest(r.Context(), courseID)
			if err != nil {
				d.Log.Warn().Err(err).Str("course_id", courseID).Msg("cache latest")
			}
			if ok {
				d.serveReport(w, r, courseID, runID)
				return
			}
		}
		runs, err := d.Store.ListRuns(r.Context(), courseID, 1)
		if err != nil {
			http.Error(w, "list runs: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(runs) == 0 {
			http.Error(w, "no reports", http.StatusNotFound)
			return
		}
		d.serveReport(w, r, courseID, runs[0].ID)
	}
}

// GET /courses/{courseID}/reports/{runID}
func GetReportHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.serveReport(w, r,
			strings.TrimSpace(chi.URLParam(r, "courseID")),
			strings.TrimSpace(chi.URLParam(r, "runID")))
	}
}

// serveReport answers from the cache when possible and falls back to the
// archive, refilling the cache.
func (d Deps) serveReport(w http.ResponseWriter, r *http.Request, courseID, runID string) {
	ctx := r.Context()
	if d.Cache != nil {
		rep, ok, err := d.Cache.Get(ctx, runID)
		if err != nil {
			d.Log.Warn().Err(err).Str("run_id", runID).Msg("cache get")
		}
		if ok && rep.CourseID == courseID {
			writeJSON(w, http.StatusOK, rep)
			return
		}
	}

	run, err := d.Store.GetRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && run.CourseID != courseID) {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "load run: "+err.Error(), http.StatusInternalServerError)
		return
	}
	rep, err := d.Archive.Load(run.BlobKey)
	if err != nil {
		d.Log.Error().Err(err).Str("run_id", runID).Msg("load archived report")
		http.Error(w, "load report", http.StatusInternalServerError)
		return
	}
	if d.Cache != nil {
		if err := d.Cache.Put(ctx, rep); err != nil {
			d.Log.Warn().Err(err).Str("run_id", runID).Msg("cache refill")
		}
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /events?since=0&limit=100
func ListEventsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var since int64
		if v := r.URL.Query().Get("since"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad since", http.StatusBadRequest)
				return
			}
			since = n
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		evs, err := d.Events.Since(r.Context(), since, limit)
		if err != nil {
			http.Error(w, "events: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
