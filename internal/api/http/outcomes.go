package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
	"github.com/mind-engage/mindengage-outcomes/internal/report"
	"github.com/mind-engage/mindengage-outcomes/internal/store"
	syncx "github.com/mind-engage/mindengage-outcomes/internal/sync"
	"github.com/mind-engage/mindengage-outcomes/internal/validate"
)

// PUT /courses/{courseID}/outcomes
// Body: [ {title, description, associations: [...]}, ... ]
func PutOutcomesHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		var outs []outcome.Outcome
		if err := json.NewDecoder(r.Body).Decode(&outs); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := validate.Struct(outs); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": validate.TranslateErrors(err)})
			return
		}
		outs = outcome.NormalizeOutcomes(outs)
		if err := d.Store.PutOutcomes(r.Context(), courseID, outs); err != nil {
			d.Log.Error().Err(err).Str("course_id", courseID).Msg("store outcomes")
			http.Error(w, "store outcomes", http.StatusInternalServerError)
			return
		}
		d.record(r.Context(), syncx.TypeOutcomesUpdated, courseID, map[string]int{"outcomes": len(outs)})
		writeJSON(w, http.StatusOK, outs)
	}
}

// GET /courses/{courseID}/outcomes
func GetOutcomesHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		outs, err := d.Store.GetOutcomes(r.Context(), courseID)
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, []outcome.Outcome{})
			return
		}
		if err != nil {
			http.Error(w, "load outcomes: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, outs)
	}
}

// GET /courses/{courseID}/outcomes/check
func CheckOutcomesHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		c, outs, status, err := d.loadCourse(r.Context(), courseID)
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}
		missing := report.Check(outcome.NewAggregator(c), outcome.NormalizeOutcomes(outs))
		if missing == nil {
			missing = []report.Missing{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": len(missing) == 0, "missing": missing})
	}
}

// loadCourse reads and builds the snapshot and outcomes of a course. The
// returned status is meaningful only when err is non-nil.
func (d Deps) loadCourse(ctx context.Context, courseID string) (*course.Course, []outcome.Outcome, int, error) {
	in, err := d.Store.GetSnapshot(ctx, courseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, http.StatusNotFound, errors.New("snapshot not found")
	}
	if err != nil {
		return nil, nil, http.StatusInternalServerError, fmt.Errorf("load snapshot: %w", err)
	}
	outs, err := d.Store.GetOutcomes(ctx, courseID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, http.StatusNotFound, errors.New("outcomes not found")
	}
	if err != nil {
		return nil, nil, http.StatusInternalServerError, fmt.Errorf("load outcomes: %w", err)
	}
	c, err := course.Build(in)
	if err != nil {
		return nil, nil, http.StatusUnprocessableEntity, err
	}
	return c, outs, 0, nil
}
