package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/store"
	syncx "github.com/mind-engage/mindengage-outcomes/internal/sync"
	"github.com/mind-engage/mindengage-outcomes/internal/validate"
)

type snapshotSummary struct {
	CourseID         string `json:"course_id"`
	Students         int    `json:"students"`
	AssignmentGroups int    `json:"assignment_groups"`
	Assignments      int    `json:"assignments"`
}

// PUT /courses/{courseID}/snapshot
func PutSnapshotHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		var in course.Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		switch in.ID {
		case "":
			in.ID = courseID
		case courseID:
		default:
			http.Error(w, "course id does not match path", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": validate.TranslateErrors(err)})
			return
		}
		c, err := course.Build(in)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := d.Store.PutSnapshot(r.Context(), in); err != nil {
			d.Log.Error().Err(err).Str("course_id", courseID).Msg("store snapshot")
			http.Error(w, "store snapshot", http.StatusInternalServerError)
			return
		}

		sum := snapshotSummary{CourseID: c.ID, Students: len(c.Students), AssignmentGroups: len(c.Groups())}
		for _, g := range c.Groups() {
			sum.Assignments += len(g.Assignments())
		}
		d.record(r.Context(), syncx.TypeSnapshotImported, courseID, sum)
		writeJSON(w, http.StatusOK, sum)
	}
}

// GET /courses/{courseID}/snapshot
func GetSnapshotHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "courseID"))
		in, err := d.Store.GetSnapshot(r.Context(), courseID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "load snapshot: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, in)
	}
}
