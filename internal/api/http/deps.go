package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-outcomes/internal/report"
	"github.com/mind-engage/mindengage-outcomes/internal/store"
	syncx "github.com/mind-engage/mindengage-outcomes/internal/sync"
)

// Handlers only; routes live in cmd/gateway.

// ReportCache is satisfied by *cache.ReportCache.
type ReportCache interface {
	Put(ctx context.Context, rep *report.Report) error
	Get(ctx context.Context, runID string) (*report.Report, bool, error)
	Latest(ctx context.Context, courseID string) (string, bool, error)
}

// ReportArchive is satisfied by *storage.ReportArchive.
type ReportArchive interface {
	Save(rep *report.Report) (string, error)
	Load(key string) (*report.Report, error)
}

// EventLog is satisfied by *syncx.EventRepo.
type EventLog interface {
	Record(ctx context.Context, typ, key string, data any) error
	Since(ctx context.Context, seq int64, limit int) ([]syncx.Event, error)
}

// Deps carries what the handlers share. Cache may be nil.
type Deps struct {
	Store   store.Store
	Builder *report.Builder
	Cache   ReportCache
	Archive ReportArchive
	Events  EventLog
	Log     zerolog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// record appends to the event log; a failure is logged, not returned.
func (d Deps) record(ctx context.Context, typ, key string, data any) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Record(ctx, typ, key, data); err != nil {
		d.Log.Warn().Err(err).Str("type", typ).Str("key", key).Msg("event log append failed")
	}
}
