package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"

	"github.com/mind-engage/mindengage-outcomes/internal/report"
)

// ReportArchive keeps built reports as JSON documents in a blob store.
type ReportArchive struct {
	blobs BlobStore
}

func NewReportArchive(b BlobStore) *ReportArchive { return &ReportArchive{blobs: b} }

// ReportKey is the blob key of a report run.
func ReportKey(courseID, runID string) string {
	return path.Join("reports", courseID, runID+".json")
}

// Save writes the report and returns its blob key.
func (a *ReportArchive) Save(rep *report.Report) (string, error) {
	buf, err := json.Marshal(rep)
	if err != nil {
		return "", err
	}
	key, err := a.blobs.Put(ReportKey(rep.CourseID, rep.RunID), bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("archive report %s: %w", rep.RunID, err)
	}
	return key, nil
}

// Load reads an archived report by blob key.
func (a *ReportArchive) Load(key string) (*report.Report, error) {
	rc, err := a.blobs.Get(key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var rep report.Report
	if err := json.NewDecoder(rc).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", key, err)
	}
	return &rep, nil
}
