package jobs

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Exporter produces a serialized dump of the knowledge store.
type Exporter interface {
	Export(ctx context.Context) ([]byte, error)
}

// Archiver persists one named snapshot object.
type Archiver interface {
	PutObject(ctx context.Context, key string, contentType string, body []byte) error
}

// SnapshotWorker periodically archives the knowledge store to object
// storage. Each run uploads a timestamped object plus a rolling "latest".
type SnapshotWorker struct {
	exporter Exporter
	archiver Archiver
	prefix   string
	now      func() time.Time

	lastExport []byte
}

func NewSnapshotWorker(exporter Exporter, archiver Archiver, prefix string) *SnapshotWorker {
	if prefix == "" {
		prefix = "snapshots"
	}
	return &SnapshotWorker{
		exporter: exporter,
		archiver: archiver,
		prefix:   prefix,
		now:      time.Now,
	}
}

// ProcessJobs uploads a snapshot if the store changed since the last run.
func (w *SnapshotWorker) ProcessJobs(ctx context.Context) error {
	data, err := w.exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("failed to export knowledge store: %w", err)
	}

	if string(data) == string(w.lastExport) {
		return nil
	}

	stamp := w.now().UTC().Format("2006-01-02T15-04-05Z")
	key := fmt.Sprintf("%s/knowledge-%s.json", w.prefix, stamp)
	if err := w.archiver.PutObject(ctx, key, "application/json", data); err != nil {
		return fmt.Errorf("failed to archive snapshot %s: %w", key, err)
	}

	latest := fmt.Sprintf("%s/knowledge-latest.json", w.prefix)
	if err := w.archiver.PutObject(ctx, latest, "application/json", data); err != nil {
		return fmt.Errorf("failed to update latest snapshot: %w", err)
	}

	w.lastExport = data
	log.Printf("archived knowledge snapshot %s (%d bytes)", key, len(data))
	return nil
}
