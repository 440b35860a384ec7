package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	data []byte
	err  error
}

func (e *fakeExporter) Export(_ context.Context) ([]byte, error) {
	return e.data, e.err
}

type putCall struct {
	key         string
	contentType string
	body        string
}

type fakeArchiver struct {
	puts []putCall
	err  error
}

func (a *fakeArchiver) PutObject(_ context.Context, key, contentType string, body []byte) error {
	if a.err != nil {
		return a.err
	}
	a.puts = append(a.puts, putCall{key: key, contentType: contentType, body: string(body)})
	return nil
}

func newTestSnapshotWorker(exporter *fakeExporter, archiver *fakeArchiver) *SnapshotWorker {
	w := NewSnapshotWorker(exporter, archiver, "snapshots")
	w.now = func() time.Time {
		return time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	}
	return w
}

func TestSnapshotUploadsTimestampedAndLatest(t *testing.T) {
	exporter := &fakeExporter{data: []byte(`{"revision":3}`)}
	archiver := &fakeArchiver{}
	w := newTestSnapshotWorker(exporter, archiver)

	require.NoError(t, w.ProcessJobs(context.Background()))

	require.Len(t, archiver.puts, 2)
	assert.Equal(t, "snapshots/knowledge-2026-03-15T09-30-00Z.json", archiver.puts[0].key)
	assert.Equal(t, "snapshots/knowledge-latest.json", archiver.puts[1].key)
	for _, put := range archiver.puts {
		assert.Equal(t, "application/json", put.contentType)
		assert.Equal(t, `{"revision":3}`, put.body)
	}
}

func TestSnapshotSkipsUnchangedContent(t *testing.T) {
	exporter := &fakeExporter{data: []byte(`{"revision":3}`)}
	archiver := &fakeArchiver{}
	w := newTestSnapshotWorker(exporter, archiver)

	require.NoError(t, w.ProcessJobs(context.Background()))
	require.NoError(t, w.ProcessJobs(context.Background()))
	assert.Len(t, archiver.puts, 2, "second run with identical content uploads nothing")

	exporter.data = []byte(`{"revision":4}`)
	require.NoError(t, w.ProcessJobs(context.Background()))
	assert.Len(t, archiver.puts, 4)
}

func TestSnapshotExportFailure(t *testing.T) {
	exporter := &fakeExporter{err: errors.New("store unavailable")}
	archiver := &fakeArchiver{}
	w := newTestSnapshotWorker(exporter, archiver)

	err := w.ProcessJobs(context.Background())
	require.Error(t, err)
	assert.Empty(t, archiver.puts)
}

func TestSnapshotArchiveFailureRetriesNextRun(t *testing.T) {
	exporter := &fakeExporter{data: []byte(`{"revision":3}`)}
	archiver := &fakeArchiver{err: errors.New("bucket gone")}
	w := newTestSnapshotWorker(exporter, archiver)

	require.Error(t, w.ProcessJobs(context.Background()))

	// A failed upload must not mark the content as exported.
	archiver.err = nil
	require.NoError(t, w.ProcessJobs(context.Background()))
	assert.Len(t, archiver.puts, 2)
}

func TestSnapshotDefaultPrefix(t *testing.T) {
	w := NewSnapshotWorker(&fakeExporter{}, &fakeArchiver{}, "")
	assert.Equal(t, "snapshots", w.prefix)
}

type countingProcessor struct {
	calls chan struct{}
}

func (p *countingProcessor) ProcessJobs(_ context.Context) error {
	p.calls <- struct{}{}
	return nil
}

func TestWorkerPollsAndStops(t *testing.T) {
	p := &countingProcessor{calls: make(chan struct{}, 16)}
	w := NewWorker(p, 10*time.Millisecond)

	go w.Start(context.Background())

	select {
	case <-p.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never processed jobs")
	}

	w.Stop()
}
