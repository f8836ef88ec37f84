package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	writeBuffer   = 256
	recordTimeout = 2 * time.Second
)

const insertAttempt = `INSERT INTO model_attempts (run_id, seq, phase, api_version, model, outcome, error_message, latency_ms)
	VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type attemptRecord struct {
	runID     uuid.UUID
	seq       int
	phase     string
	version   string
	model     string
	outcome   string
	message   string
	latencyMs int64
}

// attemptWriter inserts records from a buffered queue on its own
// goroutine, so a slow database never holds up the search. When the
// queue is full records are dropped with a warning.
type attemptWriter struct {
	db      execer
	log     zerolog.Logger
	queue   chan attemptRecord
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	timeout time.Duration
}

func newAttemptWriter(db execer, buffer int, log zerolog.Logger) *attemptWriter {
	w := &attemptWriter{
		db:      db,
		log:     log,
		queue:   make(chan attemptRecord, buffer),
		done:    make(chan struct{}),
		timeout: recordTimeout,
	}
	go w.loop()
	return w
}

func (w *attemptWriter) enqueue(rec attemptRecord) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	select {
	case w.queue <- rec:
		return true
	default:
		w.log.Warn().Str("run_id", rec.runID.String()).Msg("attempt log queue full, dropping record")
		return false
	}
}

func (w *attemptWriter) loop() {
	defer close(w.done)
	for rec := range w.queue {
		w.write(rec)
	}
}

func (w *attemptWriter) write(rec attemptRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	_, err := w.db.Exec(ctx, insertAttempt,
		rec.runID.String(), rec.seq, rec.phase, rec.version, rec.model, rec.outcome, rec.message, rec.latencyMs,
	)
	if err != nil {
		w.log.Warn().Err(err).Str("run_id", rec.runID.String()).Msg("failed to record attempt")
	}
}

// close stops accepting records and waits for the queue to drain.
func (w *attemptWriter) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	<-w.done
}
