package stats

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type job struct {
	code  string
	entry Entry
}

// Writer persists ledger entries off the room goroutines. Saves are fire-and-forget:
// a full queue or a failed write is logged and the in-memory ledger stays as it is.
type Writer struct {
	store   Store
	log     *zap.Logger
	timeout time.Duration
	queue   chan job
}

func NewWriter(store Store, log *zap.Logger, queueSize int, timeout time.Duration) *Writer {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Writer{
		store:   store,
		log:     log.Named("stats"),
		timeout: timeout,
		queue:   make(chan job, queueSize),
	}
}

// Save enqueues a copy of e for code.
func (w *Writer) Save(code string, e Entry) {
	e.Players = e.Players.Clone()
	select {
	case w.queue <- job{code: code, entry: e}:
	default:
		w.log.Warn("ledger queue full, dropping write", zap.String("room", code))
	}
}

// Run writes queued entries until ctx is done.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-w.queue:
			_ = w.write(j)
		}
	}
}

func (w *Writer) write(j job) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.store.Save(ctx, j.code, j.entry); err != nil {
		w.log.Error("ledger write failed", zap.String("room", j.code), zap.Error(err))
		return err
	}
	w.log.Debug("ledger written", zap.String("room", j.code))
	return nil
}

// Close flushes whatever is still queued and closes the store.
func (w *Writer) Close() error {
	var err error
	for {
		select {
		case j := <-w.queue:
			err = multierr.Append(err, w.write(j))
		default:
			return multierr.Append(err, w.store.Close())
		}
	}
}
