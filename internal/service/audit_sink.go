package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"paymentgw/internal/core/domain"

	"github.com/rs/zerolog"
)

const (
	defaultMinAuditWorkers  = 1
	defaultMaxAuditWorkers  = 4
	defaultAuditQueueSize   = 1024
	defaultAuditIdleTimeout = 60 * time.Second
)

// AuditSinkOptions tunes the FileAuditSink worker pool. Zero values fall
// back to the defaults above.
type AuditSinkOptions struct {
	MinWorkers  int
	MaxWorkers  int
	QueueSize   int
	IdleTimeout time.Duration
}

func (o AuditSinkOptions) withDefaults() AuditSinkOptions {
	if o.MinWorkers <= 0 {
		o.MinWorkers = defaultMinAuditWorkers
	}
	if o.MaxWorkers < o.MinWorkers {
		o.MaxWorkers = defaultMaxAuditWorkers
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultAuditQueueSize
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = defaultAuditIdleTimeout
	}
	return o
}

// FileAuditSink implements ports.AuditSink by appending JSON-line records to
// a single file. A pool of workers (MinWorkers always running, burst workers
// up to MaxWorkers that retire after IdleTimeout) drains a bounded queue.
// Delivery is best-effort: serialization or I/O failures are logged and
// swallowed, and a full queue drops the record rather than block the caller.
type FileAuditSink struct {
	path        string
	queue       chan *domain.AuditRecord
	maxWorkers  int32
	minWorkers  int
	idleTimeout time.Duration
	log         zerolog.Logger

	fileMu  sync.Mutex // only one worker may append at a time
	stateMu sync.RWMutex
	stopped bool

	workers atomic.Int32
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// NewFileAuditSink creates a file-backed audit sink. Call Start before
// submitting and Stop to drain on shutdown.
func NewFileAuditSink(path string, opts AuditSinkOptions, log zerolog.Logger) *FileAuditSink {
	opts = opts.withDefaults()
	return &FileAuditSink{
		path:        path,
		queue:       make(chan *domain.AuditRecord, opts.QueueSize),
		maxWorkers:  int32(opts.MaxWorkers),
		minWorkers:  opts.MinWorkers,
		idleTimeout: opts.IdleTimeout,
		log:         log,
	}
}

// Start launches the resident workers.
func (s *FileAuditSink) Start() {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.log.Warn().Err(err).Str("dir", dir).Msg("failed to create audit output directory")
		}
	}
	for i := 0; i < s.minWorkers; i++ {
		s.spawn(true)
	}
}

// Submit enqueues a record for delivery and returns immediately. Once the
// sink is stopped, or when the queue is full, the record is dropped.
func (s *FileAuditSink) Submit(record *domain.AuditRecord) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	if s.stopped {
		s.dropped.Add(1)
		s.log.Warn().Str("invoice", record.Invoice).Msg("audit sink stopped, record dropped")
		return
	}

	select {
	case s.queue <- record:
		s.maybeSpawnWorker()
	default:
		s.dropped.Add(1)
		s.log.Warn().Str("invoice", record.Invoice).Msg("audit queue full, record dropped")
	}
}

// Stop closes the queue and waits for the workers to drain it. Records still
// queued when ctx expires are dropped.
func (s *FileAuditSink) Stop(ctx context.Context) error {
	s.stateMu.Lock()
	if s.stopped {
		s.stateMu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.queue)
	s.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		pending := len(s.queue)
		s.dropped.Add(int64(pending))
		s.log.Warn().Int("pending", pending).Msg("audit drain timed out, dropping queued records")
		return ctx.Err()
	}
}

// Dropped returns the number of records lost to overflow, shutdown or
// drain timeout.
func (s *FileAuditSink) Dropped() int64 {
	return s.dropped.Load()
}

// maybeSpawnWorker adds a burst worker when records are waiting and the pool
// is below its cap.
func (s *FileAuditSink) maybeSpawnWorker() {
	if len(s.queue) > 0 && s.workers.Load() < s.maxWorkers {
		s.spawn(false)
	}
}

func (s *FileAuditSink) spawn(resident bool) {
	s.workers.Add(1)
	s.wg.Add(1)
	go s.worker(resident)
}

func (s *FileAuditSink) worker(resident bool) {
	defer func() {
		s.workers.Add(-1)
		s.wg.Done()
	}()

	if resident {
		for record := range s.queue {
			s.append(record)
		}
		return
	}

	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case record, ok := <-s.queue:
			if !ok {
				return
			}
			s.append(record)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.idleTimeout)
		case <-idle.C:
			return
		}
	}
}

// append serializes one record and writes it as a single line. The mutex
// keeps appends atomic so record boundaries stay intact in the destination.
func (s *FileAuditSink) append(record *domain.AuditRecord) {
	line, err := json.Marshal(record)
	if err != nil {
		s.dropped.Add(1)
		s.log.Warn().Err(err).Str("invoice", record.Invoice).Msg("failed to serialize audit record")
		return
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.dropped.Add(1)
		s.log.Warn().Err(err).Str("invoice", record.Invoice).Msg("audit destination unavailable, record dropped")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		s.dropped.Add(1)
		s.log.Warn().Err(err).Str("invoice", record.Invoice).Msg("failed to append audit record")
	}
}
