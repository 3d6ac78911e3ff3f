package migrate

import (
	"sync"
	"sync/atomic"
	"time"
)

// ProgressEvent names the out-of-band notification stream carrying
// Progress payloads while a job runs.
const ProgressEvent = "migration-progress"

// Progress status labels, in the order a healthy table moves through them.
const (
	StatusStarting  = "Starting"
	StatusPreparing = "Preparing"
	StatusMigrating = "Migrating"
	StatusComplete  = "Complete"
)

const defaultBatchSize = 1000

// Options configures one migration job.
type Options struct {
	CreateTableIfNotExists bool
	TruncateBeforeInsert   bool
	DisableConstraints     bool
	BatchSize              int
}

func DefaultOptions() Options {
	return Options{
		CreateTableIfNotExists: true,
		TruncateBeforeInsert:   false,
		DisableConstraints:     true,
		BatchSize:              defaultBatchSize,
	}
}

func (o Options) normalized() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	return o
}

// Progress is a transient snapshot of the job, emitted after preparation
// and after every batch. It is telemetry: at-least-once, best-effort, and
// losing one never affects correctness.
type Progress struct {
	TableName       string
	CurrentTable    int // 1-based
	TotalTables     int
	RowsTransferred int64
	TotalRows       int64
	Status          string
	Error           string
}

// Result is the terminal summary of a job. Success is true iff no
// per-table errors were recorded.
type Result struct {
	Success        bool
	TablesMigrated int
	TotalRows      int64
	Errors         []string
	Elapsed        time.Duration
}

// CancelToken is the shared cancellation flag for one job. Cancellation is
// cooperative: setting it never aborts an in-flight statement, it only
// prevents the next batch or table from starting.
type CancelToken struct {
	flag atomic.Bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

func (t *CancelToken) Cancel() {
	t.flag.Store(true)
}

func (t *CancelToken) Cancelled() bool {
	return t.flag.Load()
}

// Emitter is a one-directional, non-blocking progress channel. Emit drops
// events under back-pressure rather than stalling the migration loop.
type Emitter struct {
	ch   chan Progress
	once sync.Once
}

func NewEmitter(buffer int) *Emitter {
	if buffer <= 0 {
		buffer = 64
	}
	return &Emitter{ch: make(chan Progress, buffer)}
}

func (e *Emitter) Emit(p Progress) {
	if e == nil {
		return
	}
	select {
	case e.ch <- p:
	default:
	}
}

// Events is the receive side; it is closed when the job finishes.
func (e *Emitter) Events() <-chan Progress {
	return e.ch
}

func (e *Emitter) Close() {
	if e == nil {
		return
	}
	e.once.Do(func() { close(e.ch) })
}
