package logging

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/clbarnes/zip-tree/pkg/humanfmt"
)

// DefaultLogInterval is the item-count spacing between periodic progress
// lines emitted by a ProgressTracker.
const DefaultLogInterval = 1_000_000

// ProgressTracker counts items through a high-volume phase and emits a
// progress line each time the running count crosses a log-interval boundary.
// A total of 0 means the total is unknown; percentage and ETA fields are then
// omitted. It is safe for concurrent use.
type ProgressTracker struct {
	phase    string
	total    int64
	interval int64
	start    time.Time
	log      zerolog.Logger

	done atomic.Int64

	// Window since the previous progress line, for the instantaneous rate.
	mu        sync.Mutex
	lastCount int64
	lastTime  time.Time
}

// NewProgressTracker creates a new progress tracker. total may be 0 when the
// item count is not known in advance.
func NewProgressTracker(phase string, total int64, log zerolog.Logger) *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		phase:    phase,
		total:    total,
		interval: DefaultLogInterval,
		start:    now,
		log:      log,
		lastTime: now,
	}
}

// SetLogInterval overrides the item-count spacing of progress lines.
// Call before the first Add.
func (pt *ProgressTracker) SetLogInterval(n int64) {
	if n > 0 {
		pt.interval = n
	}
}

// Add records n more items done. Items accounted for in bulk may be added
// with a single call. Emits a progress line when the count crosses an
// interval boundary.
func (pt *ProgressTracker) Add(n int64) {
	if n <= 0 {
		return
	}
	done := pt.done.Add(n)
	if (done-n)/pt.interval == done/pt.interval {
		return
	}
	pt.logProgress(done)
}

// Progress returns the current done count and the total (0 if unknown).
func (pt *ProgressTracker) Progress() (done, total int64) {
	return pt.done.Load(), pt.total
}

// Done returns the current done count.
func (pt *ProgressTracker) Done() int64 {
	return pt.done.Load()
}

// Total returns the total count (0 if unknown).
func (pt *ProgressTracker) Total() int64 {
	return pt.total
}

// ProgressPct returns the progress percentage, or 0 when the total is unknown.
func (pt *ProgressTracker) ProgressPct() float64 {
	if pt.total <= 0 {
		return 0
	}
	return float64(pt.done.Load()) * 100.0 / float64(pt.total)
}

// ETA estimates time remaining from the overall average rate.
// Returns 0 when the total is unknown or nothing has completed yet.
func (pt *ProgressTracker) ETA() time.Duration {
	done := pt.done.Load()
	if pt.total <= 0 || done <= 0 {
		return 0
	}
	remaining := pt.total - done
	if remaining <= 0 {
		return 0
	}
	elapsed := time.Since(pt.start)
	return time.Duration(float64(elapsed) / float64(done) * float64(remaining))
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.start)
}

func (pt *ProgressTracker) logProgress(done int64) {
	pt.mu.Lock()
	now := time.Now()
	windowCount := done - pt.lastCount
	windowTime := now.Sub(pt.lastTime)
	pt.lastCount = done
	pt.lastTime = now
	pt.mu.Unlock()

	var rate int64
	if secs := windowTime.Seconds(); secs > 0 {
		rate = int64(float64(windowCount) / secs)
	}

	e := pt.log.Info().
		Str("phase", pt.phase).
		Int64("done", done).
		Int64("rate_per_s", rate)
	if pt.total > 0 {
		e = e.Int64("total", pt.total).
			Float64("progress_pct", float64(done)*100.0/float64(pt.total))
		if eta := pt.ETA(); eta > 0 {
			e = e.Int64("eta_ms", eta.Milliseconds())
			if IsPrettyMode() {
				e = e.Str("eta_h", humanfmt.Duration(eta))
			}
		}
	}
	if IsPrettyMode() {
		e = e.Str("done_h", humanize.Comma(done)).
			Str("rate_h", humanize.Comma(rate)+"/s")
	}
	e.Msg("progress")
}

// CompletionEvent helps build consistent completion log events.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	fields  map[string]interface{}
}

// NewCompletionEvent creates a new completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		phase:   phase,
		elapsed: elapsed,
		fields:  make(map[string]interface{}),
	}
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int64 adds an int64 field.
func (ce *CompletionEvent) Int64(key string, val int64) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Uint64 adds a uint64 field.
func (ce *CompletionEvent) Uint64(key string, val uint64) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Float64 adds a float64 field.
func (ce *CompletionEvent) Float64(key string, val float64) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Bytes adds byte count with optional human-readable companion.
func (ce *CompletionEvent) Bytes(key string, bytes int64) *CompletionEvent {
	ce.fields[key] = bytes
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Bytes(bytes)
	}
	return ce
}

// BytesUint64 adds a uint64 byte count field.
func (ce *CompletionEvent) BytesUint64(key string, bytes uint64) *CompletionEvent {
	return ce.Bytes(key, int64(bytes))
}

// Count adds count with optional human-readable companion.
func (ce *CompletionEvent) Count(key string, n int64) *CompletionEvent {
	ce.fields[key] = n
	if IsPrettyMode() {
		ce.fields[key+"_h"] = humanfmt.Count(n)
	}
	return ce
}

// CountUint64 adds a uint64 count field.
func (ce *CompletionEvent) CountUint64(key string, n uint64) *CompletionEvent {
	return ce.Count(key, int64(n))
}

// Progress adds progress fields (done, total, percentage, optional ETA).
func (ce *CompletionEvent) Progress(done, total int64, eta time.Duration) *CompletionEvent {
	ce.fields["done"] = done
	ce.fields["total"] = total
	if total > 0 {
		pct := float64(done) * 100.0 / float64(total)
		ce.fields["progress_pct"] = pct
		if IsPrettyMode() {
			ce.fields["progress_h"] = humanfmt.Count(done) + "/" + humanfmt.Count(total)
		}
	}
	if eta > 0 {
		ce.fields["eta_ms"] = eta.Milliseconds()
		if IsPrettyMode() {
			ce.fields["eta_h"] = humanfmt.Duration(eta)
		}
	}
	return ce
}

// ProgressFromTracker adds progress fields from a ProgressTracker.
func (ce *CompletionEvent) ProgressFromTracker(pt *ProgressTracker) *CompletionEvent {
	done, total := pt.Progress()
	return ce.Progress(done, total, pt.ETA())
}

// Throughput adds throughput fields.
func (ce *CompletionEvent) Throughput(bytes int64) *CompletionEvent {
	if ce.elapsed > 0 {
		bps := float64(bytes) / ce.elapsed.Seconds()
		ce.fields["throughput_bps"] = bps
		if IsPrettyMode() {
			ce.fields["throughput_h"] = humanfmt.Throughput(bytes, ce.elapsed)
		}
	}
	return ce
}

// Log emits the completion event.
func (ce *CompletionEvent) Log(msg string) {
	ce.emit(ce.log.Info(), msg)
}

// LogDebug emits the completion event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	ce.emit(ce.log.Debug(), msg)
}

func (ce *CompletionEvent) emit(e *zerolog.Event, msg string) {
	e = e.Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())

	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}

	for k, v := range ce.fields {
		e = e.Interface(k, v)
	}

	e.Msg(msg)
}

// PhaseComplete logs a phase completion event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "phase_completed", phase, elapsed)
}
