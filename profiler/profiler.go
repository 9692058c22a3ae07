// Package profiler - Stage timing for the classification pipeline.
package profiler

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// Profiler tracks how long each pipeline stage takes. It is safe for concurrent use.
type Profiler struct {
	mu        sync.Mutex
	startTime time.Time
	order     []string
	trackers  map[string]*TimeTracker
	now       func() time.Time
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	name      string
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is a snapshot of one tracker.
type OperationStats struct {
	Name  string
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Avg returns the mean duration.
func (s OperationStats) Avg() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// New creates a profiler.
func New() *Profiler {
	return &Profiler{
		startTime: time.Now(),
		trackers:  make(map[string]*TimeTracker),
		now:       time.Now,
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track, e.g. "preprocess".
//
// Returns:
//   - A function to call when the operation completes.
func (p *Profiler) StartOperation(name string) func() {
	if p == nil {
		return func() {}
	}
	start := p.now()
	return func() {
		p.Record(name, p.now().Sub(start))
	}
}

// Record adds one duration to an operation.
func (p *Profiler) Record(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.trackers[name]
	if !exists {
		tracker = &TimeTracker{name: name, minTime: d, maxTime: d}
		p.trackers[name] = tracker
		p.order = append(p.order, name)
	}

	tracker.totalTime += d
	tracker.count++
	if d < tracker.minTime {
		tracker.minTime = d
	}
	if d > tracker.maxTime {
		tracker.maxTime = d
	}
}

// Stats returns the operations in the order they were first recorded.
func (p *Profiler) Stats() []OperationStats {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]OperationStats, 0, len(p.order))
	for _, name := range p.order {
		t := p.trackers[name]
		out = append(out, OperationStats{
			Name:  t.name,
			Count: t.count,
			Total: t.totalTime,
			Min:   t.minTime,
			Max:   t.maxTime,
		})
	}
	return out
}

// Log writes one debug line per operation and a memory summary.
func (p *Profiler) Log(log logrus.FieldLogger) {
	if p == nil {
		return
	}
	for _, s := range p.Stats() {
		log.WithFields(logrus.Fields{
			"op":    s.Name,
			"count": s.Count,
			"avg":   s.Avg().Truncate(time.Microsecond),
			"min":   s.Min.Truncate(time.Microsecond),
			"max":   s.Max.Truncate(time.Microsecond),
		}).Debug("timing")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	log.WithFields(logrus.Fields{
		"uptime":      time.Since(p.startTime).Truncate(time.Millisecond),
		"heap_alloc":  humanize.IBytes(ms.HeapAlloc),
		"total_alloc": humanize.IBytes(ms.TotalAlloc),
		"gc_cycles":   ms.NumGC,
	}).Debug("memory")
}

// Render writes the operation timings as a table.
func (p *Profiler) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Operation", "Count", "Avg", "Min", "Max", "Total"})
	for _, s := range p.Stats() {
		table.Append([]string{
			s.Name,
			fmt.Sprintf("%d", s.Count),
			s.Avg().Truncate(time.Microsecond).String(),
			s.Min.Truncate(time.Microsecond).String(),
			s.Max.Truncate(time.Microsecond).String(),
			s.Total.Truncate(time.Microsecond).String(),
		})
	}
	table.Render()
}
