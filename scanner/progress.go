package scanner

import (
	"sync"

	"photodedupe/imageprocessor"
	"photodedupe/types"
)

// ProgressTracker counts the events of a run for the final summary.
// It is safe to read while a run is in flight.
type ProgressTracker struct {
	NopConsumer

	mu           sync.Mutex
	processed    int
	errors       int
	rawProcessed int
	rawErrors    int
	groups       int
	discards     int
	last         types.Progress
}

// TrackerStats is a snapshot of a ProgressTracker
type TrackerStats struct {
	Processed    int
	Errors       int
	RawProcessed int
	RawErrors    int
	Groups       int
	Discards     int
	Last         types.Progress
}

// NewProgressTracker initializes the progress tracker
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

func (p *ProgressTracker) OnRecord(record types.ImageRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if imageprocessor.IsRawFormat(record.Path) {
		p.rawProcessed++
	}
}

func (p *ProgressTracker) OnDecodeError(err *imageprocessor.DecodeError) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	p.errors++
	if imageprocessor.IsRawFormat(err.Path) {
		p.rawProcessed++
		p.rawErrors++
	}
}

func (p *ProgressTracker) OnGroup(group types.DuplicateGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.groups++
	p.discards += len(group.Discards())
}

func (p *ProgressTracker) OnProgress(progress types.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = progress
}

// Stats returns the current counters
func (p *ProgressTracker) Stats() TrackerStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return TrackerStats{
		Processed:    p.processed,
		Errors:       p.errors,
		RawProcessed: p.rawProcessed,
		RawErrors:    p.rawErrors,
		Groups:       p.groups,
		Discards:     p.discards,
		Last:         p.last,
	}
}

// Consumers fans every event out to each consumer in order
func Consumers(consumers ...Consumer) Consumer {
	return fanout(consumers)
}

type fanout []Consumer

func (f fanout) OnRecord(record types.ImageRecord) {
	for _, c := range f {
		c.OnRecord(record)
	}
}

func (f fanout) OnDecodeError(err *imageprocessor.DecodeError) {
	for _, c := range f {
		c.OnDecodeError(err)
	}
}

func (f fanout) OnGroup(group types.DuplicateGroup) {
	for _, c := range f {
		c.OnGroup(group)
	}
}

func (f fanout) OnProgress(progress types.Progress) {
	for _, c := range f {
		c.OnProgress(progress)
	}
}

func (f fanout) OnComplete(report Report) {
	for _, c := range f {
		c.OnComplete(report)
	}
}
