package scanner

import (
	"time"

	"photodedupe/imageprocessor"
	"photodedupe/types"
)

// Consumer receives the events of a scan run as they happen
type Consumer interface {
	// OnRecord is called for each successfully fingerprinted file, in input order.
	OnRecord(record types.ImageRecord)

	// OnDecodeError is called for each file that was skipped.
	OnDecodeError(err *imageprocessor.DecodeError)

	// OnGroup is called for each duplicate group as soon as it is formed.
	OnGroup(group types.DuplicateGroup)

	// OnProgress is called after every file during extraction and after
	// every leader during clustering.
	OnProgress(progress types.Progress)

	// OnComplete is called once with the final report, also for cancelled runs.
	OnComplete(report Report)
}

// NopConsumer ignores every event. Embed it to implement only some methods.
type NopConsumer struct{}

func (NopConsumer) OnRecord(types.ImageRecord)                {}
func (NopConsumer) OnDecodeError(*imageprocessor.DecodeError) {}
func (NopConsumer) OnGroup(types.DuplicateGroup)              {}
func (NopConsumer) OnProgress(types.Progress)                 {}
func (NopConsumer) OnComplete(Report)                         {}

// Report is the outcome of one scan run
type Report struct {
	RunID string `json:"run_id"`
	Dir   string `json:"dir"`

	// Total is the number of files listed for the run.
	Total int `json:"total"`

	Records  []types.ImageRecord           `json:"-"`
	Result   types.RunResult               `json:"result"`
	Failures []*imageprocessor.DecodeError `json:"-"`
	Elapsed  time.Duration                 `json:"elapsed"`

	// Err is types.ErrEmptyInput when no file could be used, or the
	// context error of a cancelled run.
	Err error `json:"-"`
}

// ScanOptions defines the options for one run
type ScanOptions struct {
	Dir        string
	Extensions []string
}
