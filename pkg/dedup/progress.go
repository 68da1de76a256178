// pkg/dedup/progress.go
package dedup

import (
	"github.com/creativeyann17/go-dedup/pkg/godedup"
	"github.com/vbauerster/mpb/v8"
)

// ProgressCallback is called for various progress events
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type         EventType
	FilePath     string
	Current      int64
	Total        int64
	CurrentBytes uint64
	TotalBytes   uint64
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventFileStart
	EventFileProgress
	EventFileComplete
	EventComplete
	EventError
)

// ProgressBarCallback creates a progress callback that displays
// multi-progress bars. Returns the callback function and the progress
// container (call Wait() after the run).
func ProgressBarCallback() (ProgressCallback, *mpb.Progress) {
	genericCb, progress := godedup.ProgressBarCallback()

	callback := func(event ProgressEvent) {
		genericCb(godedup.ProgressEvent{
			Type:         godedup.EventType(event.Type),
			FilePath:     event.FilePath,
			Current:      event.Current,
			Total:        event.Total,
			CurrentBytes: event.CurrentBytes,
			TotalBytes:   event.TotalBytes,
		})
	}

	return callback, progress
}
