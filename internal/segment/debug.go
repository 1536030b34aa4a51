package segment

import (
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// DebugSink receives named intermediate masks and images during a
// segmentation run. Implementations must not retain the Mat past the call;
// it may be reused or closed afterwards. Attaching a sink never changes the
// returned result.
type DebugSink interface {
	Snapshot(stage string, img gocv.Mat)
}

// snap forwards an intermediate to the sink when one is attached.
func snap(sink DebugSink, stage string, img gocv.Mat) {
	if sink != nil {
		sink.Snapshot(stage, img)
	}
}

// LogSink is a DebugSink that records stage names and mask statistics
// through a zerolog logger without touching pixel data beyond a count.
type LogSink struct {
	Log zerolog.Logger
}

// Snapshot implements DebugSink.
func (s LogSink) Snapshot(stage string, img gocv.Mat) {
	ev := s.Log.Debug().
		Str("stage", stage).
		Int("rows", img.Rows()).
		Int("cols", img.Cols())
	if img.Type() == gocv.MatTypeCV8U {
		ev = ev.Int("nonzero", gocv.CountNonZero(img))
	}
	ev.Msg("segmentation snapshot")
}
