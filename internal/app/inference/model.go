package inference

import (
	"context"
	"time"
)

// Precision selects the numeric mode a backend runs inference in.
type Precision int

const (
	// PrecisionFull is used when no accelerator is available.
	PrecisionFull Precision = iota
	// PrecisionReduced is the half-precision mode used on an accelerator.
	PrecisionReduced
)

func (p Precision) String() string {
	switch p {
	case PrecisionReduced:
		return "reduced"
	case PrecisionFull:
		return "full"
	default:
		return "unknown"
	}
}

// Options are the per-call inference parameters.
type Options struct {
	Precision Precision
	// Language forces the spoken language; empty or "auto" lets the model detect it.
	Language string
}

// Segment is one timed piece of a transcript.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Result is what a model returns for one audio file.
type Result struct {
	Language string
	Text     string
	Segments []Segment
}

// Model is a loaded speech-recognition model.
type Model interface {
	// Name returns the resolved model identifier.
	Name() string
	// Transcribe runs inference on the audio file at path.
	Transcribe(ctx context.Context, path string, opts Options) (*Result, error)
	// Close releases the model.
	Close() error
}

// ConcurrentSafe is implemented by models that accept overlapping
// Transcribe calls.
type ConcurrentSafe interface {
	ConcurrentSafe() bool
}

// IsConcurrentSafe reports whether m may be called from several goroutines at once.
func IsConcurrentSafe(m Model) bool {
	cs, ok := m.(ConcurrentSafe)
	return ok && cs.ConcurrentSafe()
}

// DetectLanguage reports whether opts asks the model to detect the language.
func (o Options) DetectLanguage() bool {
	return o.Language == "" || o.Language == "auto"
}
