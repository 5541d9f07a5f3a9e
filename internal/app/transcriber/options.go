package transcriber

// Phase names a step of a transcription.
type Phase string

const (
	PhaseFetch     Phase = "fetch"
	PhaseStage     Phase = "stage"
	PhaseInference Phase = "inference"
	PhaseCleanup   Phase = "cleanup"
)

// PhaseListener is notified as a transcription moves through its phases.
// Calls are made synchronously from the transcribing goroutine.
type PhaseListener interface {
	PhaseStarted(objectKey string, phase Phase)
	PhaseFinished(objectKey string, phase Phase, err error)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithTempDir stages audio files in dir instead of the OS temp dir.
func WithTempDir(dir string) Option {
	return func(w *Workflow) {
		w.tempDir = dir
	}
}

// WithLanguage forces the spoken language passed to the model; "auto" detects it.
func WithLanguage(lang string) Option {
	return func(w *Workflow) {
		w.language = lang
	}
}

// WithPhaseListener registers l for phase callbacks.
func WithPhaseListener(l PhaseListener) Option {
	return func(w *Workflow) {
		w.listener = l
	}
}

// WithMetrics records call outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}
