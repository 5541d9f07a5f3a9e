package transcriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"object-whisper/internal/app/accelerator"
	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/app/inference"
	"object-whisper/internal/app/observability"
	"object-whisper/internal/app/storage"
	"object-whisper/internal/app/util/files"
	"object-whisper/internal/config"
)

// Workflow fetches audio objects and transcribes them with a loaded model.
// It is safe for concurrent use; model calls are serialised unless the model
// is inference.ConcurrentSafe.
type Workflow struct {
	store storage.ObjectStore
	model inference.Model
	accel accelerator.Accelerator
	obs   *observability.Observability

	tempDir  string
	language string
	listener PhaseListener
	metrics  *Metrics

	serialize bool
	modelMu   sync.Mutex
}

// New loads the configured model, connects to the object store and returns a
// ready workflow. The model is closed again if a later step fails.
func New(ctx context.Context, cfg *config.Settings, obs *observability.Observability, opts ...Option) (*Workflow, error) {
	if cfg == nil {
		return nil, apperrors.ErrMissingConfig
	}
	if obs == nil {
		obs = observability.NewNop()
	}

	model, err := inference.Load(ctx, cfg.Model, obs.Logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewMinioStore(storage.MinioConfigFromSettings(cfg.Storage))
	if err != nil {
		model.Close()
		return nil, apperrors.Mark(err, apperrors.ErrStorageClient)
	}

	accel, err := accelerator.New(cfg.Accelerator, obs.Logger)
	if err != nil {
		model.Close()
		return nil, apperrors.Mark(err, apperrors.ErrInvalidConfig)
	}

	base := []Option{WithTempDir(cfg.TempDir), WithLanguage(cfg.Model.Language)}
	return NewWorkflow(store, model, accel, obs, append(base, opts...)...), nil
}

// NewWorkflow assembles a workflow from constructed parts.
func NewWorkflow(store storage.ObjectStore, model inference.Model, accel accelerator.Accelerator, obs *observability.Observability, opts ...Option) *Workflow {
	if accel == nil {
		accel = accelerator.None
	}
	if obs == nil {
		obs = observability.NewNop()
	}
	w := &Workflow{
		store:     store,
		model:     model,
		accel:     accel,
		obs:       obs,
		serialize: !inference.IsConcurrentSafe(model),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Model returns the loaded model.
func (w *Workflow) Model() inference.Model {
	return w.model
}

// Store returns the object store the workflow reads from.
func (w *Workflow) Store() storage.ObjectStore {
	return w.store
}

// Logger returns the workflow's logger.
func (w *Workflow) Logger() *zap.Logger {
	return w.obs.Logger
}

// Close releases the model.
func (w *Workflow) Close() error {
	return w.model.Close()
}

// Transcribe fetches objectKey and returns its language and transcript.
//
// A storage failure is not a Go error: the result carries ErrorLanguage,
// RetrievalFailureText and the cause in Err, and no inference is run. Errors
// from staging or inference are returned after the temp file is removed and,
// when an accelerator was used, its cache released. A panic in the model is
// re-raised after the same cleanup.
func (w *Workflow) Transcribe(ctx context.Context, objectKey string) (result Result, err error) {
	start := time.Now()
	ctx, span, logger := w.obs.StartSpan(ctx, "Transcribe audio",
		attribute.String("object.bucket", w.store.Bucket()),
		attribute.String("object.key", objectKey),
	)
	defer span.End()
	logger = logger.With(zap.String("key", objectKey))

	outcome := OutcomePanic
	defer func() {
		w.metrics.observe(outcome, time.Since(start))
	}()

	data, err := w.fetch(ctx, objectKey)
	if err != nil {
		logger.Error("Could not retrieve object", zap.String("bucket", w.store.Bucket()), zap.Error(err))
		observability.RecordError(span, err)
		outcome = OutcomeRetrievalFailure
		return retrievalFailure(err), nil
	}
	logger.Debug("Object fetched", zap.Int("bytes", len(data)))

	staged, err := w.stage(objectKey, data)
	if err != nil {
		logger.Error("Could not stage audio", zap.Error(err))
		observability.RecordError(span, err)
		outcome = OutcomeStagingFailure
		return Result{}, err
	}

	result, err = w.infer(ctx, objectKey, staged, logger)
	if err != nil {
		logger.Error("Transcription failed", zap.Error(err))
		observability.RecordError(span, err)
		outcome = OutcomeInferenceFailure
		return Result{}, err
	}

	span.SetAttributes(attribute.String("transcript.language", result.Language))
	logger.Info("Transcription finished",
		zap.String("language", result.Language),
		zap.Int("chars", len(result.Text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	outcome = OutcomeSuccess
	return result, nil
}

func (w *Workflow) fetch(ctx context.Context, objectKey string) ([]byte, error) {
	ctx, span, _ := w.obs.StartSpan(ctx, "Get object from store", attribute.String("object.key", objectKey))
	defer span.End()

	w.phaseStarted(objectKey, PhaseFetch)
	data, err := w.store.GetObject(ctx, objectKey)
	w.phaseFinished(objectKey, PhaseFetch, err)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.Mark(err, apperrors.ErrObjectRetrieval)
	}

	span.SetAttributes(attribute.Int("object.size", len(data)))
	return data, nil
}

func (w *Workflow) stage(objectKey string, data []byte) (*files.StagedFile, error) {
	w.phaseStarted(objectKey, PhaseStage)
	staged, err := files.Stage(w.tempDir, data)
	w.phaseFinished(objectKey, PhaseStage, err)
	w.metrics.setStaged(files.StagedCount())
	if err != nil {
		return nil, apperrors.Mark(err, apperrors.ErrStaging)
	}
	return staged, nil
}

// infer owns staged: it is removed exactly once before infer returns or panics.
func (w *Workflow) infer(ctx context.Context, objectKey string, staged *files.StagedFile, logger *zap.Logger) (result Result, err error) {
	accelerated := false
	defer func() {
		r := recover()
		w.cleanup(ctx, objectKey, staged, accelerated, logger)
		if r != nil {
			logger.Error("Model panicked", zap.Any("panic", r))
			panic(r)
		}
	}()

	accelerated = w.accel.Available(ctx)
	opts := inference.Options{Precision: inference.PrecisionFull, Language: w.language}
	if accelerated {
		opts.Precision = inference.PrecisionReduced
	}

	ctx, span, _ := w.obs.StartSpan(ctx, "Run inference",
		attribute.String("model", w.model.Name()),
		attribute.String("precision", opts.Precision.String()),
		attribute.Bool("accelerated", accelerated),
	)
	defer span.End()
	logger.Debug("Running inference", zap.String("path", staged.Path), zap.Stringer("precision", opts.Precision))

	w.phaseStarted(objectKey, PhaseInference)
	out, err := w.runModel(ctx, staged.Path, opts)
	if err == nil && out == nil {
		err = errors.New("model returned no result")
	}
	w.phaseFinished(objectKey, PhaseInference, err)
	if err != nil {
		err = apperrors.Mark(fmt.Errorf("%s: %w", w.model.Name(), err), apperrors.ErrInference)
		observability.RecordError(span, err)
		return Result{}, err
	}

	return Result{Language: out.Language, Text: out.Text}, nil
}

func (w *Workflow) runModel(ctx context.Context, path string, opts inference.Options) (*inference.Result, error) {
	if w.serialize {
		w.modelMu.Lock()
		defer w.modelMu.Unlock()
	}
	return w.model.Transcribe(ctx, path, opts)
}

// cleanup removes the staged file first, then releases the accelerator cache.
// Failures are logged; they do not change the call's result.
func (w *Workflow) cleanup(ctx context.Context, objectKey string, staged *files.StagedFile, accelerated bool, logger *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	ctx, span, _ := w.obs.StartSpan(ctx, "Cleanup", attribute.Bool("accelerated", accelerated))
	defer span.End()
	w.phaseStarted(objectKey, PhaseCleanup)

	var errs []error
	if err := staged.Remove(); err != nil {
		logger.Warn("Failed to remove staged file", zap.String("path", staged.Path), zap.Error(err))
		errs = append(errs, err)
	}
	w.metrics.setStaged(files.StagedCount())

	if accelerated {
		if err := w.accel.ReleaseCache(ctx); err != nil {
			logger.Warn("Failed to release accelerator cache", zap.Error(err))
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	observability.RecordError(span, err)
	w.phaseFinished(objectKey, PhaseCleanup, err)
}

func (w *Workflow) phaseStarted(objectKey string, phase Phase) {
	if w.listener != nil {
		w.listener.PhaseStarted(objectKey, phase)
	}
}

func (w *Workflow) phaseFinished(objectKey string, phase Phase, err error) {
	if w.listener != nil {
		w.listener.PhaseFinished(objectKey, phase, err)
	}
}
