// Package pivworker wires pkg/piv's ImageProcessor into the service
// layer: it loads source photos from MinIO, runs them through the
// processing pipeline, and persists results to MinIO/Postgres with a
// completion event on NATS, one credential job at a time.
package pivworker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/config"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/models"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/observability"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/queue"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/storage"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/piv/vision"
)

// Pipeline owns the long-lived ONNX sessions behind piv.ImageProcessor
// and the storage/queue handles needed to turn a JobTask into a stored
// credential image plus a published completion event.
type Pipeline struct {
	processor *piv.ImageProcessor
	detector  *vision.Detector
	landmarks *vision.LandmarkExtractor
	presets   map[string]piv.ProcessingOptions
	db        *storage.PostgresStore
	minio     *storage.MinIOStore
	producer  *queue.Producer
}

// NewPipeline loads the RetinaFace detector and PFLD landmark models and
// returns a ready pipeline.
func NewPipeline(cfg config.PivConfig, db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer) (*Pipeline, error) {
	newSessionOptions := func() (*ort.SessionOptions, error) {
		opts, err := ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("create session options: %w", err)
		}
		return opts, nil
	}

	detPath := cfg.DetectorModelPath
	if detPath == "" {
		detPath = filepath.Join("models", "retinaface.onnx")
	}
	lmPath := cfg.LandmarkModelPath
	if lmPath == "" {
		lmPath = filepath.Join("models", "pfld.onnx")
	}

	slog.Info("loading face detection model", "path", detPath)
	detOpts, err := newSessionOptions()
	if err != nil {
		return nil, err
	}
	det, err := vision.NewDetector(detPath, detOpts)
	detOpts.Destroy()
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading landmark model", "path", lmPath)
	lmOpts, err := newSessionOptions()
	if err != nil {
		det.Close()
		return nil, err
	}
	lm, err := vision.NewLandmarkExtractor(lmPath, lmOpts)
	lmOpts.Destroy()
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load landmark extractor: %w", err)
	}

	slog.Info("piv pipeline ready")

	return &Pipeline{
		processor: piv.NewImageProcessor(det, lm),
		detector:  det,
		landmarks: lm,
		presets: map[string]piv.ProcessingOptions{
			"default":      piv.DefaultOptions(),
			"piv_balanced": piv.PivBalanced(),
			"twic_max":     piv.TwicMax(),
			"archival":     piv.Archival(),
			"preview":      piv.Preview(),
		},
		db:       db,
		minio:    minio,
		producer: producer,
	}, nil
}

// ProcessJob loads a job's source photo, runs it through the full
// ProcessingOptions pipeline, stores the result, and publishes a
// completion event. Errors update the job row to JobStatusFailed rather
// than propagate, except for failures to even read the job row itself.
func (p *Pipeline) ProcessJob(ctx context.Context, task models.JobTask) error {
	job, err := p.db.GetJob(ctx, task.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", task.JobID, err)
	}
	if job == nil {
		slog.Warn("job not found, dropping task", "job_id", task.JobID)
		return nil
	}

	if err := p.db.UpdateJobStatus(ctx, task.JobID, models.JobStatusProcessing, "", ""); err != nil {
		slog.Warn("mark job processing", "error", err)
	}

	opts, err := p.resolveOptions(job.Preset, job.Options)
	if err != nil {
		return p.fail(ctx, task.JobID, fmt.Sprintf("invalid options: %v", err))
	}

	photoData, err := p.minio.GetSourcePhoto(ctx, task.SourcePhotoKey)
	if err != nil {
		return p.fail(ctx, task.JobID, fmt.Sprintf("load source photo: %v", err))
	}

	start := time.Now()
	result, procErr := p.processor.Process(ctx, photoData, opts)
	observability.StageDuration.WithLabelValues("process").Observe(time.Since(start).Seconds())
	if procErr != nil {
		return p.fail(ctx, task.JobID, procErr.Error())
	}

	observability.OutputBytes.Observe(float64(len(result.Bytes)))
	if result.TargetBytes != nil {
		observability.CompressionAttempts.Observe(float64(result.EncodeAttempts))
	}

	resultKey, err := p.minio.PutCredentialImage(ctx, task.JobID, result.Bytes)
	if err != nil {
		return p.fail(ctx, task.JobID, fmt.Sprintf("store result: %v", err))
	}

	if err := p.db.UpdateJobStatus(ctx, task.JobID, models.JobStatusCompleted, resultKey, ""); err != nil {
		slog.Error("mark job completed", "error", err)
	}

	cr := &models.CredentialResult{
		JobID:                 task.JobID,
		ResultKey:             resultKey,
		MIMEType:              result.MIMEType,
		Width:                 result.Dimensions.Width,
		Height:                result.Dimensions.Height,
		AppliedRotation:       result.AppliedRotation,
		PrimaryFaceConfidence: result.PrimaryFaceConfidence,
		ActualRate:            result.ActualRate,
		ActualSizeBytes:       len(result.Bytes),
		ComplianceSeverity:    string(result.ComplianceReport.Severity),
		Warnings:              result.Warnings,
	}
	if err := p.db.CreateResult(ctx, cr); err != nil {
		slog.Error("store result row", "error", err)
	}

	observability.JobsProcessed.WithLabelValues("completed").Inc()

	event := models.JobCompletionEvent{
		JobID:     task.JobID,
		Status:    models.JobStatusCompleted,
		ResultKey: resultKey,
		Timestamp: time.Now(),
	}
	if err := p.producer.PublishEvent(ctx, task.JobID.String(), event); err != nil {
		slog.Error("publish completion event", "error", err, "job_id", task.JobID)
	}

	return nil
}

// fail marks a job as failed, publishes a completion event carrying the
// error, and returns nil: a failed job is a handled outcome, not a
// reason for the queue consumer to redeliver the task.
func (p *Pipeline) fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	if err := p.db.UpdateJobStatus(ctx, jobID, models.JobStatusFailed, "", reason); err != nil {
		slog.Error("mark job failed", "error", err, "job_id", jobID)
	}

	observability.JobsProcessed.WithLabelValues("failed").Inc()

	event := models.JobCompletionEvent{
		JobID:        jobID,
		Status:       models.JobStatusFailed,
		ErrorMessage: reason,
		Timestamp:    time.Now(),
	}
	if err := p.producer.PublishEvent(ctx, jobID.String(), event); err != nil {
		slog.Error("publish failure event", "error", err, "job_id", jobID)
	}

	return nil
}

// resolveOptions starts from the named preset (falling back to
// DefaultOptions for an unrecognised or empty name) and, when overrides
// carries a non-empty JSON object, unmarshals it over the preset's
// fields so a caller can tweak a single field without restating the
// whole preset.
func (p *Pipeline) resolveOptions(presetName string, overrides json.RawMessage) (piv.ProcessingOptions, error) {
	opts, ok := p.presets[presetName]
	if !ok {
		opts = piv.DefaultOptions()
	}

	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &opts); err != nil {
			return piv.ProcessingOptions{}, err
		}
	}

	if err := opts.Validate(); err != nil {
		return piv.ProcessingOptions{}, err
	}
	return opts, nil
}

// Close releases both ONNX sessions.
func (p *Pipeline) Close() {
	if p.detector != nil {
		p.detector.Close()
	}
	if p.landmarks != nil {
		p.landmarks.Close()
	}
}
