package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mistial-dev/FaceOFFx-sub000/internal/models"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/queue"
	"github.com/mistial-dev/FaceOFFx-sub000/internal/storage"
	"github.com/mistial-dev/FaceOFFx-sub000/pkg/dto"
)

const defaultPreset = "piv_balanced"

type CredentialHandler struct {
	db       *storage.PostgresStore
	minio    *storage.MinIOStore
	producer *queue.Producer
}

func NewCredentialHandler(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer) *CredentialHandler {
	return &CredentialHandler{db: db, minio: minio, producer: producer}
}

// Create accepts a multipart photo upload plus an optional preset/options
// form field, stores the source photo in MinIO, enqueues a CredentialJob,
// and returns immediately with the queued job's id.
func (h *CredentialHandler) Create(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	defer file.Close()

	photoData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read photo failed"})
		return
	}

	preset := c.PostForm("preset")
	if preset == "" {
		preset = defaultPreset
	}
	var options json.RawMessage
	if optStr := c.PostForm("options"); optStr != "" {
		options = json.RawMessage(optStr)
	}

	sourceKey := storage.SourcePhotoKey(uuid.New(), header.Filename)
	if err := h.minio.PutSourcePhoto(c.Request.Context(), sourceKey, photoData, header.Header.Get("Content-Type")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store photo failed"})
		return
	}

	job, err := h.enqueue(c, sourceKey, preset, options)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, jobToResponse(job))
}

// Batch enqueues one job per entry, each referencing a photo already
// uploaded under SourcePhotoKey.
func (h *CredentialHandler) Batch(c *gin.Context) {
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := dto.CreateBatchResponse{Jobs: make([]dto.JobResponse, 0, len(req.Jobs))}
	for _, item := range req.Jobs {
		preset := item.Preset
		if preset == "" {
			preset = defaultPreset
		}
		job, err := h.enqueue(c, item.SourcePhotoKey, preset, item.Options)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp.Jobs = append(resp.Jobs, jobToResponse(job))
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *CredentialHandler) enqueue(c *gin.Context, sourcePhotoKey, preset string, options json.RawMessage) (*models.CredentialJob, error) {
	job, err := h.db.CreateJob(c.Request.Context(), sourcePhotoKey, preset, options)
	if err != nil {
		return nil, err
	}

	task := models.JobTask{JobID: job.ID, SourcePhotoKey: sourcePhotoKey, Preset: preset}
	if err := h.producer.PublishJob(c.Request.Context(), job.ID.String(), task); err != nil {
		_ = h.db.UpdateJobStatus(c.Request.Context(), job.ID, models.JobStatusFailed, "", "failed to enqueue: "+err.Error())
		return nil, err
	}

	return job, nil
}

func (h *CredentialHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.db.GetJob(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, jobToResponse(job))
}

func (h *CredentialHandler) List(c *gin.Context) {
	var status *models.JobStatus
	if s := c.Query("status"); s != "" {
		st := models.JobStatus(s)
		status = &st
	}

	limit := 50
	offset := 0
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	if o := c.Query("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			offset = n
		}
	}

	jobs, total, err := h.db.ListJobs(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		resp = append(resp, jobToResponse(&jobs[i]))
	}

	c.JSON(http.StatusOK, dto.JobListResponse{Jobs: resp, Total: total})
}

// Image streams the completed credential image's JPEG 2000 bytes.
func (h *CredentialHandler) Image(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.db.GetJob(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if job.Status != models.JobStatusCompleted || job.ResultKey == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "job has no completed image yet"})
		return
	}

	data, err := h.minio.GetCredentialImage(c.Request.Context(), job.ResultKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	c.Data(http.StatusOK, "image/jp2", data)
}

// Delete removes a job row along with its stored photo and credential
// image. Jobs still processing cannot be deleted; their worker would
// re-create state the caller just removed.
func (h *CredentialHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.db.GetJob(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if job.Status == models.JobStatusProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "job is processing; retry after it finishes"})
		return
	}

	if err := h.minio.DeleteJobArtifacts(c.Request.Context(), job.SourcePhotoKey, job.ResultKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.DeleteJob(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// ROI would return a debug overlay rendering the ROI priority regions and
// final compliance geometry over the credential image. That rendering is
// owned by an external visualisation tool and is not implemented by this
// service.
func (h *CredentialHandler) ROI(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "roi overlay rendering is provided by a separate collaborator, not this service"})
}

func jobToResponse(job *models.CredentialJob) dto.JobResponse {
	return dto.JobResponse{
		ID:             job.ID,
		SourcePhotoKey: job.SourcePhotoKey,
		Preset:         job.Preset,
		Status:         string(job.Status),
		ResultKey:      job.ResultKey,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      job.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
