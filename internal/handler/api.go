package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"offer-classifier/internal/artifact"
	"offer-classifier/internal/dataset"
	"offer-classifier/internal/ml"
	"offer-classifier/internal/models"
	"offer-classifier/internal/repository"
	"offer-classifier/internal/service"
)

// SeedStore manages the confirmed-suspicious VIN list and label counts.
type SeedStore interface {
	AddSeedVIN(ctx context.Context, vin string) (bool, error)
	LabelStats(ctx context.Context, mode models.Mode) (*models.LabelStats, error)
}

// LabelJobs starts and reports asynchronous labeling passes.
type LabelJobs interface {
	StartJob(ctx context.Context, mode models.Mode) (string, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
}

// Trainer retrains models for one mode.
type Trainer interface {
	Train(ctx context.Context, mode models.Mode, names []string) (*models.EvaluationReport, error)
}

// Predictor scores offers with trained pipelines.
type Predictor interface {
	Predict(ctx context.Context, summary models.OfferSummary, name string, mode models.Mode) (*models.Prediction, error)
	PredictAll(ctx context.Context, summary models.OfferSummary, mode models.Mode) ([]models.Prediction, error)
}

// ReportStore reads the latest evaluation report of a mode.
type ReportStore interface {
	LoadReport(ctx context.Context, mode models.Mode) (*models.EvaluationReport, error)
}

// DatasetBuilder produces training rows.
type DatasetBuilder interface {
	Build(ctx context.Context, mode models.Mode) ([]models.TrainingRow, error)
}

// Handler handles HTTP requests
type Handler struct {
	seeds     SeedStore
	jobs      LabelJobs
	trainer   Trainer
	predictor Predictor
	reports   ReportStore
	builder   DatasetBuilder
	logger    *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(seeds SeedStore, jobs LabelJobs, trainer Trainer, predictor Predictor, reports ReportStore, builder DatasetBuilder, logger *zap.Logger) *Handler {
	return &Handler{
		seeds:     seeds,
		jobs:      jobs,
		trainer:   trainer,
		predictor: predictor,
		reports:   reports,
		builder:   builder,
		logger:    logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Labeling
		api.POST("/seeds", h.AddSeeds)
		api.POST("/labels/:mode", h.StartLabeling)
		api.GET("/labels/:mode/stats", h.LabelStats)
		api.GET("/jobs/:id", h.GetJobStatus)

		// Training
		api.POST("/train", h.Train)
		api.GET("/reports/:mode", h.GetReport)
		api.GET("/dataset/:mode/export", h.ExportDataset)

		// Prediction
		api.POST("/predict", h.Predict)
		api.POST("/predict/all", h.PredictAll)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// SeedRequest lists manually confirmed suspicious VINs.
type SeedRequest struct {
	VINs []string `json:"vins" binding:"required"`
}

// TrainRequest selects a mode and optionally a subset of models.
type TrainRequest struct {
	Mode   string   `json:"mode" binding:"required"`
	Models []string `json:"models"`
}

// PredictRequest carries one offer to score.
type PredictRequest struct {
	Model string              `json:"model"`
	Mode  string              `json:"mode" binding:"required"`
	Offer models.OfferSummary `json:"offer"`
}

// AddSeeds stores confirmed VINs
func (h *Handler) AddSeeds(c *gin.Context) {
	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added := 0
	for _, vin := range req.VINs {
		vin = strings.TrimSpace(vin)
		if vin == "" {
			continue
		}
		ok, err := h.seeds.AddSeedVIN(c.Request.Context(), vin)
		if err != nil {
			h.logger.Error("Failed to add seed VIN", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add seed VINs"})
			return
		}
		if ok {
			added++
		}
	}

	c.JSON(http.StatusOK, gin.H{"added": added, "received": len(req.VINs)})
}

// StartLabeling starts an async labeling job
func (h *Handler) StartLabeling(c *gin.Context) {
	mode, ok := h.mode(c, c.Param("mode"))
	if !ok {
		return
	}

	jobID, err := h.jobs.StartJob(c.Request.Context(), mode)
	if err != nil {
		h.logger.Error("Failed to start labeling job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start labeling job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  jobID,
		"status":  models.JobPending,
		"message": "Labeling started. Check /api/v1/jobs/" + jobID + " for status",
	})
}

// LabelStats returns label counts for a mode
func (h *Handler) LabelStats(c *gin.Context) {
	mode, ok := h.mode(c, c.Param("mode"))
	if !ok {
		return
	}

	stats, err := h.seeds.LabelStats(c.Request.Context(), mode)
	if err != nil {
		h.logger.Error("Failed to get label stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetJobStatus returns labeling job status
func (h *Handler) GetJobStatus(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// Train retrains and evaluates models synchronously
func (h *Handler) Train(c *gin.Context) {
	var req TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, ok := h.mode(c, req.Mode)
	if !ok {
		return
	}

	report, err := h.trainer.Train(c.Request.Context(), mode, req.Models)
	if errors.Is(err, ml.ErrUnknownModel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Training failed", zap.String("mode", string(mode)), zap.Error(err))
		resp := gin.H{"error": "training failed"}
		var stageErr *service.StageError
		if errors.As(err, &stageErr) {
			resp["model"] = stageErr.Model
			resp["stage"] = stageErr.Stage
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetReport returns the latest evaluation report for a mode
func (h *Handler) GetReport(c *gin.Context) {
	mode, ok := h.mode(c, c.Param("mode"))
	if !ok {
		return
	}

	report, err := h.reports.LoadReport(c.Request.Context(), mode)
	if artifact.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no evaluation report for mode " + string(mode)})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportDataset exports the training rows of a mode to CSV
func (h *Handler) ExportDataset(c *gin.Context) {
	mode, ok := h.mode(c, c.Param("mode"))
	if !ok {
		return
	}

	rows, err := h.builder.Build(c.Request.Context(), mode)
	if err != nil {
		h.logger.Error("Failed to build dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=dataset_"+string(mode)+".csv")
	if err := dataset.WriteCSV(c.Writer, rows); err != nil {
		h.logger.Error("Failed to write CSV", zap.Error(err))
	}
}

// Predict scores one offer with one model
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
		return
	}
	mode, ok := h.mode(c, req.Mode)
	if !ok {
		return
	}

	pred, err := h.predictor.Predict(c.Request.Context(), req.Offer, req.Model, mode)
	if errors.Is(err, service.ErrArtifactNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	c.JSON(http.StatusOK, pred)
}

// PredictAll scores one offer with every trained model
func (h *Handler) PredictAll(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, ok := h.mode(c, req.Mode)
	if !ok {
		return
	}

	preds, err := h.predictor.PredictAll(c.Request.Context(), req.Offer, mode)
	if errors.Is(err, service.ErrArtifactNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": preds,
		"total":       len(preds),
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "offer-classifier",
		"version": "1.0.0",
	})
}

func (h *Handler) mode(c *gin.Context, raw string) (models.Mode, bool) {
	mode, err := models.ParseMode(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return mode, true
}
