package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"offer-classifier/internal/artifact"
	"offer-classifier/internal/ml"
	"offer-classifier/internal/models"
	"offer-classifier/internal/repository"
	"offer-classifier/internal/service"
)

type fakeSeeds struct {
	vins map[string]bool
}

func (f *fakeSeeds) AddSeedVIN(_ context.Context, vin string) (bool, error) {
	if f.vins[vin] {
		return false, nil
	}
	f.vins[vin] = true
	return true, nil
}

func (f *fakeSeeds) LabelStats(_ context.Context, mode models.Mode) (*models.LabelStats, error) {
	return &models.LabelStats{Mode: mode, Total: 10, Suspicious: 3}, nil
}

type fakeJobs struct {
	started []models.Mode
}

func (f *fakeJobs) StartJob(_ context.Context, mode models.Mode) (string, error) {
	f.started = append(f.started, mode)
	return "job-1", nil
}

func (f *fakeJobs) GetJob(_ context.Context, id string) (*models.Job, error) {
	if id != "job-1" {
		return nil, repository.ErrJobNotFound
	}
	return &models.Job{ID: id, Mode: models.ModeVIN, Status: models.JobCompleted}, nil
}

type fakeTrainer struct{}

func (fakeTrainer) Train(_ context.Context, mode models.Mode, names []string) (*models.EvaluationReport, error) {
	for _, n := range names {
		switch n {
		case "broken":
			return nil, &service.StageError{Model: n, Stage: service.StageFit, Err: errors.New("no vocabulary")}
		case ml.ModelKNeighbors:
		default:
			return nil, fmt.Errorf("%w %q", ml.ErrUnknownModel, n)
		}
	}
	return &models.EvaluationReport{
		RunID:   "run-1",
		Mode:    mode,
		Results: map[string]models.EvaluationMetrics{ml.ModelKNeighbors: {Accuracy: 0.9}},
	}, nil
}

type fakePredictor struct{}

func (fakePredictor) Predict(_ context.Context, s models.OfferSummary, name string, mode models.Mode) (*models.Prediction, error) {
	if name != ml.ModelLogisticRegression {
		return nil, fmt.Errorf("%w: %s_%s", service.ErrArtifactNotFound, name, mode)
	}
	return &models.Prediction{Model: name, Mode: mode, Score: 0.75, Kind: models.ScoreProbability, Suspicious: true}, nil
}

func (fakePredictor) PredictAll(_ context.Context, s models.OfferSummary, mode models.Mode) ([]models.Prediction, error) {
	if mode == models.ModeDescription {
		return nil, service.ErrArtifactNotFound
	}
	return []models.Prediction{
		{Model: ml.ModelLinearSVC, Mode: mode, Score: -0.4, Kind: models.ScoreDecision},
		{Model: ml.ModelLogisticRegression, Mode: mode, Score: 0.75, Kind: models.ScoreProbability, Suspicious: true},
	}, nil
}

type fakeReports struct{}

func (fakeReports) LoadReport(_ context.Context, mode models.Mode) (*models.EvaluationReport, error) {
	if mode == models.ModeDescription {
		return nil, artifact.ErrNotFound
	}
	return &models.EvaluationReport{RunID: "run-0", Mode: mode}, nil
}

type fakeBuilder struct{}

func (fakeBuilder) Build(_ context.Context, mode models.Mode) ([]models.TrainingRow, error) {
	return []models.TrainingRow{{OfferID: 1, Text: "Audi A4", IsSuspicious: true}}, nil
}

func setup(t *testing.T) (*gin.Engine, *fakeSeeds, *fakeJobs) {
	gin.SetMode(gin.TestMode)
	seeds := &fakeSeeds{vins: map[string]bool{}}
	jobs := &fakeJobs{}
	h := NewHandler(seeds, jobs, fakeTrainer{}, fakePredictor{}, fakeReports{}, fakeBuilder{}, zap.NewNop())
	r := gin.New()
	h.RegisterRoutes(r)
	return r, seeds, jobs
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthCheck(t *testing.T) {
	r, _, _ := setup(t)
	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddSeeds(t *testing.T) {
	r, seeds, _ := setup(t)

	w := do(r, http.MethodPost, "/api/v1/seeds", SeedRequest{VINs: []string{"WBA1", " WBA1 ", "", "VF1X"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Added    int `json:"added"`
		Received int `json:"received"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Added)
	assert.Equal(t, 4, resp.Received)
	assert.Len(t, seeds.vins, 2)

	w = do(r, http.MethodPost, "/api/v1/seeds", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartLabeling(t *testing.T) {
	r, _, jobs := setup(t)

	w := do(r, http.MethodPost, "/api/v1/labels/description", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []models.Mode{models.ModeDescription}, jobs.started)

	var resp map[string]string
	decode(t, w, &resp)
	assert.Equal(t, "job-1", resp["job_id"])

	w = do(r, http.MethodPost, "/api/v1/labels/price", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJobStatus(t *testing.T) {
	r, _, _ := setup(t)

	w := do(r, http.MethodGet, "/api/v1/jobs/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var job models.Job
	decode(t, w, &job)
	assert.Equal(t, models.JobCompleted, job.Status)

	w = do(r, http.MethodGet, "/api/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLabelStats(t *testing.T) {
	r, _, _ := setup(t)

	w := do(r, http.MethodGet, "/api/v1/labels/vin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.LabelStats
	decode(t, w, &stats)
	assert.Equal(t, models.LabelStats{Mode: models.ModeVIN, Total: 10, Suspicious: 3}, stats)
}

func TestTrain(t *testing.T) {
	r, _, _ := setup(t)

	w := do(r, http.MethodPost, "/api/v1/train", TrainRequest{Mode: "vin", Models: []string{ml.ModelKNeighbors}})
	require.Equal(t, http.StatusOK, w.Code)
	var report models.EvaluationReport
	decode(t, w, &report)
	assert.Equal(t, 0.9, report.Results[ml.ModelKNeighbors].Accuracy)

	w = do(r, http.MethodPost, "/api/v1/train", TrainRequest{Mode: "vin", Models: []string{"svm_rbf"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/train", TrainRequest{Mode: "price"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/train", TrainRequest{Mode: "vin", Models: []string{"broken"}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	decode(t, w, &resp)
	assert.Equal(t, "broken", resp["model"])
	assert.Equal(t, service.StageFit, resp["stage"])
}

func TestGetReport(t *testing.T) {
	r, _, _ := setup(t)

	w := do(r, http.MethodGet, "/api/v1/reports/vin", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/reports/description", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportDataset(t *testing.T) {
	r, _, _ := setup(t)

	w := do(r, http.MethodGet, "/api/v1/dataset/vin/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "offer_id,text,is_suspicious\n1,Audi A4,true\n", w.Body.String())
}

func TestPredict(t *testing.T) {
	r, _, _ := setup(t)
	offer := models.OfferSummary{Title: "Audi A4", Description: "pilne"}

	w := do(r, http.MethodPost, "/api/v1/predict", PredictRequest{Model: ml.ModelLogisticRegression, Mode: "vin", Offer: offer})
	require.Equal(t, http.StatusOK, w.Code)
	var pred models.Prediction
	decode(t, w, &pred)
	assert.Equal(t, 0.75, pred.Score)
	assert.Equal(t, models.ScoreProbability, pred.Kind)

	w = do(r, http.MethodPost, "/api/v1/predict", PredictRequest{Model: ml.ModelRandomForest, Mode: "vin", Offer: offer})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/v1/predict", PredictRequest{Mode: "vin", Offer: offer})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictAll(t *testing.T) {
	r, _, _ := setup(t)

	w := do(r, http.MethodPost, "/api/v1/predict/all", PredictRequest{Mode: "vin"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Predictions []models.Prediction `json:"predictions"`
		Total       int                 `json:"total"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, models.ScoreDecision, resp.Predictions[0].Kind)

	w = do(r, http.MethodPost, "/api/v1/predict/all", PredictRequest{Mode: "description"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
