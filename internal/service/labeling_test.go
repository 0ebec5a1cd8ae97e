package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"offer-classifier/internal/ml"
	"offer-classifier/internal/models"
	"offer-classifier/internal/normalizer"
	"offer-classifier/internal/repository"
)

type fakeVIN struct {
	err error
}

func (f fakeVIN) Run(context.Context) (*models.LabelRunSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LabelRunSummary{Mode: models.ModeVIN, Offers: 3, Inserted: 3, Suspicious: 1}, nil
}

type fakePropagation struct {
	threshold float64
}

func (f *fakePropagation) Run(_ context.Context, threshold float64) (*models.LabelRunSummary, error) {
	f.threshold = threshold
	return &models.LabelRunSummary{Mode: models.ModeDescription, Offers: 2, Inserted: 2}, nil
}

func newJobStore(t *testing.T) repository.JobRepository {
	db, err := repository.NewSQLiteDB(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewJobRepository(db)
}

func TestLabeling_Run(t *testing.T) {
	prop := &fakePropagation{}
	l := NewLabeling(fakeVIN{}, prop, newJobStore(t), 0.85, zap.NewNop())

	sum, err := l.Run(context.Background(), models.ModeVIN)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Inserted)

	sum, err = l.Run(context.Background(), models.ModeDescription)
	require.NoError(t, err)
	assert.Equal(t, models.ModeDescription, sum.Mode)
	assert.Equal(t, 0.85, prop.threshold)

	_, err = l.Run(context.Background(), models.Mode("price"))
	assert.Error(t, err)
}

func TestLabeling_JobLifecycle(t *testing.T) {
	l := NewLabeling(fakeVIN{}, &fakePropagation{}, newJobStore(t), 0.8, zap.NewNop())
	ctx := context.Background()

	id, err := l.StartJob(ctx, models.ModeVIN)
	require.NoError(t, err)
	l.Wait()

	job, err := l.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, 3, job.Offers)
	assert.Equal(t, 1, job.Suspicious)
	require.NotNil(t, job.CompletedAt)
	assert.WithinDuration(t, time.Now(), *job.CompletedAt, time.Minute)
}

func TestLabeling_FailedJob(t *testing.T) {
	l := NewLabeling(fakeVIN{err: errors.New("offer 7: constraint failed")}, &fakePropagation{}, newJobStore(t), 0.8, zap.NewNop())
	ctx := context.Background()

	id, err := l.StartJob(ctx, models.ModeVIN)
	require.NoError(t, err)
	l.Wait()

	job, err := l.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "offer 7")
}

func TestLabeling_UnknownJobAndMode(t *testing.T) {
	l := NewLabeling(fakeVIN{}, &fakePropagation{}, newJobStore(t), 0.8, zap.NewNop())

	_, err := l.GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)

	_, err = l.StartJob(context.Background(), models.Mode("price"))
	assert.Error(t, err)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(nil, time.Minute, zap.NewNop())
	assert.Error(t, s.Schedule("every tuesday"))
	require.NoError(t, s.Schedule("0 */30 * * * *"))
	require.NoError(t, s.Schedule("@daily"))
	s.Start()
	s.Stop()
}

func TestRefresher_LabelsThenTrains(t *testing.T) {
	saver := newMemorySaver()
	trainer := NewTrainer(normalizer.NewFilePool(""), saver, nil, TrainingConfig{}, zap.NewNop())
	prop := &fakePropagation{}
	labeling := NewLabeling(fakeVIN{}, prop, newJobStore(t), 0.8, zap.NewNop())
	r := NewRefresher(labeling, trainer, rowSource(trainingRows(10)), subset(t, ml.ModelDecisionTree), nil, zap.NewNop())

	reports, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Equal(t, 0.8, prop.threshold)
	assert.Len(t, saver.saved, 2)
}
