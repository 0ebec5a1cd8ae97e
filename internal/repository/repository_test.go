package repository

import (
	"context"
	"testing"
	"time"

	"offer-classifier/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func strp(s string) *string { return &s }
func intp(i int64) *int64   { return &i }

func offer(id int64, vin *string) *models.Offer {
	return &models.Offer{
		ID:              id,
		Brand:           "Audi",
		Title:           "Audi A4",
		Description:     "Sprzedam audi",
		VIN:             vin,
		Model:           strp("A4"),
		Price:           intp(45000),
		Mileage:         intp(180000),
		Condition:       strp("used"),
		CountryOfOrigin: strp("Niemcy"),
	}
}

func TestOfferRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewOfferRepository(newTestDB(t), zap.NewNop())

	require.NoError(t, repo.SaveOffer(ctx, offer(2, strp("WAUZZZ8K9BA123456"))))
	require.NoError(t, repo.SaveOffer(ctx, offer(1, nil)))

	dup := offer(1, strp("changed"))
	dup.Title = "changed"
	require.NoError(t, repo.SaveOffer(ctx, dup))

	offers, err := repo.AllOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, int64(1), offers[0].ID)
	assert.Equal(t, "Audi A4", offers[0].Title)
	assert.Nil(t, offers[0].VIN)
	assert.Equal(t, "A4", *offers[0].Model)
	assert.Equal(t, int64(45000), *offers[0].Price)
	assert.Equal(t, "WAUZZZ8K9BA123456", *offers[1].VIN)

	n, err := repo.CountOffers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOfferRepository_NullDetails(t *testing.T) {
	ctx := context.Background()
	repo := NewOfferRepository(newTestDB(t), zap.NewNop())

	o := offer(7, nil)
	o.Price = nil
	o.Condition = nil
	require.NoError(t, repo.SaveOffer(ctx, o))

	offers, err := repo.AllOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].Price)
	assert.Nil(t, offers[0].Condition)
	assert.NotNil(t, offers[0].Mileage)
}

func TestOfferRepository_OffersMatchingVINs(t *testing.T) {
	ctx := context.Background()
	repo := NewOfferRepository(newTestDB(t), zap.NewNop())

	require.NoError(t, repo.SaveOffer(ctx, offer(1, strp("AAA"))))
	require.NoError(t, repo.SaveOffer(ctx, offer(2, strp("BBB"))))
	require.NoError(t, repo.SaveOffer(ctx, offer(3, nil)))

	got, err := repo.OffersMatchingVINs(ctx, []string{"BBB", "ZZZ"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	got, err = repo.OffersMatchingVINs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLabelRepository_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	offers := NewOfferRepository(db, zap.NewNop())
	labels := NewLabelRepository(db, zap.NewNop())
	require.NoError(t, offers.SaveOffer(ctx, offer(1, nil)))

	inserted, err := labels.PutLabel(ctx, &models.SuspiciousLabel{OfferID: 1, Mode: models.ModeVIN, IsSuspicious: true, Source: "missing"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = labels.PutLabel(ctx, &models.SuspiciousLabel{OfferID: 1, Mode: models.ModeVIN, IsSuspicious: false})
	require.NoError(t, err)
	assert.False(t, inserted)

	inserted, err = labels.PutLabel(ctx, &models.SuspiciousLabel{OfferID: 1, Mode: models.ModeDescription, IsSuspicious: false})
	require.NoError(t, err)
	assert.True(t, inserted)

	vin, err := labels.AllLabels(ctx, models.ModeVIN)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true}, vin)

	desc, err := labels.AllLabels(ctx, models.ModeDescription)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: false}, desc)

	stats, err := labels.LabelStats(ctx, models.ModeVIN)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Suspicious)
	assert.Equal(t, models.ModeVIN, stats.Mode)
}

func TestLabelRepository_EmptyStats(t *testing.T) {
	labels := NewLabelRepository(newTestDB(t), zap.NewNop())
	stats, err := labels.LabelStats(context.Background(), models.ModeDescription)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.Suspicious)
}

func TestLabelRepository_SeedVINs(t *testing.T) {
	ctx := context.Background()
	labels := NewLabelRepository(newTestDB(t), zap.NewNop())

	added, err := labels.AddSeedVIN(ctx, "XXXX")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = labels.AddSeedVIN(ctx, "XXXX")
	require.NoError(t, err)
	assert.False(t, added)
	_, err = labels.AddSeedVIN(ctx, "AAAA")
	require.NoError(t, err)

	vins, err := labels.SeedVINs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAA", "XXXX"}, vins)
}

func TestJobRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	jobs := NewJobRepository(newTestDB(t))

	job := &models.Job{ID: "job-1", Mode: models.ModeVIN, Status: models.JobPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, jobs.CreateJob(ctx, job))

	job.Status = models.JobCompleted
	job.Offers = 10
	job.Inserted = 8
	job.Suspicious = 3
	done := time.Now().UTC()
	job.CompletedAt = &done
	require.NoError(t, jobs.UpdateJob(ctx, job))

	got, err := jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
	assert.Equal(t, models.ModeVIN, got.Mode)
	assert.Equal(t, 8, got.Inserted)
	require.NotNil(t, got.CompletedAt)

	_, err = jobs.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, jobs.UpdateJob(ctx, &models.Job{ID: "missing"}), ErrJobNotFound)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open("oracle", "", zap.NewNop())
	assert.Error(t, err)
}
