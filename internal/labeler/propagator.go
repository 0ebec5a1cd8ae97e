package labeler

import (
	"context"
	"fmt"
	"math"
	"time"

	"offer-classifier/internal/embedding"
	"offer-classifier/internal/models"

	"go.uber.org/zap"
)

// DefaultSimilarityThreshold is the cosine similarity an offer must exceed
// to inherit suspicion from a seed.
const DefaultSimilarityThreshold = 0.8

// SourceSimilarity is recorded as the Source of description labels.
const SourceSimilarity = "similarity"

// EmbedObserver receives the time spent encoding. *metrics.Metrics
// satisfies it.
type EmbedObserver interface {
	Embedded(d time.Duration)
}

// Propagator spreads suspicion from manually confirmed seed offers to the
// whole corpus by description similarity.
type Propagator struct {
	offers OfferStore
	labels LabelStore
	model  embedding.Model
	rec    Recorder
	embObs EmbedObserver
	logger *zap.Logger
}

// NewPropagator creates a propagator. rec may be nil.
func NewPropagator(offers OfferStore, labels LabelStore, model embedding.Model, rec Recorder, logger *zap.Logger) *Propagator {
	p := &Propagator{
		offers: offers,
		labels: labels,
		model:  model,
		rec:    recorderOrNop(rec),
		logger: logger,
	}
	if o, ok := rec.(EmbedObserver); ok {
		p.embObs = o
	}
	return p
}

// Run labels every stored offer under the description mode: true when its
// description is more similar than threshold to any seed description.
// Thresholds outside [0,1] are accepted as given.
func (p *Propagator) Run(ctx context.Context, threshold float64) (*models.LabelRunSummary, error) {
	sum, err := p.run(ctx, threshold)
	p.rec.LabelRun(models.ModeDescription, err)
	return sum, err
}

func (p *Propagator) run(ctx context.Context, threshold float64) (*models.LabelRunSummary, error) {
	seedVINs, err := p.labels.SeedVINs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed vins: %w", err)
	}
	seeds, err := p.offers.OffersMatchingVINs(ctx, seedVINs)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed offers: %w", err)
	}
	offers, err := p.offers.AllOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}

	// seeds and corpus go through one call so they share a model version
	texts := make([]string, 0, len(seeds)+len(offers))
	for _, s := range seeds {
		texts = append(texts, s.Description)
	}
	for _, o := range offers {
		texts = append(texts, o.Description)
	}

	var vectors [][]float32
	version := ""
	if len(seeds) > 0 && len(offers) > 0 {
		if p.model == nil {
			return nil, fmt.Errorf("%w: no embedding provider configured", ErrEmbeddingModelUnavailable)
		}
		start := time.Now()
		res, err := p.model.Embed(ctx, texts)
		if err != nil {
			p.logger.Error("Embedding failed, no labels written", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingModelUnavailable, err)
		}
		if len(res.Vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingModelUnavailable, len(res.Vectors), len(texts))
		}
		if p.embObs != nil {
			p.embObs.Embedded(time.Since(start))
		}
		vectors = res.Vectors
		version = res.ModelVersion
	}

	marked := markSimilar(vectors, len(seeds), len(offers), threshold)

	sum := &models.LabelRunSummary{
		Mode:         models.ModeDescription,
		Seeds:        len(seeds),
		ModelVersion: version,
	}
	now := time.Now().UTC()
	for i, o := range offers {
		label := &models.SuspiciousLabel{
			OfferID:      o.ID,
			Mode:         models.ModeDescription,
			IsSuspicious: marked[i],
			Source:       SourceSimilarity,
			ModelVersion: version,
			LabeledAt:    now,
		}
		if err := put(ctx, p.labels, p.rec, sum, label); err != nil {
			p.logger.Error("Description labeling aborted",
				zap.Int64("offer_id", o.ID),
				zap.Int("labeled", sum.Offers),
				zap.Error(err))
			return sum, fmt.Errorf("offer %d: %w", o.ID, err)
		}
	}

	p.logger.Info("Description labeling completed",
		zap.Int("seeds", sum.Seeds),
		zap.Int("offers", sum.Offers),
		zap.Int("inserted", sum.Inserted),
		zap.Int("suspicious", sum.Suspicious),
		zap.Float64("threshold", threshold),
		zap.String("embedding_model", version))

	return sum, nil
}

// markSimilar takes the seed vectors first followed by nCorpus corpus
// vectors and reports, per corpus entry, whether any seed is more similar
// than threshold. Without vectors nothing is marked.
func markSimilar(vectors [][]float32, nSeeds, nCorpus int, threshold float64) []bool {
	marked := make([]bool, nCorpus)
	if len(vectors) != nSeeds+nCorpus {
		return marked
	}
	corpus := vectors[nSeeds:]
	for _, seed := range vectors[:nSeeds] {
		for i, v := range corpus {
			if !marked[i] && cosine(seed, v) > threshold {
				marked[i] = true
			}
		}
	}
	return marked
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
