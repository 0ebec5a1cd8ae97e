package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubModel struct {
	name  string
	err   error
	calls int
}

func (s *stubModel) Embed(_ context.Context, texts []string) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, float32(i)}
	}
	return &Result{Vectors: vecs, ModelVersion: s.name}, nil
}

func (s *stubModel) Close() error { return nil }

func (s *stubModel) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{"model": s.name}
}

func TestMultiProvider_UsesCurrentProvider(t *testing.T) {
	a := &stubModel{name: "a"}
	b := &stubModel{name: "b"}
	mp := NewMultiProvider([]Model{a, b}, 3, zap.NewNop())

	res, err := mp.Embed(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.ModelVersion)
	assert.Len(t, res.Vectors, 2)
	assert.Equal(t, 0, b.calls)
}

func TestMultiProvider_SwitchesOnRateLimit(t *testing.T) {
	a := &stubModel{name: "a", err: errors.New("status 429: quota exceeded")}
	b := &stubModel{name: "b"}
	mp := NewMultiProvider([]Model{a, b}, 3, zap.NewNop())

	res, err := mp.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.ModelVersion)

	// stays on b afterwards
	res, err = mp.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.ModelVersion)
	assert.Equal(t, 1, a.calls)
}

func TestMultiProvider_SwitchesAfterMaxFailures(t *testing.T) {
	a := &stubModel{name: "a", err: errors.New("boom")}
	b := &stubModel{name: "b"}
	mp := NewMultiProvider([]Model{a, b}, 1, zap.NewNop())

	res, err := mp.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.ModelVersion)
}

func TestMultiProvider_AllFail(t *testing.T) {
	a := &stubModel{name: "a", err: errors.New("boom")}
	mp := NewMultiProvider([]Model{a}, 3, zap.NewNop())

	_, err := mp.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
}

func TestMultiProvider_RecoversFailureCountOnSuccess(t *testing.T) {
	a := &stubModel{name: "a", err: errors.New("boom")}
	b := &stubModel{name: "b"}
	mp := NewMultiProvider([]Model{a, b}, 2, zap.NewNop())

	// one failure is below the limit: the call falls through to b but a stays active
	res, err := mp.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.ModelVersion)

	a.err = nil
	res, err = mp.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.ModelVersion)
}

func TestNewMultiProviderFromConfig_NoProviders(t *testing.T) {
	_, err := NewMultiProviderFromConfig(MultiProviderConfig{
		Providers: []ProviderConfig{{Type: "unknown"}, {Type: ProviderOpenAI}},
	}, zap.NewNop())
	assert.Error(t, err)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("HTTP 429")))
	assert.True(t, isRateLimitError(errors.New("Rate limit reached")))
	assert.False(t, isRateLimitError(errors.New("connection refused")))
	assert.False(t, isRateLimitError(nil))
}
