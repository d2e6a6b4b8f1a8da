package mock

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/newsdigest/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator_DefaultIsValid(t *testing.T) {
	gen := NewMockGenerator()
	summary, err := gen.Generate(context.Background(), ai.GenerationRequest{Title: "T", Content: "some body"})
	require.NoError(t, err)
	assert.NoError(t, ai.ValidateSummary(summary))
	assert.Equal(t, 1, gen.CallCount())
}

func TestMockGenerator_ConcurrentCalls(t *testing.T) {
	gen := NewMockGenerator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gen.Generate(context.Background(), ai.GenerationRequest{Title: "x"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, gen.CallCount())
	assert.Len(t, gen.Requests(), 50)
	assert.GreaterOrEqual(t, gen.MaxConcurrent(), 1)

	gen.Reset()
	assert.Equal(t, 0, gen.CallCount())
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	emb := NewMockEmbedder()
	v1, err := emb.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	v2, err := emb.EmbedText(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 384)

	var sum float64
	for _, x := range v1 {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
	assert.Equal(t, []string{"hello", "hello"}, emb.Texts())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	assert.Same(t, p.GetMockGenerator(), p.Generator())
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
