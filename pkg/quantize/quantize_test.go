package quantize_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/engram-ai/engram-go/pkg/quantize"
)

func TestQuantizeRoundTrip(t *testing.T) {
	vector := []float64{0.1, -0.5, 0.9, 0.0, 0.42, -0.13}

	q := quantize.Quantize(vector)
	assert.Len(t, q.Data, len(vector))

	restored := quantize.Dequantize(q)
	assert.Len(t, restored, len(vector))

	// Per-dimension error must stay within one quantization step.
	maxErr := (q.ScaleMax - q.ScaleMin) / 255.0
	for i := range vector {
		assert.InDelta(t, vector[i], restored[i], maxErr,
			"dimension %d out of tolerance", i)
	}
}

func TestQuantizeRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		vector := make([]float64, 100)
		for i := range vector {
			vector[i] = rng.Float64()*2 - 1
		}

		q := quantize.Quantize(vector)
		restored := quantize.Dequantize(q)

		maxErr := (q.ScaleMax - q.ScaleMin) / 255.0
		for i := range vector {
			assert.InDelta(t, vector[i], restored[i], maxErr)
		}
	}
}

func TestQuantizeZeroVector(t *testing.T) {
	vector := []float64{0, 0, 0, 0}

	q := quantize.Quantize(vector)
	restored := quantize.Dequantize(q)

	assert.Equal(t, vector, restored, "all-zero vector should round-trip exactly")
}

func TestQuantizeSingleElement(t *testing.T) {
	vector := []float64{0.7}

	q := quantize.Quantize(vector)
	restored := quantize.Dequantize(q)

	assert.Len(t, restored, 1)
	assert.InDelta(t, 0.7, restored[0], 1e-9,
		"single-element vector has zero range and should round-trip exactly")
}

func TestQuantizeConstantVector(t *testing.T) {
	vector := []float64{0.3, 0.3, 0.3}

	q := quantize.Quantize(vector)
	assert.Equal(t, q.ScaleMin, q.ScaleMax)

	restored := quantize.Dequantize(q)
	for i := range vector {
		assert.InDelta(t, vector[i], restored[i], 1e-9)
	}
}

func TestQuantizeEmptyVector(t *testing.T) {
	q := quantize.Quantize(nil)
	assert.Empty(t, q.Data)
	assert.Empty(t, quantize.Dequantize(q))
}

func TestCosineSimilarityQuantized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 10; trial++ {
		a := make([]float64, 100)
		b := make([]float64, 100)
		for i := range a {
			a[i] = rng.Float64()*2 - 1
			b[i] = rng.Float64()*2 - 1
		}

		want := quantize.CosineSimilarity(a, b)
		got := quantize.CosineSimilarityQuantized(quantize.Quantize(a), quantize.Quantize(b))

		assert.InDelta(t, want, got, 0.05,
			"quantized cosine should agree with float cosine")
	}
}

func TestCosineSimilarityQuantizedIdentical(t *testing.T) {
	v := []float64{0.2, 0.4, -0.6, 0.8}
	q := quantize.Quantize(v)

	sim := quantize.CosineSimilarityQuantized(q, q)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarityQuantizedMismatchedLengths(t *testing.T) {
	a := quantize.Quantize([]float64{1, 2, 3})
	b := quantize.Quantize([]float64{1, 2})

	assert.Equal(t, 0.0, quantize.CosineSimilarityQuantized(a, b))
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	assert.Equal(t, 0.0, quantize.CosineSimilarity([]float64{0, 0}, []float64{1, 1}))

	zero := quantize.Quantize([]float64{0, 0})
	other := quantize.Quantize([]float64{1, 2})
	assert.Equal(t, 0.0, quantize.CosineSimilarityQuantized(zero, other))
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	sim := quantize.CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	assert.InDelta(t, 0.0, sim, 1e-9)

	sim = quantize.CosineSimilarity([]float64{1, 0}, []float64{-1, 0})
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCompressionRatio(t *testing.T) {
	assert.Equal(t, 4.0, quantize.CompressionRatio())

	// Sanity check: bytes stored vs float32 bytes.
	v := make([]float64, 256)
	q := quantize.Quantize(v)
	assert.Equal(t, len(v), len(q.Data))
	assert.True(t, math.Abs(float64(len(v)*4)/float64(len(q.Data))-quantize.CompressionRatio()) < 1e-9)
}
