// Package quantize provides lossy 8-bit compression of embedding vectors.
//
// Embeddings are stored as one byte per dimension using per-vector min-max
// linear quantization, reducing the memory footprint by roughly 75% compared
// to float32 storage (and more compared to float64) while preserving enough
// precision for similarity ranking.
package quantize

import "math"

// QuantizedVector is an 8-bit quantized embedding.
//
// Each dimension is mapped onto a byte via the affine transform
//
//	byte[i] = round((v[i] - ScaleMin) / (ScaleMax - ScaleMin) * 255)
//
// ScaleMin and ScaleMax record the original value range so the transform
// can be inverted by Dequantize.
type QuantizedVector struct {
	// Data holds one byte per vector dimension.
	Data []byte `json:"data"`

	// ScaleMin is the minimum value of the original vector.
	ScaleMin float64 `json:"scale_min"`

	// ScaleMax is the maximum value of the original vector.
	ScaleMax float64 `json:"scale_max"`
}

// midpointByte is used when a vector has zero range (max == min),
// avoiding division by zero while keeping the round trip exact.
const midpointByte = 128

// Quantize compresses a float vector to 8 bits per dimension.
//
// The quantization is per-vector min-max linear scaling. A vector whose
// values are all equal (including the all-zero vector) maps every dimension
// to the midpoint byte and round-trips exactly via ScaleMin == ScaleMax.
//
// An empty input yields an empty QuantizedVector.
func Quantize(vector []float64) QuantizedVector {
	q := QuantizedVector{Data: make([]byte, len(vector))}
	if len(vector) == 0 {
		return q
	}

	min, max := vector[0], vector[0]
	for _, v := range vector[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	q.ScaleMin = min
	q.ScaleMax = max

	if max == min {
		for i := range q.Data {
			q.Data[i] = midpointByte
		}
		return q
	}

	scale := 255.0 / (max - min)
	for i, v := range vector {
		q.Data[i] = byte(math.Round((v - min) * scale))
	}

	return q
}

// Dequantize reconstructs an approximate float vector from its quantized form.
//
// The reconstruction error is bounded by (ScaleMax-ScaleMin)/255 per
// dimension, half of one quantization step on either side of the original.
func Dequantize(q QuantizedVector) []float64 {
	vector := make([]float64, len(q.Data))
	if len(q.Data) == 0 {
		return vector
	}

	if q.ScaleMax == q.ScaleMin {
		for i := range vector {
			vector[i] = q.ScaleMin
		}
		return vector
	}

	scale := (q.ScaleMax - q.ScaleMin) / 255.0
	for i, b := range q.Data {
		vector[i] = q.ScaleMin + float64(b)*scale
	}

	return vector
}

// CosineSimilarityQuantized computes the cosine similarity of two quantized
// vectors directly over their byte representations.
//
// Each byte is mapped back to its approximate float value on the fly, so no
// intermediate float slices are allocated. The result agrees with the cosine
// similarity of the original float vectors within roughly 0.05 for typical
// embedding ranges.
//
// Vectors of different lengths, empty vectors, and zero-norm vectors all
// yield 0.
func CosineSimilarityQuantized(a, b QuantizedVector) float64 {
	if len(a.Data) != len(b.Data) || len(a.Data) == 0 {
		return 0
	}

	scaleA := (a.ScaleMax - a.ScaleMin) / 255.0
	scaleB := (b.ScaleMax - b.ScaleMin) / 255.0

	var dot, normA, normB float64
	for i := range a.Data {
		va := a.ScaleMin + float64(a.Data[i])*scaleA
		vb := b.ScaleMin + float64(b.Data[i])*scaleB
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineSimilarity computes the cosine similarity of two float vectors.
//
// Mismatched lengths and zero-norm inputs yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CompressionRatio returns the storage reduction achieved by quantization,
// assuming float32 source embeddings (4 bytes per dimension down to 1).
func CompressionRatio() float64 {
	return 4.0
}
