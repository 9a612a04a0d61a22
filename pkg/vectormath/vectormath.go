// Package vectormath содержит чистую векторную математику для слияния эмбеддингов:
// L2-нормализацию и взвешенную конкатенацию векторов разной размерности.
package vectormath

import (
	"math"

	"github.com/momenta-tech/go-backend/pkg/e"
)

// NormalizeL2 возвращает копию вектора, приведённую к единичной евклидовой норме.
// Нулевой вектор возвращается без изменений, деления на ноль не происходит.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}

	return out
}

// CombineVectors масштабирует каждый вектор его нормированным весом и конкатенирует
// результаты в порядке следования. Это взвешенная конкатенация, а не поэлементное
// смешение: под-векторы имеют разные, не связанные между собой размерности.
// Веса предварительно нормируются так, чтобы их сумма равнялась 1.
func CombineVectors(vectors [][]float32, weights []float64) ([]float32, error) {
	if len(vectors) != len(weights) {
		return nil, e.ErrVectorWeightsLength
	}

	normWeights, err := NormalizeWeights(weights)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, v := range vectors {
		total += len(v)
	}

	out := make([]float32, 0, total)
	for i, v := range vectors {
		w := float32(normWeights[i])
		for _, x := range v {
			out = append(out, x*w)
		}
	}

	return out, nil
}

// NormalizeWeights нормирует список весов так, чтобы их сумма равнялась 1.
// Возвращает e.ErrInvalidWeights, если есть отрицательный вес или сумма равна 0.
func NormalizeWeights(weights []float64) ([]float64, error) {
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return nil, e.ErrInvalidWeights
		}
		sum += w
	}

	if sum == 0 {
		return nil, e.ErrInvalidWeights
	}

	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}

	return out, nil
}

// Norm возвращает евклидову норму вектора.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum)
}
