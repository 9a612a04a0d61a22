package vectormath

import (
	"testing"

	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-5

func TestNormalizeL2_UnitNorm(t *testing.T) {
	vectors := [][]float32{
		{3, 4, 0},
		{1},
		{0.001, -0.002, 0.003},
		{-5, 12},
	}

	for _, v := range vectors {
		got := NormalizeL2(v)
		assert.InDelta(t, 1.0, Norm(got), tolerance)
	}
}

func TestNormalizeL2_KnownValues(t *testing.T) {
	got := NormalizeL2([]float32{3, 4, 0})

	require.Len(t, got, 3)
	assert.InDelta(t, 0.6, got[0], tolerance)
	assert.InDelta(t, 0.8, got[1], tolerance)
	assert.InDelta(t, 0.0, got[2], tolerance)
}

func TestNormalizeL2_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}

	got := NormalizeL2(v)

	assert.Equal(t, v, got)
}

func TestNormalizeL2_DoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}

	_ = NormalizeL2(v)

	assert.Equal(t, []float32{3, 4}, v)
}

func TestNormalizeWeights_SumToOne(t *testing.T) {
	cases := [][]float64{
		{0.6, 0.4},
		{0.6},
		{1, 2, 3},
		{0.3, 0, 0.1},
	}

	for _, weights := range cases {
		got, err := NormalizeWeights(weights)
		require.NoError(t, err)

		var sum float64
		for _, w := range got {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, tolerance)
	}
}

func TestNormalizeWeights_Invalid(t *testing.T) {
	_, err := NormalizeWeights([]float64{0, 0})
	assert.ErrorIs(t, err, e.ErrInvalidWeights)

	_, err = NormalizeWeights([]float64{0.5, -0.1})
	assert.ErrorIs(t, err, e.ErrInvalidWeights)
}

func TestCombineVectors_Concatenation(t *testing.T) {
	text := make([]float32, 384)
	visual := make([]float32, 512)
	for i := range text {
		text[i] = 1
	}
	for i := range visual {
		visual[i] = 1
	}

	got, err := CombineVectors([][]float32{text, visual}, []float64{0.6, 0.4})
	require.NoError(t, err)

	// Размерность результата — сумма размерностей входов
	require.Len(t, got, 896)

	// После внешней L2-нормализации норма равна 1
	assert.InDelta(t, 1.0, Norm(NormalizeL2(got)), tolerance)

	// Каждый под-вектор масштабирован своим весом
	assert.InDelta(t, 0.6, got[0], tolerance)
	assert.InDelta(t, 0.4, got[384], tolerance)
}

func TestCombineVectors_SingleVectorGetsFullWeight(t *testing.T) {
	got, err := CombineVectors([][]float32{{2, 0}}, []float64{0.6})
	require.NoError(t, err)

	// Единственный выживший вес нормируется к 1
	assert.InDelta(t, 2.0, got[0], tolerance)
}

func TestCombineVectors_LengthMismatch(t *testing.T) {
	_, err := CombineVectors([][]float32{{1}}, []float64{0.5, 0.5})

	assert.ErrorIs(t, err, e.ErrVectorWeightsLength)
}
