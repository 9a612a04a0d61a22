package cfg

import (
	"testing"

	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/momenta-tech/go-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWeightConfig_Defaults(t *testing.T) {
	w, err := loadWeightConfig(logger.NewSlogLogger(), "0.6", "0.3", "0.1")
	require.NoError(t, err)

	assert.Equal(t, 0.6, w.Text)
	assert.Equal(t, 0.3, w.Visual)
	assert.Equal(t, 0.1, w.Engagement)
}

// Десятичная проверка не страдает от накопления ошибки float:
// 0.1 + 0.2 + 0.7 в float64 не равно 1, в decimal — равно.
func TestLoadWeightConfig_DecimalExactness(t *testing.T) {
	_, err := loadWeightConfig(logger.NewSlogLogger(), "0.1", "0.2", "0.7")
	assert.NoError(t, err)
}

func TestLoadWeightConfig_SumNotOne(t *testing.T) {
	_, err := loadWeightConfig(logger.NewSlogLogger(), "0.5", "0.3", "0.1")
	assert.ErrorIs(t, err, e.ErrWeightsSum)
}

func TestLoadWeightConfig_OutOfRange(t *testing.T) {
	_, err := loadWeightConfig(logger.NewSlogLogger(), "1.5", "-0.4", "-0.1")
	assert.ErrorIs(t, err, e.ErrWeightsSum)
}

func TestLoadWeightConfig_EnvOverride(t *testing.T) {
	t.Setenv("TEXT_WEIGHT", "0.5")
	t.Setenv("VISUAL_WEIGHT", "0.4")
	t.Setenv("ENGAGEMENT_WEIGHT", "0.1")

	w, err := loadWeightConfig(logger.NewSlogLogger(), "0.6", "0.3", "0.1")
	require.NoError(t, err)
	assert.Equal(t, 0.5, w.Text)
}

func TestLoadWeightConfig_Malformed(t *testing.T) {
	t.Setenv("TEXT_WEIGHT", "half")

	_, err := loadWeightConfig(logger.NewSlogLogger(), "0.6", "0.3", "0.1")
	assert.Error(t, err)
}

func TestLoadEmbeddingCfg_InvalidDispatchTime(t *testing.T) {
	t.Setenv("EMBEDDING_DISPATCH_TIME", "25:00")

	_, err := loadEmbeddingCfg(logger.NewSlogLogger())
	assert.ErrorIs(t, err, e.ErrInvalidDispatch)
}

func TestLoadEmbeddingCfg_UnknownProfile(t *testing.T) {
	t.Setenv("EXTRACTION_PROFILE", "lite")

	_, err := loadEmbeddingCfg(logger.NewSlogLogger())
	assert.Error(t, err)
}
