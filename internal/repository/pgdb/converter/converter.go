package converter

import (
	"encoding/json"

	"github.com/momenta-tech/go-backend/internal/domain"
)

// MomentConverter преобразует сущности Moment между domain и моделью PostgreSQL.
type MomentConverter interface {
	ToModel(entity *domain.Moment) *MomentModel
	ToEntity(model *MomentModel) *domain.Moment
}

// ProcessingStepConverter преобразует шаги обработки между domain и моделью PostgreSQL.
type ProcessingStepConverter interface {
	ToModel(momentID string, entity *domain.ProcessingStep) *ProcessingStepModel
	ToEntity(model *ProcessingStepModel) *domain.ProcessingStep
}

// EmbeddingMetaConverter преобразует метаданные эмбеддинга в модель PostgreSQL.
type EmbeddingMetaConverter interface {
	ToModel(entity *domain.CombinedEmbedding) *EmbeddingMetaModel
}

type momentConverter struct{}

func NewMomentConverter() MomentConverter {
	return &momentConverter{}
}

func (c *momentConverter) ToModel(entity *domain.Moment) *MomentModel {
	return &MomentModel{
		ID:          entity.ID,
		UserID:      entity.UserID,
		Description: entity.Description,
		Hashtags:    entity.Hashtags,
		StorageKey:  entity.StorageKey,
		Width:       entity.Metadata.Width,
		Height:      entity.Metadata.Height,
		Duration:    entity.Metadata.Duration,
		Codec:       entity.Metadata.Codec,
		HasAudio:    entity.Metadata.HasAudio,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

func (c *momentConverter) ToEntity(model *MomentModel) *domain.Moment {
	return &domain.Moment{
		ID:          model.ID,
		UserID:      model.UserID,
		Description: model.Description,
		Hashtags:    model.Hashtags,
		StorageKey:  model.StorageKey,
		Metadata: domain.VideoMetadata{
			Width:    model.Width,
			Height:   model.Height,
			Duration: model.Duration,
			Codec:    model.Codec,
			HasAudio: model.HasAudio,
		},
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

type processingStepConverter struct{}

func NewProcessingStepConverter() ProcessingStepConverter {
	return &processingStepConverter{}
}

func (c *processingStepConverter) ToModel(momentID string, entity *domain.ProcessingStep) *ProcessingStepModel {
	model := &ProcessingStepModel{
		MomentID:    momentID,
		Name:        string(entity.Name),
		Status:      string(entity.Status),
		Progress:    entity.Progress,
		StartedAt:   entity.StartedAt,
		CompletedAt: entity.CompletedAt,
	}

	if entity.Error != "" {
		model.Error = &entity.Error
	}

	return model
}

func (c *processingStepConverter) ToEntity(model *ProcessingStepModel) *domain.ProcessingStep {
	entity := &domain.ProcessingStep{
		Name:        domain.StepName(model.Name),
		Status:      domain.StepStatus(model.Status),
		Progress:    model.Progress,
		StartedAt:   model.StartedAt,
		CompletedAt: model.CompletedAt,
	}

	if model.Error != nil {
		entity.Error = *model.Error
	}

	return entity
}

type embeddingMetaConverter struct{}

func NewEmbeddingMetaConverter() EmbeddingMetaConverter {
	return &embeddingMetaConverter{}
}

func (c *embeddingMetaConverter) ToModel(entity *domain.CombinedEmbedding) *EmbeddingMetaModel {
	components, _ := json.Marshal(EmbeddingComponentsModel{
		Text:          toComponentStatsModel(entity.Components.Text),
		Visual:        toComponentStatsModel(entity.Components.Visual),
		Transcription: toComponentStatsModel(entity.Components.Transcription),
	})

	return &EmbeddingMetaModel{
		MomentID:     entity.MomentID,
		Dimension:    entity.Dimension,
		Fallback:     entity.Fallback,
		Components:   components,
		ModelVersion: entity.ModelVersion,
		GeneratedAt:  entity.GeneratedAt,
	}
}

func toComponentStatsModel(stats *domain.ComponentStats) *ComponentStatsModel {
	if stats == nil {
		return nil
	}

	return &ComponentStatsModel{
		Dimension:        stats.Dimension,
		Confidence:       stats.Confidence,
		ProcessingTimeMs: stats.ProcessingTimeMs,
	}
}
