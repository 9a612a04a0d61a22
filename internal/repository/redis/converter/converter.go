package converter

import (
	"github.com/momenta-tech/go-backend/internal/domain"
)

// EngagementConverter преобразует engagement-вектор между domain и кэш-моделью.
type EngagementConverter interface {
	ToRedisModel(entity *domain.EngagementVector) *EngagementRedisModel
	ToEntity(model *EngagementRedisModel) *domain.EngagementVector
}

type engagementConverter struct{}

func NewEngagementConverter() EngagementConverter {
	return &engagementConverter{}
}

func (c *engagementConverter) ToRedisModel(entity *domain.EngagementVector) *EngagementRedisModel {
	return &EngagementRedisModel{
		MomentID:     entity.MomentID,
		Vector:       entity.Vector,
		Features:     entity.Features,
		Version:      entity.Version,
		Method:       entity.Method,
		CalculatedAt: entity.CalculatedAt,
	}
}

func (c *engagementConverter) ToEntity(model *EngagementRedisModel) *domain.EngagementVector {
	return &domain.EngagementVector{
		MomentID:     model.MomentID,
		Vector:       model.Vector,
		Features:     model.Features,
		Version:      model.Version,
		Method:       model.Method,
		CalculatedAt: model.CalculatedAt,
	}
}
