package converter

import (
	"github.com/mercalog/go-backend/internal/domain"
	"github.com/mercalog/go-backend/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
	ToArrEntity(models []ProductModel) []domain.Product
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	return &ProductModel{
		ID:            entity.ID,
		EAN:           entity.EAN,
		Name:          entity.Name,
		OriginalName:  entity.OriginalName,
		Brand:         entity.Brand,
		Page:          entity.Page,
		URL:           entity.URL,
		Description:   entity.Description,
		Category:      entity.Category,
		Type:          entity.Type,
		Variety:       entity.Variety,
		ImageFilename: entity.ImageFilename,
		Available:     entity.Available,
		Comments:      entity.Comments,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}

	return &domain.Product{
		ID:            model.ID,
		EAN:           model.EAN,
		Name:          model.Name,
		OriginalName:  model.OriginalName,
		Brand:         model.Brand,
		Page:          model.Page,
		URL:           model.URL,
		Description:   model.Description,
		Category:      model.Category,
		Type:          model.Type,
		Variety:       model.Variety,
		ImageFilename: model.ImageFilename,
		Available:     model.Available,
		Comments:      model.Comments,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToArrEntity(models []ProductModel) []domain.Product {
	result := make([]domain.Product, len(models))
	for i := range models {
		result[i] = *c.ToEntity(&models[i])
	}

	return result
}

type OutboxEventConverterImpl struct{}

func NewOutboxEventConverterImpl() *OutboxEventConverterImpl {
	return &OutboxEventConverterImpl{}
}

func (c *OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}
