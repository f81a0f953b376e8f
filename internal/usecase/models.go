package usecase

import (
	"time"

	"github.com/mercalog/go-backend/internal/domain"
)

// PRODUCT USECASE

// FilterAll — сентинел «без фильтра» для brand/category/available.
const FilterAll = "all"

// ListProductsReq — сырые параметры списка из query string.
type ListProductsReq struct {
	Brand     string
	Category  string
	Search    string
	Available string
	Page      int
	Limit     int
}

// Paginated — пагинация применяется, когда заданы и page, и limit.
func (r *ListProductsReq) Paginated() bool {
	return r.Page > 0 && r.Limit > 0
}

// ListProductsRes — страница каталога с общим количеством строк до пагинации.
type ListProductsRes struct {
	Products   []ProductView
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	Paginated  bool
}

// ProductFilter — нормализованные условия выборки (логическое И).
type ProductFilter struct {
	Brand     *string
	Category  *string
	Available *bool
	Search    string
	Limit     int
	Offset    int
}

// CreateProductReq — поля нового товара; ean, name и brand обязательны.
type CreateProductReq struct {
	EAN           string  `json:"ean"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	OriginalName  *string `json:"original_name"`
	Page          *string `json:"page"`
	URL           *string `json:"url"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	Type          *string `json:"type"`
	Variety       *string `json:"variety"`
	ImageFilename *string `json:"image_filename"`
	Available     *bool   `json:"available"`
	Comments      *string `json:"comments"`
}

// UpdateProductReq — частичное обновление: применяются только ненулевые поля.
type UpdateProductReq struct {
	EAN           *string `json:"ean"`
	Name          *string `json:"name"`
	Brand         *string `json:"brand"`
	OriginalName  *string `json:"original_name"`
	Page          *string `json:"page"`
	URL           *string `json:"url"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	Type          *string `json:"type"`
	Variety       *string `json:"variety"`
	ImageFilename *string `json:"image_filename"`
	Available     *bool   `json:"available"`
	Comments      *string `json:"comments"`
}

// ProductView — представление товара в ответе API,
// дополненное временной ссылкой на изображение.
type ProductView struct {
	ID            int64   `json:"id"`
	EAN           string  `json:"ean"`
	Name          string  `json:"name"`
	OriginalName  *string `json:"original_name"`
	Brand         string  `json:"brand"`
	Page          *string `json:"page"`
	URL           *string `json:"url"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	Type          *string `json:"type"`
	Variety       *string `json:"variety"`
	ImageFilename *string `json:"image_filename"`
	Available     bool    `json:"available"`
	Comments      *string `json:"comments"`
	ImageURL      *string `json:"image_url"`
}

func NewProductView(p *domain.Product) *ProductView {
	return &ProductView{
		ID:            p.ID,
		EAN:           p.EAN,
		Name:          p.Name,
		OriginalName:  p.OriginalName,
		Brand:         p.Brand,
		Page:          p.Page,
		URL:           p.URL,
		Description:   p.Description,
		Category:      p.Category,
		Type:          p.Type,
		Variety:       p.Variety,
		ImageFilename: p.ImageFilename,
		Available:     p.Available,
		Comments:      p.Comments,
	}
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductCreated             OutboxEventType = "product.created"
	ProductUpdated             OutboxEventType = "product.updated"
	ProductDeleted             OutboxEventType = "product.deleted"
	ProductAvailabilityToggled OutboxEventType = "product.availability_changed"
	ProductCommentsUpdated     OutboxEventType = "product.comments_updated"
)

// OutboxEvent — событие изменения товара, ожидающее публикации в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

// MAPPERS

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
