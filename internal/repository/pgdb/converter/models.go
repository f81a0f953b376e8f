package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID            int64      `db:"id"`
	EAN           string     `db:"ean"`
	Name          string     `db:"name"`
	OriginalName  *string    `db:"original_name"`
	Brand         string     `db:"brand"`
	Page          *string    `db:"page"`
	URL           *string    `db:"url"`
	Description   *string    `db:"description"`
	Category      *string    `db:"category"`
	Type          *string    `db:"type"`
	Variety       *string    `db:"variety"`
	ImageFilename *string    `db:"image_filename"`
	Available     bool       `db:"available"`
	Comments      *string    `db:"comments"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   int64      `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
