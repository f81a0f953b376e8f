package domain

import "time"

// Product описывает товар каталога.
// EAN уникален на всём каталоге и служит естественным ключом.
type Product struct {
	ID            int64
	EAN           string
	Name          string
	OriginalName  *string
	Brand         string
	Page          *string
	URL           *string
	Description   *string
	Category      *string
	Type          *string
	Variety       *string
	ImageFilename *string
	Available     bool
	Comments      *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func NewProduct(ean, name, brand string) *Product {
	return &Product{
		EAN:       ean,
		Name:      name,
		Brand:     brand,
		Available: true,
	}
}
