package models

import (
	"time"

	"gorm.io/gorm"
)

type CatalogCategory string

// Catalog categories are a fixed enumerated set, one typed table for all of
// them, instead of a per-category dynamic collection.
const (
	CategoryAnimalProducts     CatalogCategory = "animal-products"
	CategoryBioproducts        CatalogCategory = "bioproducts"
	CategoryCropProducts       CatalogCategory = "crop-products"
	CategoryValueAddedProducts CatalogCategory = "value-added-products"
)

func ValidCategory(c CatalogCategory) bool {
	switch c {
	case CategoryAnimalProducts, CategoryBioproducts, CategoryCropProducts, CategoryValueAddedProducts:
		return true
	}
	return false
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Category    CatalogCategory `gorm:"type:VARCHAR(30);index" json:"category"`
	Price       float64         `gorm:"not null" json:"price"` // rupees
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
