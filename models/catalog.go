package models

import "time"

// Plant, Disease and Pest are the read-only reference catalog served to the
// app alongside the product listings.

type Plant struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Season      string    `json:"season"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}

type Disease struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Crop      string    `json:"crop"`
	Symptoms  string    `json:"symptoms"`
	Treatment string    `json:"treatment"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

type Pest struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Crop      string    `json:"crop"`
	Damage    string    `json:"damage"`
	Control   string    `json:"control"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}
