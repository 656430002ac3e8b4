package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page represents a routable content page composed of ordered sections.
// Slug is the URL key and never changes after creation.
type Page struct {
	ID          string `gorm:"primaryKey;size:36"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Title       string `gorm:"not null"`
	Description string
	SortOrder   int `gorm:"default:0"`

	SeoTitle       string
	SeoDescription string
	SeoKeywords    string
	SeoImage       string
	SeoNoindex     bool `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate 在入库前补齐不透明主键
func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
