package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Section is one typed content block belonging to exactly one page.
// Type selects which payload columns are meaningful; it is fixed at
// creation time. SortOrder defines the total order within a page and
// is kept dense (1..n) by the reorder path.
type Section struct {
	ID          string `gorm:"primaryKey;size:36"`
	PageID      string `gorm:"index;not null"`
	Slug        string
	Title       string
	Description string
	Type        string `gorm:"not null;default:text"`
	SortOrder   int    `gorm:"not null;default:0"`
	// 列上不挂 default：gorm 建表时会让零值字段落回列默认值，
	// 显式传入的 false 会被吞掉；默认可见由创建路径负责
	Visible bool
	BG      string `gorm:"column:bg"`

	// 按类型取用的载荷列；text 与 reviews 共用 Content
	Content     string `gorm:"type:text"`
	Headline    string
	Subheadline string
	ButtonText  string
	ButtonLink  string
	BGImage     string `gorm:"column:bg_image"`
	BGBlur      int    `gorm:"column:bg_blur"`
	ImageURL    string
	Caption     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate 在入库前补齐不透明主键
func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
