package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/chastitela/meta-lv/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound     = errors.New("page not found")
	ErrPageSlugMissing  = errors.New("page slug is required")
	ErrPageTitleMissing = errors.New("page title is required")
	ErrPageSlugTaken    = errors.New("page slug already exists")
	ErrPageSlugInvalid  = errors.New("page slug contains invalid characters")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PageService provides CRUD over pages. It is the only writer of
// authoritative page state.
type PageService struct {
	db *gorm.DB
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// PageInput carries fields accepted when creating a page.
type PageInput struct {
	Slug        string
	Title       string
	Description string
}

// PageUpdateInput carries the partial fields accepted when updating a
// page. Nil fields are left untouched. Slug is absent on purpose: it
// is immutable after creation so public routes stay stable.
type PageUpdateInput struct {
	Title          *string
	Description    *string
	SortOrder      *int
	SeoTitle       *string
	SeoDescription *string
	SeoKeywords    *string
	SeoImage       *string
	SeoNoindex     *bool
}

// List returns all pages in ascending sort order.
func (s *PageService) List() ([]db.Page, error) {
	var pages []db.Page
	if err := s.db.Order("sort_order asc").Order("created_at asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// GetBySlug fetches a page for a given slug.
func (s *PageService) GetBySlug(slug string) (*db.Page, error) {
	var page db.Page
	if err := s.db.Where("slug = ?", slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Get fetches a page by id.
func (s *PageService) Get(id string) (*db.Page, error) {
	var page db.Page
	if err := s.db.Where("id = ?", id).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Create inserts a new page at the end of the page order.
func (s *PageService) Create(input PageInput) (*db.Page, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	title := strings.TrimSpace(input.Title)
	if slug == "" {
		return nil, ErrPageSlugMissing
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrPageSlugInvalid
	}
	if title == "" {
		return nil, ErrPageTitleMissing
	}

	var count int64
	if err := s.db.Model(&db.Page{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrPageSlugTaken
	}

	order, err := s.nextSortOrder()
	if err != nil {
		return nil, err
	}

	page := db.Page{
		Slug:        slug,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		SortOrder:   order,
	}
	if err := s.db.Create(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// Update applies the non-nil fields of input to an existing page.
func (s *PageService) Update(id string, input PageUpdateInput) (*db.Page, error) {
	page, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrPageTitleMissing
		}
		page.Title = title
	}
	if input.Description != nil {
		page.Description = strings.TrimSpace(*input.Description)
	}
	if input.SortOrder != nil {
		page.SortOrder = *input.SortOrder
	}
	if input.SeoTitle != nil {
		page.SeoTitle = strings.TrimSpace(*input.SeoTitle)
	}
	if input.SeoDescription != nil {
		page.SeoDescription = strings.TrimSpace(*input.SeoDescription)
	}
	if input.SeoKeywords != nil {
		page.SeoKeywords = strings.TrimSpace(*input.SeoKeywords)
	}
	if input.SeoImage != nil {
		page.SeoImage = strings.TrimSpace(*input.SeoImage)
	}
	if input.SeoNoindex != nil {
		page.SeoNoindex = *input.SeoNoindex
	}

	if err := s.db.Save(page).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// Delete removes a page together with all of its sections and returns
// the ids of the removed sections so the caller can drop any pending
// draft entries for them. The caller must have obtained explicit
// confirmation before invoking this.
func (s *PageService) Delete(id string) ([]string, error) {
	page, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var sections []db.Section
	if err := s.db.Where("page_id = ?", page.ID).Find(&sections).Error; err != nil {
		return nil, err
	}
	removed := make([]string, 0, len(sections))
	for _, sec := range sections {
		removed = append(removed, sec.ID)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", page.ID).Delete(&db.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(page).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *PageService) nextSortOrder() (int, error) {
	var maxOrder int
	if err := s.db.Model(&db.Page{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}
