package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chastitela/meta-lv/internal/db"
	"github.com/chastitela/meta-lv/internal/schema"
	"gorm.io/gorm"
)

var (
	ErrSectionNotFound    = errors.New("section not found")
	ErrSectionPageMissing = errors.New("section page is required")
	ErrOrderMismatch      = errors.New("ordered ids do not match the page's sections")
	ErrDuplicateOrder     = errors.New("duplicate sort_order values detected")
)

// SectionService provides CRUD plus the ordering protocol over
// sections. It is the only writer of authoritative section state.
type SectionService struct {
	db *gorm.DB
}

// NewSectionService returns a new SectionService instance.
func NewSectionService(gdb *gorm.DB) *SectionService {
	return &SectionService{db: gdb}
}

// SectionInput carries fields accepted when creating a section.
type SectionInput struct {
	Slug        string
	Title       string
	Description string
	Type        string
	Visible     *bool
	BG          string
}

// SectionUpdateInput carries the partial fields accepted when updating
// a section from the editor. Nil fields are left untouched. Type is
// absent on purpose: a section's type is immutable after creation.
type SectionUpdateInput struct {
	Slug        *string
	Title       *string
	Description *string
	Visible     *bool
	BG          *string

	Content     *string
	Headline    *string
	Subheadline *string
	ButtonText  *string
	ButtonLink  *string
	BGImage     *string
	BGBlur      *int
	ImageURL    *string
	Caption     *string
}

// WriteResult reports the outcome of one write inside a batch
// operation, so callers can tell fully applied, partially applied and
// not applied apart.
type WriteResult struct {
	ID  string
	Err error
}

// BatchResult aggregates per-item outcomes of a non-atomic batch.
type BatchResult struct {
	Applied []string
	Failed  []WriteResult
}

// Ok reports whether every write in the batch succeeded.
func (r BatchResult) Ok() bool {
	return len(r.Failed) == 0
}

// ListByPage returns a page's sections in ascending sort order.
func (s *SectionService) ListByPage(pageID string) ([]db.Section, error) {
	var sections []db.Section
	if err := s.db.Where("page_id = ?", pageID).
		Order("sort_order asc").
		Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

// Get fetches a section by id.
func (s *SectionService) Get(id string) (*db.Section, error) {
	var sec db.Section
	if err := s.db.Where("id = ?", id).First(&sec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return &sec, nil
}

// Create inserts a new section at the end of the page's order.
// The assigned sort_order is always max+1 for that page; existing
// values are never reused or compacted here.
func (s *SectionService) Create(pageID string, input SectionInput) (*db.Section, error) {
	if strings.TrimSpace(pageID) == "" {
		return nil, ErrSectionPageMissing
	}

	sec := db.Section{
		PageID:      pageID,
		Slug:        strings.TrimSpace(input.Slug),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Type:        strings.TrimSpace(input.Type),
		BG:          strings.TrimSpace(input.BG),
		Visible:     true,
	}
	if input.Visible != nil {
		sec.Visible = *input.Visible
	}
	schema.ApplyDefaults(&sec)
	if err := schema.ValidatePayload(&sec); err != nil {
		return nil, err
	}

	order, err := s.nextSortOrder(pageID)
	if err != nil {
		return nil, err
	}
	sec.SortOrder = order

	if err := s.db.Create(&sec).Error; err != nil {
		return nil, err
	}
	return &sec, nil
}

// Update applies the non-nil fields of input to an existing section
// and validates the resulting payload against its type.
func (s *SectionService) Update(id string, input SectionUpdateInput) (*db.Section, error) {
	sec, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.Slug != nil {
		sec.Slug = strings.TrimSpace(*input.Slug)
	}
	if input.Title != nil {
		sec.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		sec.Description = strings.TrimSpace(*input.Description)
	}
	if input.Visible != nil {
		sec.Visible = *input.Visible
	}
	if input.BG != nil {
		sec.BG = strings.TrimSpace(*input.BG)
	}
	if input.Content != nil {
		// 富文本载荷按约定原样存储
		sec.Content = *input.Content
	}
	if input.Headline != nil {
		sec.Headline = strings.TrimSpace(*input.Headline)
	}
	if input.Subheadline != nil {
		sec.Subheadline = strings.TrimSpace(*input.Subheadline)
	}
	if input.ButtonText != nil {
		sec.ButtonText = strings.TrimSpace(*input.ButtonText)
	}
	if input.ButtonLink != nil {
		sec.ButtonLink = strings.TrimSpace(*input.ButtonLink)
	}
	if input.BGImage != nil {
		sec.BGImage = strings.TrimSpace(*input.BGImage)
	}
	if input.BGBlur != nil {
		sec.BGBlur = schema.ClampBGBlur(*input.BGBlur)
	}
	if input.ImageURL != nil {
		sec.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.Caption != nil {
		sec.Caption = strings.TrimSpace(*input.Caption)
	}

	if err := schema.ValidatePayload(sec); err != nil {
		return nil, err
	}
	if err := s.db.Save(sec).Error; err != nil {
		return nil, err
	}
	return sec, nil
}

// UpdateFields applies a sparse column map to a section. Only fields
// cleared by the schema's draft whitelist are accepted; this is the
// write path used when flushing the draft buffer.
func (s *SectionService) UpdateFields(id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	for field, value := range fields {
		if err := schema.ValidateDraftField(field, value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	res := s.db.Model(&db.Section{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// BatchUpdate issues one UpdateFields per id and reports per-id
// outcomes. The batch is deliberately not atomic: a failure midway
// leaves earlier ids updated, and the result says which ones.
func (s *SectionService) BatchUpdate(updates map[string]map[string]any, order []string) BatchResult {
	var result BatchResult
	for _, id := range order {
		fields, ok := updates[id]
		if !ok {
			continue
		}
		if err := s.UpdateFields(id, fields); err != nil {
			result.Failed = append(result.Failed, WriteResult{ID: id, Err: err})
			continue
		}
		result.Applied = append(result.Applied, id)
	}
	return result
}

// Delete removes a section. The caller is responsible for dropping any
// pending draft entry for the id.
func (s *SectionService) Delete(id string) error {
	sec, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.Delete(sec).Error
}

// StableMove produces a new id order by removing activeID and
// reinserting it at overID's position; items in between shift by one.
// It returns the input unchanged when either id is absent or both
// resolve to the same position.
func StableMove(ids []string, activeID, overID string) []string {
	from, to := -1, -1
	for i, id := range ids {
		if id == activeID {
			from = i
		}
		if id == overID {
			to = i
		}
	}
	if from < 0 || to < 0 || from == to {
		return ids
	}

	moved := make([]string, 0, len(ids))
	moved = append(moved, ids[:from]...)
	moved = append(moved, ids[from+1:]...)
	moved = append(moved[:to], append([]string{activeID}, moved[to:]...)...)
	return moved
}

// Reorder persists a full dense renumbering of a page's sections
// following orderedIDs: position i gets sort_order i+1. The id set
// must match the page's sections exactly. Writes are per-id and not
// atomic; the result reports which ids were persisted. When the order
// is already current no writes are issued.
func (s *SectionService) Reorder(pageID string, orderedIDs []string) (BatchResult, error) {
	var result BatchResult

	current, err := s.ListByPage(pageID)
	if err != nil {
		return result, err
	}
	if len(current) != len(orderedIDs) {
		return result, ErrOrderMismatch
	}

	byID := make(map[string]*db.Section, len(current))
	for i := range current {
		byID[current[i].ID] = &current[i]
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := byID[id]; !ok || seen[id] {
			return result, ErrOrderMismatch
		}
		seen[id] = true
	}

	// 顺序未变时不下发任何写入
	unchanged := true
	for i, id := range orderedIDs {
		if byID[id].SortOrder != i+1 {
			unchanged = false
			break
		}
	}
	if unchanged {
		return result, nil
	}

	for i, id := range orderedIDs {
		err := s.db.Model(&db.Section{}).
			Where("id = ?", id).
			Update("sort_order", i+1).Error
		if err != nil {
			result.Failed = append(result.Failed, WriteResult{ID: id, Err: err})
			continue
		}
		result.Applied = append(result.Applied, id)
	}
	return result, nil
}

// CheckOrderIntegrity reports ErrDuplicateOrder when two sections of
// the page share a sort_order value. Ties should never survive a
// completed reorder; a creation-time race is treated as a defect to
// surface rather than silently accept.
func (s *SectionService) CheckOrderIntegrity(pageID string) error {
	sections, err := s.ListByPage(pageID)
	if err != nil {
		return err
	}
	seen := make(map[int]string, len(sections))
	for _, sec := range sections {
		if prev, ok := seen[sec.SortOrder]; ok {
			return fmt.Errorf("%w: sections %s and %s both have sort_order %d",
				ErrDuplicateOrder, prev, sec.ID, sec.SortOrder)
		}
		seen[sec.SortOrder] = sec.ID
	}
	return nil
}

func (s *SectionService) nextSortOrder(pageID string) (int, error) {
	var maxOrder int
	if err := s.db.Model(&db.Section{}).
		Where("page_id = ?", pageID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return 0, err
	}
	return maxOrder + 1, nil
}
