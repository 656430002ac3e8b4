package schema

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/chastitela/meta-lv/internal/db"
)

var (
	ErrUnknownType       = errors.New("unknown section type")
	ErrReviewsMalformed  = errors.New("reviews payload is not valid JSON")
	ErrFieldNotEditable  = errors.New("field is not editable")
	ErrFieldValueInvalid = errors.New("field value has the wrong kind")
)

// Closed set of section type variants. Every dispatch table in the
// system keys off these constants; nothing special-cases a type
// outside this package.
const (
	TypeHero    = "hero"
	TypeText    = "text"
	TypeImage   = "image"
	TypeReviews = "reviews"
	TypeCTA     = "cta"
)

// Defaults applied when a section is created without explicit values.
const (
	DefaultType   = TypeText
	DefaultBGBlur = 4
	MinBGBlur     = 0
	MaxBGBlur     = 10
)

// Types lists every known variant in a stable order.
func Types() []string {
	return []string{TypeHero, TypeText, TypeImage, TypeReviews, TypeCTA}
}

// Known reports whether t names a registered variant.
func Known(t string) bool {
	switch t {
	case TypeHero, TypeText, TypeImage, TypeReviews, TypeCTA:
		return true
	}
	return false
}

// Review is one entry of a reviews section payload. The whole list is
// stored as a single JSON-encoded string in the section's content
// column; reviews are edited as a block, so the denormalization is
// deliberate.
type Review struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// DecodeReviews parses a serialized reviews payload. Malformed input
// degrades to an empty list instead of surfacing an error, so one bad
// payload cannot take down a page render.
func DecodeReviews(raw string) []Review {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	var reviews []Review
	if err := json.Unmarshal([]byte(trimmed), &reviews); err != nil {
		return nil
	}
	return reviews
}

// EncodeReviews serializes a reviews list for storage.
func EncodeReviews(reviews []Review) (string, error) {
	if reviews == nil {
		reviews = []Review{}
	}
	encoded, err := json.Marshal(reviews)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// ValidatePayload checks that the section's content columns are
// well-formed for its declared type. Called on the save boundary;
// the render boundary degrades instead of rejecting.
func ValidatePayload(sec *db.Section) error {
	if !Known(sec.Type) {
		return ErrUnknownType
	}
	switch sec.Type {
	case TypeReviews:
		trimmed := strings.TrimSpace(sec.Content)
		if trimmed == "" {
			return nil
		}
		var reviews []Review
		if err := json.Unmarshal([]byte(trimmed), &reviews); err != nil {
			return ErrReviewsMalformed
		}
	case TypeHero:
		if sec.BGBlur < MinBGBlur || sec.BGBlur > MaxBGBlur {
			return errors.New("bg_blur must be between 0 and 10")
		}
	}
	return nil
}

// ApplyDefaults fills variant defaults on a freshly created section.
func ApplyDefaults(sec *db.Section) {
	if strings.TrimSpace(sec.Type) == "" {
		sec.Type = DefaultType
	}
	if sec.Type == TypeHero && sec.BGBlur == 0 {
		sec.BGBlur = DefaultBGBlur
	}
}

// ClampBGBlur pins a blur intensity into the allowed range.
func ClampBGBlur(v int) int {
	if v < MinBGBlur {
		return MinBGBlur
	}
	if v > MaxBGBlur {
		return MaxBGBlur
	}
	return v
}

// 行内草稿可编辑的字段及其取值类型；type 与 sort_order 故意不在表内
var editableFields = map[string]string{
	"title":       "string",
	"description": "string",
	"visible":     "bool",
	"bg":          "string",
}

// ValidateDraftField checks that a field name/value pair is allowed to
// enter the draft buffer.
func ValidateDraftField(field string, value any) error {
	kind, ok := editableFields[field]
	if !ok {
		return ErrFieldNotEditable
	}
	switch kind {
	case "string":
		if _, ok := value.(string); !ok {
			return ErrFieldValueInvalid
		}
	case "bool":
		if _, ok := value.(bool); !ok {
			return ErrFieldValueInvalid
		}
	}
	return nil
}
