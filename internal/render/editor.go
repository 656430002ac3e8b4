package render

import "github.com/chastitela/meta-lv/internal/schema"

// Field kinds understood by the admin editor form.
const (
	FieldText     = "text"
	FieldRichText = "richtext"
	FieldLink     = "link"
	FieldUpload   = "upload"
	FieldRange    = "range"
)

// FormField describes one input of a type-specific editor form.
type FormField struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Min     int    `json:"min,omitempty"`
	Max     int    `json:"max,omitempty"`
	Default int    `json:"default,omitempty"`
}

// EditorForm is the editable half of the type dispatcher: the form
// descriptor the admin editor renders for one section type.
type EditorForm struct {
	Type        string      `json:"type"`
	Supported   bool        `json:"supported"`
	Fields      []FormField `json:"fields"`
	Placeholder string      `json:"placeholder,omitempty"`
}

// 每个变体注册一次编辑表单；新增类型需同步扩展 schema 与两张分发表
var editorForms = map[string][]FormField{
	schema.TypeHero: {
		{Name: "headline", Label: "Заголовок", Kind: FieldText},
		{Name: "subheadline", Label: "Подзаголовок", Kind: FieldText},
		{Name: "button_text", Label: "Текст кнопки", Kind: FieldText},
		{Name: "button_link", Label: "Ссылка кнопки", Kind: FieldLink},
		{Name: "bg_image", Label: "Фоновое изображение", Kind: FieldUpload},
		{Name: "bg_blur", Label: "Степень блюра", Kind: FieldRange,
			Min: schema.MinBGBlur, Max: schema.MaxBGBlur, Default: schema.DefaultBGBlur},
	},
	schema.TypeText: {
		{Name: "content", Label: "Содержимое", Kind: FieldRichText},
	},
	schema.TypeImage: {
		{Name: "image_url", Label: "Изображение", Kind: FieldUpload},
		{Name: "caption", Label: "Подпись", Kind: FieldText},
	},
	schema.TypeReviews: {
		{Name: "content", Label: "Отзывы (JSON)", Kind: FieldRichText},
	},
	// cta 没有可持久化的载荷，展示完全静态
	schema.TypeCTA: {},
}

// EditorFormFor returns the form descriptor for a section type. An
// unrecognized type yields an unsupported descriptor with a visible
// placeholder instead of an error.
func EditorFormFor(sectionType string) EditorForm {
	fields, ok := editorForms[sectionType]
	if !ok {
		return EditorForm{
			Type:        sectionType,
			Supported:   false,
			Placeholder: "Редактор для этого типа ещё не реализован.",
		}
	}
	return EditorForm{Type: sectionType, Supported: true, Fields: fields}
}
