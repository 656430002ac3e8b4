package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/chastitela/meta-lv/internal/db"
	"github.com/chastitela/meta-lv/internal/schema"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer is the read-only half of the type dispatcher: it maps a
// section's type tag to its public presentation. The variant switch is
// closed; adding a type means extending the schema, this dispatch and
// the editor forms together.
type Renderer struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
	tmpl     *template.Template
}

// 各变体的公共展示模板；未知类型在公共端渲染为空
const sectionTemplates = `
{{define "section_hero"}}<section class="section section-hero"{{if .BG}} style="background:{{.BG}}"{{end}}>
{{if .BGImage}}<div class="hero-bg" style="background-image:url('{{.BGImage}}');filter:blur({{.BGBlur}}px)"></div>{{end}}
<div class="hero-body"><h1>{{.Headline}}</h1>
{{if .Subheadline}}<p>{{.Subheadline}}</p>{{end}}
{{if .ButtonText}}<a class="hero-button" href="{{.ButtonLink}}">{{.ButtonText}}</a>{{end}}</div>
</section>{{end}}

{{define "section_text"}}<section class="section section-text"{{if .BG}} style="background:{{.BG}}"{{end}}>
<div class="prose">{{.HTML}}</div>
</section>{{end}}

{{define "section_image"}}<section class="section section-image"{{if .BG}} style="background:{{.BG}}"{{end}}>
{{if .ImageURL}}<figure><img src="{{.ImageURL}}" alt="{{.Caption}}">
{{if .Caption}}<figcaption>{{.Caption}}</figcaption>{{end}}</figure>{{end}}
</section>{{end}}

{{define "section_reviews"}}<section class="section section-reviews"{{if .BG}} style="background:{{.BG}}"{{end}}>
{{if .Title}}<h2>{{.Title}}</h2>{{end}}
{{range .Reviews}}<blockquote class="review"><p>{{.Content}}</p><footer>— {{.Author}}</footer></blockquote>
{{end}}</section>{{end}}

{{define "section_cta"}}<section class="section section-cta">
<h2>Готов начать проект с нами?</h2>
<p>Оставь заявку, и мы свяжемся с тобой в течение дня.</p>
<a class="cta-button" href="/contacts">Связаться</a>
</section>{{end}}

{{define "page"}}<!DOCTYPE html>
<html lang="lv">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{if .Description}}<meta name="description" content="{{.Description}}">{{end}}
{{if .Keywords}}<meta name="keywords" content="{{.Keywords}}">{{end}}
{{if .Image}}<meta property="og:image" content="{{.Image}}">{{end}}
{{if .Noindex}}<meta name="robots" content="noindex">{{end}}
</head>
<body>
<main>
{{range .Sections}}{{.}}{{end}}
</main>
</body>
</html>{{end}}
`

// New builds a renderer with a GFM markdown engine and a UGC sanitizer policy.
func New() *Renderer {
	return &Renderer{
		policy: bluemonday.UGCPolicy(),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
			goldmark.WithRendererOptions(ghtml.WithHardWraps(), ghtml.WithXHTML()),
		),
		tmpl: template.Must(template.New("sections").Parse(sectionTemplates)),
	}
}

type heroView struct {
	BG          string
	BGImage     string
	BGBlur      int
	Headline    string
	Subheadline string
	ButtonText  string
	ButtonLink  string
}

type textView struct {
	BG   string
	HTML template.HTML
}

type imageView struct {
	BG       string
	ImageURL string
	Caption  string
}

type reviewsView struct {
	BG      string
	Title   string
	Reviews []schema.Review
}

// Section renders one section for the public page. Unknown types and
// template failures yield empty output so one bad section never takes
// down its siblings.
func (r *Renderer) Section(sec *db.Section) template.HTML {
	var name string
	var data any

	switch sec.Type {
	case schema.TypeHero:
		name = "section_hero"
		data = heroView{
			BG:          sec.BG,
			BGImage:     sec.BGImage,
			BGBlur:      schema.ClampBGBlur(sec.BGBlur),
			Headline:    sec.Headline,
			Subheadline: sec.Subheadline,
			ButtonText:  sec.ButtonText,
			ButtonLink:  sec.ButtonLink,
		}
	case schema.TypeText:
		name = "section_text"
		data = textView{BG: sec.BG, HTML: r.richText(sec.Content)}
	case schema.TypeImage:
		name = "section_image"
		data = imageView{BG: sec.BG, ImageURL: sec.ImageURL, Caption: sec.Caption}
	case schema.TypeReviews:
		name = "section_reviews"
		// 解码失败按空列表降级
		data = reviewsView{BG: sec.BG, Title: sec.Title, Reviews: schema.DecodeReviews(sec.Content)}
	case schema.TypeCTA:
		name = "section_cta"
		data = struct{}{}
	default:
		return ""
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

type pageView struct {
	Title       string
	Description string
	Keywords    string
	Image       string
	Noindex     bool
	Sections    []template.HTML
}

// Page renders the full public document for a page: SEO head plus the
// visible sections in sort order. Invisible sections are filtered here,
// before dispatch.
func (r *Renderer) Page(page *db.Page, sections []db.Section) (template.HTML, error) {
	view := pageView{
		Title:       page.Title,
		Description: page.Description,
		Keywords:    page.SeoKeywords,
		Image:       page.SeoImage,
		Noindex:     page.SeoNoindex,
	}
	if strings.TrimSpace(page.SeoTitle) != "" {
		view.Title = page.SeoTitle
	}
	if strings.TrimSpace(page.SeoDescription) != "" {
		view.Description = page.SeoDescription
	}

	for i := range sections {
		if !sections[i].Visible {
			continue
		}
		if html := r.Section(&sections[i]); html != "" {
			view.Sections = append(view.Sections, html)
		}
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// richText prepares a stored rich-text payload for output. Payloads
// carrying markup are sanitized as-is; markup-free payloads are run
// through the markdown engine first, then sanitized.
func (r *Renderer) richText(content string) template.HTML {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	if !strings.Contains(trimmed, "<") {
		var buf bytes.Buffer
		if err := r.markdown.Convert([]byte(trimmed), &buf); err == nil {
			return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
		}
	}
	return template.HTML(r.policy.Sanitize(trimmed))
}
