package handler

import (
	"github.com/chastitela/meta-lv/internal/draft"
	"github.com/chastitela/meta-lv/internal/render"
	"github.com/chastitela/meta-lv/internal/service"
	"github.com/chastitela/meta-lv/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	pages    *service.PageService
	sections *service.SectionService
	drafts   *draft.Registry
	renderer *render.Renderer
	bucket   storage.Bucket
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, bucket storage.Bucket) *API {
	return &API{
		pages:    service.NewPageService(db),
		sections: service.NewSectionService(db),
		drafts:   draft.NewRegistry(),
		renderer: render.New(),
		bucket:   bucket,
	}
}

const editorSessionKey = "editor_id"

// editorSessionID 返回当前编辑会话的标识，首次访问时生成
func (a *API) editorSessionID(c *gin.Context) string {
	session := sessions.Default(c)
	if existing, ok := session.Get(editorSessionKey).(string); ok && existing != "" {
		return existing
	}
	id := uuid.NewString()
	session.Set(editorSessionKey, id)
	session.Save()
	return id
}

// buffer 返回当前会话独占的草稿缓冲
func (a *API) buffer(c *gin.Context) *draft.Buffer {
	return a.drafts.Buffer(a.editorSessionID(c))
}
