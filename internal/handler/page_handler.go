package handler

import (
	"errors"
	"net/http"

	"github.com/chastitela/meta-lv/internal/db"
	"github.com/chastitela/meta-lv/internal/service"
	"github.com/gin-gonic/gin"
)

type pageCreatePayload struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type pageUpdatePayload struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	SortOrder      *int    `json:"sort_order"`
	SeoTitle       *string `json:"seo_title"`
	SeoDescription *string `json:"seo_description"`
	SeoKeywords    *string `json:"seo_keywords"`
	SeoImage       *string `json:"seo_image"`
	SeoNoindex     *bool   `json:"seo_noindex"`
}

func pageJSON(p *db.Page) gin.H {
	return gin.H{
		"id":              p.ID,
		"slug":            p.Slug,
		"title":           p.Title,
		"description":     p.Description,
		"sort_order":      p.SortOrder,
		"seo_title":       p.SeoTitle,
		"seo_description": p.SeoDescription,
		"seo_keywords":    p.SeoKeywords,
		"seo_image":       p.SeoImage,
		"seo_noindex":     p.SeoNoindex,
		"updated_at":      p.UpdatedAt,
	}
}

// ListPages 返回全部页面，按 sort_order 升序
func (a *API) ListPages(c *gin.Context) {
	pages, err := a.pages.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载页面列表失败")
		return
	}

	items := make([]gin.H, 0, len(pages))
	for i := range pages {
		items = append(items, pageJSON(&pages[i]))
	}
	c.JSON(http.StatusOK, gin.H{"pages": items})
}

// CreatePage 新建页面；slug 与标题为必填项
func (a *API) CreatePage(c *gin.Context) {
	var payload pageCreatePayload
	if !bindJSON(c, &payload, "页面数据格式不正确") {
		return
	}

	page, err := a.pages.Create(service.PageInput{
		Slug:        payload.Slug,
		Title:       payload.Title,
		Description: payload.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageSlugMissing),
			errors.Is(err, service.ErrPageTitleMissing),
			errors.Is(err, service.ErrPageSlugInvalid):
			respondError(c, http.StatusBadRequest, "请填写合法的 slug 与标题")
		case errors.Is(err, service.ErrPageSlugTaken):
			respondError(c, http.StatusConflict, "该 slug 已被占用")
		default:
			respondError(c, http.StatusInternalServerError, "创建页面失败，请稍后重试")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"page": pageJSON(page)})
}

// UpdatePage 更新页面的部分字段；slug 创建后不可变更
func (a *API) UpdatePage(c *gin.Context) {
	var payload pageUpdatePayload
	if !bindJSON(c, &payload, "页面数据格式不正确") {
		return
	}

	page, err := a.pages.Update(c.Param("id"), service.PageUpdateInput{
		Title:          payload.Title,
		Description:    payload.Description,
		SortOrder:      payload.SortOrder,
		SeoTitle:       payload.SeoTitle,
		SeoDescription: payload.SeoDescription,
		SeoKeywords:    payload.SeoKeywords,
		SeoImage:       payload.SeoImage,
		SeoNoindex:     payload.SeoNoindex,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageNotFound):
			respondError(c, http.StatusNotFound, "页面不存在")
		case errors.Is(err, service.ErrPageTitleMissing):
			respondError(c, http.StatusBadRequest, "页面标题不能为空")
		default:
			respondError(c, http.StatusInternalServerError, "保存页面失败，请稍后重试")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": pageJSON(page)})
}

// DeletePage 删除页面及其全部 Section。
// 调用方必须先取得明确确认并携带 confirm=true。
func (a *API) DeletePage(c *gin.Context) {
	if c.Query("confirm") != "true" {
		respondError(c, http.StatusBadRequest, "删除页面及其全部 Section 不可恢复，请携带 confirm=true 确认")
		return
	}

	removedSections, err := a.pages.Delete(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "页面不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "删除页面失败，请稍后重试")
		return
	}

	// 级联删除后同步丢弃这些 Section 的待提交草稿
	for _, sectionID := range removedSections {
		a.drafts.DropSection(sectionID)
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "removed_sections": removedSections})
}
