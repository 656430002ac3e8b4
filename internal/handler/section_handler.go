package handler

import (
	"errors"
	"net/http"

	"github.com/chastitela/meta-lv/internal/db"
	"github.com/chastitela/meta-lv/internal/render"
	"github.com/chastitela/meta-lv/internal/schema"
	"github.com/chastitela/meta-lv/internal/service"
	"github.com/gin-gonic/gin"
)

type sectionCreatePayload struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Visible     *bool  `json:"visible"`
	BG          string `json:"bg"`
}

type sectionUpdatePayload struct {
	Slug        *string `json:"slug"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visible     *bool   `json:"visible"`
	BG          *string `json:"bg"`

	Content     *string `json:"content"`
	Headline    *string `json:"headline"`
	Subheadline *string `json:"subheadline"`
	ButtonText  *string `json:"button_text"`
	ButtonLink  *string `json:"button_link"`
	BGImage     *string `json:"bg_image"`
	BGBlur      *int    `json:"bg_blur"`
	ImageURL    *string `json:"image_url"`
	Caption     *string `json:"caption"`
}

type reorderPayload struct {
	ActiveID string `json:"active_id"`
	OverID   string `json:"over_id"`
}

func sectionJSON(s *db.Section) gin.H {
	return gin.H{
		"id":          s.ID,
		"page_id":     s.PageID,
		"slug":        s.Slug,
		"title":       s.Title,
		"description": s.Description,
		"type":        s.Type,
		"sort_order":  s.SortOrder,
		"visible":     s.Visible,
		"bg":          s.BG,
		"content":     s.Content,
		"headline":    s.Headline,
		"subheadline": s.Subheadline,
		"button_text": s.ButtonText,
		"button_link": s.ButtonLink,
		"bg_image":    s.BGImage,
		"bg_blur":     s.BGBlur,
		"image_url":   s.ImageURL,
		"caption":     s.Caption,
		"updated_at":  s.UpdatedAt,
	}
}

func batchJSON(result service.BatchResult) gin.H {
	failed := make([]gin.H, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, gin.H{"id": f.ID, "error": f.Err.Error()})
	}
	return gin.H{"applied": result.Applied, "failed": failed, "ok": result.Ok()}
}

// ListSections 返回页面下的全部 Section，按 sort_order 升序
func (a *API) ListSections(c *gin.Context) {
	pageID := c.Param("id")
	if _, err := a.pages.Get(pageID); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "页面不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "加载 Section 失败")
		return
	}

	sections, err := a.sections.ListByPage(pageID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载 Section 失败")
		return
	}

	// 排序完整性守护：出现重复 sort_order 视为缺陷并随响应上报
	var orderWarning string
	if err := a.sections.CheckOrderIntegrity(pageID); err != nil {
		orderWarning = err.Error()
	}

	items := make([]gin.H, 0, len(sections))
	for i := range sections {
		items = append(items, sectionJSON(&sections[i]))
	}

	resp := gin.H{"sections": items}
	if orderWarning != "" {
		resp["order_warning"] = orderWarning
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSection 在页面末尾新增 Section（sort_order = 当前最大值 + 1）
func (a *API) CreateSection(c *gin.Context) {
	pageID := c.Param("id")
	if _, err := a.pages.Get(pageID); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "页面不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "创建 Section 失败")
		return
	}

	var payload sectionCreatePayload
	if !bindJSON(c, &payload, "Section 数据格式不正确") {
		return
	}

	sec, err := a.sections.Create(pageID, service.SectionInput{
		Slug:        payload.Slug,
		Title:       payload.Title,
		Description: payload.Description,
		Type:        payload.Type,
		Visible:     payload.Visible,
		BG:          payload.BG,
	})
	if err != nil {
		if errors.Is(err, schema.ErrUnknownType) {
			respondError(c, http.StatusBadRequest, "未知的 Section 类型")
			return
		}
		respondError(c, http.StatusInternalServerError, "创建 Section 失败，请稍后重试")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"section": sectionJSON(sec)})
}

// UpdateSection 提交编辑器里的修改；type 创建后不可变更
func (a *API) UpdateSection(c *gin.Context) {
	var payload sectionUpdatePayload
	if !bindJSON(c, &payload, "Section 数据格式不正确") {
		return
	}

	sec, err := a.sections.Update(c.Param("id"), service.SectionUpdateInput{
		Slug:        payload.Slug,
		Title:       payload.Title,
		Description: payload.Description,
		Visible:     payload.Visible,
		BG:          payload.BG,
		Content:     payload.Content,
		Headline:    payload.Headline,
		Subheadline: payload.Subheadline,
		ButtonText:  payload.ButtonText,
		ButtonLink:  payload.ButtonLink,
		BGImage:     payload.BGImage,
		BGBlur:      payload.BGBlur,
		ImageURL:    payload.ImageURL,
		Caption:     payload.Caption,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSectionNotFound):
			respondError(c, http.StatusNotFound, "Section 不存在")
		case errors.Is(err, schema.ErrReviewsMalformed):
			respondError(c, http.StatusBadRequest, "评价内容不是合法的 JSON")
		default:
			respondError(c, http.StatusInternalServerError, "保存 Section 失败，请稍后重试")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"section": sectionJSON(sec)})
}

// DeleteSection 删除 Section，并同步丢弃其待提交草稿
func (a *API) DeleteSection(c *gin.Context) {
	id := c.Param("id")
	if err := a.sections.Delete(id); err != nil {
		if errors.Is(err, service.ErrSectionNotFound) {
			respondError(c, http.StatusNotFound, "Section 不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "删除 Section 失败，请稍后重试")
		return
	}

	a.drafts.DropSection(id)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ReorderSections 把拖拽手势 {active_id, over_id} 转换为稳定移动，
// 并以 1 起始的密集序号持久化整个新顺序
func (a *API) ReorderSections(c *gin.Context) {
	pageID := c.Param("id")

	var payload reorderPayload
	if !bindJSON(c, &payload, "排序数据格式不正确") {
		return
	}

	// 手势缺少目标或原地放下时不下发任何写入
	if payload.ActiveID == "" || payload.OverID == "" || payload.ActiveID == payload.OverID {
		c.JSON(http.StatusOK, gin.H{"reordered": false})
		return
	}

	sections, err := a.sections.ListByPage(pageID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载 Section 失败")
		return
	}

	ids := make([]string, 0, len(sections))
	for i := range sections {
		ids = append(ids, sections[i].ID)
	}

	moved := service.StableMove(ids, payload.ActiveID, payload.OverID)
	result, err := a.sections.Reorder(pageID, moved)
	if err != nil {
		if errors.Is(err, service.ErrOrderMismatch) {
			respondError(c, http.StatusConflict, "Section 列表已变化，请刷新后重试")
			return
		}
		respondError(c, http.StatusInternalServerError, "保存排序失败，请刷新后重试")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reordered": true,
		"order":     moved,
		"result":    batchJSON(result),
	})
}

// ListSectionTypes 返回可新增的 Section 类型及各自的编辑器表单描述
func (a *API) ListSectionTypes(c *gin.Context) {
	types := schema.Types()
	items := make([]gin.H, 0, len(types))
	for _, t := range types {
		items = append(items, gin.H{"type": t, "form": render.EditorFormFor(t)})
	}
	c.JSON(http.StatusOK, gin.H{"types": items})
}

// ShowSectionEditor 返回编辑器表单描述及当前权威记录的取值
func (a *API) ShowSectionEditor(c *gin.Context) {
	sec, err := a.sections.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSectionNotFound) {
			respondError(c, http.StatusNotFound, "Section 不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "加载编辑器失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"section": sectionJSON(sec),
		"form":    render.EditorFormFor(sec.Type),
	})
}
