package handler

import (
	"errors"
	"net/http"

	"github.com/chastitela/meta-lv/internal/schema"
	"github.com/chastitela/meta-lv/internal/service"
	"github.com/gin-gonic/gin"
)

type draftFieldPayload struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// SetDraftField 把一次行内编辑并入当前会话的草稿缓冲。
// 权威记录保持不变，直到显式 flush。
func (a *API) SetDraftField(c *gin.Context) {
	sectionID := c.Param("id")
	if _, err := a.sections.Get(sectionID); err != nil {
		if errors.Is(err, service.ErrSectionNotFound) {
			respondError(c, http.StatusNotFound, "Section 不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "记录草稿失败")
		return
	}

	var payload draftFieldPayload
	if !bindJSON(c, &payload, "草稿数据格式不正确") {
		return
	}

	if err := schema.ValidateDraftField(payload.Field, payload.Value); err != nil {
		respondError(c, http.StatusBadRequest, "该字段不支持行内编辑")
		return
	}

	buf := a.buffer(c)
	buf.SetField(sectionID, payload.Field, payload.Value)
	c.JSON(http.StatusOK, gin.H{"pending": buf.Pending()})
}

// FlushDrafts 将缓冲内的全部修改逐条写入内容存储。
// 写入不保证跨 Section 原子，失败的 id 会逐个返回给调用方。
func (a *API) FlushDrafts(c *gin.Context) {
	buf := a.buffer(c)
	result := buf.Flush(a.sections)

	failed := make([]gin.H, 0, len(result.Failed))
	for id, err := range result.Failed {
		failed = append(failed, gin.H{"id": id, "error": err.Error()})
	}

	status := http.StatusOK
	if len(failed) > 0 {
		// 部分成功：已写入的保持写入，失败的留在缓冲中
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{
		"applied": result.Applied,
		"failed":  failed,
		"pending": buf.Pending(),
	})
}

// DiscardDrafts 显式取消，释放当前会话的整个草稿缓冲
func (a *API) DiscardDrafts(c *gin.Context) {
	a.drafts.Release(a.editorSessionID(c))
	c.JSON(http.StatusOK, gin.H{"pending": 0})
}
