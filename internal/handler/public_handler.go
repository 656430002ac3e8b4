package handler

import (
	"errors"
	"net/http"

	"github.com/chastitela/meta-lv/internal/service"
	"github.com/gin-gonic/gin"
)

// ShowPublicPage 按 slug 渲染公开页面：
// 解析页面 → 取出有序 Section → 按类型分发渲染。
// 单个 Section 渲染失败不影响其余 Section。
func (a *API) ShowPublicPage(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		slug = "home"
	}

	page, err := a.pages.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8",
				[]byte("<!DOCTYPE html><html><body><p>Страница не найдена</p></body></html>"))
			return
		}
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
			[]byte("<!DOCTYPE html><html><body><p>Не удалось загрузить страницу</p></body></html>"))
		return
	}

	sections, err := a.sections.ListByPage(page.ID)
	if err != nil {
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
			[]byte("<!DOCTYPE html><html><body><p>Не удалось загрузить страницу</p></body></html>"))
		return
	}

	html, err := a.renderer.Page(page, sections)
	if err != nil {
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
			[]byte("<!DOCTYPE html><html><body><p>Не удалось загрузить страницу</p></body></html>"))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ShowHome 渲染 slug 为 home 的默认首页
func (a *API) ShowHome(c *gin.Context) {
	c.Params = append(c.Params, gin.Param{Key: "slug", Value: "home"})
	a.ShowPublicPage(c)
}
