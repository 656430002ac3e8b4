package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	// 注册上传探测所需的图片解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/chastitela/meta-lv/internal/service"
	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// UploadSectionImage 处理编辑器内的图片上传。
// 对象路径以 Section id 做命名空间并附带毫秒时间戳，
// 避免跨 Section 冲突和同名文件互相覆盖。
func (a *API) UploadSectionImage(c *gin.Context) {
	sectionID := c.Param("id")
	if _, err := a.sections.Get(sectionID); err != nil {
		if errors.Is(err, service.ErrSectionNotFound) {
			respondError(c, http.StatusNotFound, "Section 不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "上传失败，请稍后重试")
		return
	}

	// 获取上传的文件
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}
	if file.Size > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "图片超出大小限制")
		return
	}

	// 检查文件类型
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "读取上传文件失败")
		return
	}
	defer src.Close()

	var data bytes.Buffer
	if _, err := data.ReadFrom(src); err != nil {
		respondError(c, http.StatusInternalServerError, "读取上传文件失败")
		return
	}

	// 解码图片尺寸，顺带校验内容确实是图片
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data.Bytes()))
	if err != nil {
		respondError(c, http.StatusBadRequest, "无法识别的图片格式")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	objectPath := fmt.Sprintf("sections/%s/%d%s", sectionID, time.Now().UnixMilli(), ext)

	if err := a.bucket.Upload(c.Request.Context(), objectPath, bytes.NewReader(data.Bytes()), true); err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":    a.bucket.PublicURL(objectPath),
		"path":   objectPath,
		"width":  cfg.Width,
		"height": cfg.Height,
	})
}
