package handler

import "github.com/chastitela/meta-lv/internal/service"

// Sections 暴露未导出的 section 服务，供外部测试包访问
func (a *API) Sections() *service.SectionService { return a.sections }
