package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chastitela/meta-lv/internal/config"
	"github.com/chastitela/meta-lv/internal/db"
	"github.com/chastitela/meta-lv/internal/handler"
	"github.com/chastitela/meta-lv/internal/router"
	memorystorage "github.com/chastitela/meta-lv/internal/storage/memory"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testClient 复用会话 Cookie，模拟同一编辑会话的连续请求
type testClient struct {
	t       *testing.T
	engine  *gin.Engine
	cookies []*http.Cookie
}

func (cl *testClient) do(method, path string, payload any) *httptest.ResponseRecorder {
	cl.t.Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			cl.t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.engine.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		cl.cookies = append(cl.cookies, set...)
	}
	return w
}

func setupTestServer(t *testing.T) (*testClient, *handler.API, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.Page{}, &db.Section{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb

	api := handler.NewAPI(db.DB, memorystorage.New("https://meta.lv/static/uploads"))
	engine := router.SetupRouter(api, config.AppConfig{
		GinMode:        gin.TestMode,
		SessionSecret:  "test-secret",
		StorageBackend: "memory",
	})

	cleanup := func() {
		gdb.Where("1 = 1").Delete(&db.Section{})
		gdb.Where("1 = 1").Delete(&db.Page{})
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return &testClient{t: t, engine: engine}, api, cleanup
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func createPage(t *testing.T, cl *testClient, slug string) string {
	t.Helper()
	w := cl.do(http.MethodPost, "/admin/api/pages", gin.H{"slug": slug, "title": "Страница"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating page, got %d: %s", w.Code, w.Body.String())
	}
	page := decodeBody(t, w)["page"].(map[string]any)
	return page["id"].(string)
}

func createSection(t *testing.T, cl *testClient, pageID, sectionType string) string {
	t.Helper()
	w := cl.do(http.MethodPost, "/admin/api/pages/"+pageID+"/sections",
		gin.H{"type": sectionType, "title": sectionType})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating section, got %d: %s", w.Code, w.Body.String())
	}
	sec := decodeBody(t, w)["section"].(map[string]any)
	return sec["id"].(string)
}

func TestCreateSectionAssignsIncreasingOrder(t *testing.T) {
	cl, api, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	createSection(t, cl, pageID, "hero")
	createSection(t, cl, pageID, "text")

	sections, err := api.Sections().ListByPage(pageID)
	if err != nil {
		t.Fatalf("ListByPage returned error: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].SortOrder != 1 || sections[1].SortOrder != 2 {
		t.Fatalf("expected orders 1,2 got %d,%d", sections[0].SortOrder, sections[1].SortOrder)
	}
}

func TestReorderEndpointPersistsDenseOrder(t *testing.T) {
	cl, api, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	createSection(t, cl, pageID, "hero")
	textID := createSection(t, cl, pageID, "text")
	ctaID := createSection(t, cl, pageID, "cta")

	// 把 text 拖到 cta 的位置
	w := cl.do(http.MethodPost, "/admin/api/pages/"+pageID+"/reorder",
		gin.H{"active_id": textID, "over_id": ctaID})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	sections, err := api.Sections().ListByPage(pageID)
	if err != nil {
		t.Fatalf("ListByPage returned error: %v", err)
	}
	wantTypes := []string{"hero", "cta", "text"}
	for i, sec := range sections {
		if sec.Type != wantTypes[i] {
			t.Fatalf("position %d: expected %s, got %s", i, wantTypes[i], sec.Type)
		}
		if sec.SortOrder != i+1 {
			t.Fatalf("position %d: expected sort_order %d, got %d", i, i+1, sec.SortOrder)
		}
	}
}

func TestReorderEndpointNoOpGesture(t *testing.T) {
	cl, _, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	heroID := createSection(t, cl, pageID, "hero")

	w := cl.do(http.MethodPost, "/admin/api/pages/"+pageID+"/reorder",
		gin.H{"active_id": heroID, "over_id": heroID})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decodeBody(t, w)["reordered"] != false {
		t.Fatal("expected gesture to be a no-op")
	}
}

func TestDraftFlowIsolatesAndFlushes(t *testing.T) {
	cl, api, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	sectionID := createSection(t, cl, pageID, "text")

	w := cl.do(http.MethodPost, "/admin/api/sections/"+sectionID+"/draft",
		gin.H{"field": "title", "value": "Черновик"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 recording draft, got %d: %s", w.Code, w.Body.String())
	}

	// 草稿不触碰权威记录
	sec, err := api.Sections().Get(sectionID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if sec.Title == "Черновик" {
		t.Fatal("draft must not mutate the authoritative record before flush")
	}

	w = cl.do(http.MethodPost, "/admin/api/drafts/flush", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 flushing, got %d: %s", w.Code, w.Body.String())
	}

	sec, err = api.Sections().Get(sectionID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if sec.Title != "Черновик" {
		t.Fatalf("expected flushed title, got %q", sec.Title)
	}
}

func TestDraftFieldOutsideWhitelistRejected(t *testing.T) {
	cl, _, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	sectionID := createSection(t, cl, pageID, "text")

	w := cl.do(http.MethodPost, "/admin/api/sections/"+sectionID+"/draft",
		gin.H{"field": "type", "value": "hero"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-editable field, got %d", w.Code)
	}
}

func TestDeleteSectionDropsPendingDraft(t *testing.T) {
	cl, api, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	sectionID := createSection(t, cl, pageID, "text")
	keptID := createSection(t, cl, pageID, "hero")

	cl.do(http.MethodPost, "/admin/api/sections/"+sectionID+"/draft",
		gin.H{"field": "title", "value": "пропадёт"})
	cl.do(http.MethodPost, "/admin/api/sections/"+keptID+"/draft",
		gin.H{"field": "title", "value": "останется"})

	w := cl.do(http.MethodDelete, "/admin/api/sections/"+sectionID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting section, got %d", w.Code)
	}

	w = cl.do(http.MethodPost, "/admin/api/drafts/flush", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 flushing, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	applied, _ := body["applied"].([]any)
	if len(applied) != 1 || applied[0] != keptID {
		t.Fatalf("expected flush to touch only the surviving section, got %v", body)
	}

	sec, err := api.Sections().Get(keptID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if sec.Title != "останется" {
		t.Fatalf("expected surviving draft flushed, got %q", sec.Title)
	}
}

func TestDiscardDraftsCancelsEdits(t *testing.T) {
	cl, api, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	sectionID := createSection(t, cl, pageID, "text")

	cl.do(http.MethodPost, "/admin/api/sections/"+sectionID+"/draft",
		gin.H{"field": "title", "value": "отменено"})
	cl.do(http.MethodDelete, "/admin/api/drafts", nil)
	cl.do(http.MethodPost, "/admin/api/drafts/flush", nil)

	sec, err := api.Sections().Get(sectionID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if sec.Title == "отменено" {
		t.Fatal("cancelled draft must not be persisted")
	}
}

func TestEditorDescriptorForUnknownType(t *testing.T) {
	cl, _, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	// 绕过服务层写入一个未注册的类型，模拟坏数据
	raw := db.Section{PageID: pageID, Type: "carousel", SortOrder: 1, Visible: true}
	if err := db.DB.Create(&raw).Error; err != nil {
		t.Fatalf("failed to seed raw section: %v", err)
	}

	w := cl.do(http.MethodGet, "/admin/api/sections/"+raw.ID+"/editor", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	form := decodeBody(t, w)["form"].(map[string]any)
	if form["supported"] != false {
		t.Fatal("expected unsupported form for unknown type")
	}
	if form["placeholder"] == "" {
		t.Fatal("expected placeholder message for unknown type")
	}
}

func TestListSectionTypes(t *testing.T) {
	cl, _, cleanup := setupTestServer(t)
	defer cleanup()

	w := cl.do(http.MethodGet, "/admin/api/section-types", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	items := decodeBody(t, w)["types"].([]any)
	if len(items) != 5 {
		t.Fatalf("expected 5 section types, got %d", len(items))
	}
	for _, item := range items {
		entry := item.(map[string]any)
		if entry["type"] == "" || entry["form"] == nil {
			t.Fatalf("expected type and form per entry, got %v", entry)
		}
	}
}

func TestDeletePageRequiresConfirmation(t *testing.T) {
	cl, _, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")

	w := cl.do(http.MethodDelete, "/admin/api/pages/"+pageID, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirm, got %d", w.Code)
	}

	w = cl.do(http.MethodDelete, fmt.Sprintf("/admin/api/pages/%s?confirm=true", pageID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with confirm, got %d", w.Code)
	}
}

func TestSectionTypeIsImmutableViaUpdate(t *testing.T) {
	cl, api, cleanup := setupTestServer(t)
	defer cleanup()

	pageID := createPage(t, cl, "home")
	sectionID := createSection(t, cl, pageID, "text")

	// 更新载荷里不存在 type 字段，即使传了也会被忽略
	w := cl.do(http.MethodPut, "/admin/api/sections/"+sectionID,
		gin.H{"type": "hero", "title": "обновлено"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	sec, err := api.Sections().Get(sectionID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if sec.Type != "text" {
		t.Fatalf("expected type unchanged, got %q", sec.Type)
	}
	if sec.Title != "обновлено" {
		t.Fatalf("expected title updated, got %q", sec.Title)
	}
}
