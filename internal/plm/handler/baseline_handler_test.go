package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-baseline/internal/config"
	"github.com/bitfantasy/nimo-baseline/internal/plm/entity"
	"github.com/bitfantasy/nimo-baseline/internal/plm/repository"
	"github.com/bitfantasy/nimo-baseline/internal/plm/service"
	"github.com/bitfantasy/nimo-baseline/internal/plm/sse"
	"github.com/bitfantasy/nimo-baseline/internal/plm/testutil"
	"github.com/gin-gonic/gin"
)

func setupBaselineTest(t *testing.T) (*testutil.TestEnv, *sse.Hub) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	cfg := &config.Config{
		Compare: config.CompareConfig{ChunkSize: 2, RejectDuplicateIDs: true},
	}
	hub := sse.NewHub(nil)
	svc := service.NewServices(repository.NewRepositories(db), nil, cfg, hub, nil, nil)
	h := NewHandlers(svc, hub)

	h.RegisterRoutes(testutil.AuthGroup(router, "/api/v1"))
	return &testutil.TestEnv{DB: db, Router: router, T: t}, hub
}

func baselineBody(name string, bladeQty float64, withStage3 bool) map[string]interface{} {
	stages := []interface{}{
		map[string]interface{}{"id": "LPC-STG1", "name": "Stage 1"},
		map[string]interface{}{"id": "LPC-STG2", "name": "Stage 2"},
	}
	if withStage3 {
		stages = append(stages, map[string]interface{}{"id": "LPC-STG3", "name": "Stage 3"})
	}
	return map[string]interface{}{
		"project_id": "proj-001",
		"name":       name,
		"root": map[string]interface{}{
			"id": "ENGINE", "name": "Engine",
			"children": []interface{}{
				map[string]interface{}{
					"id": "FAN", "name": "Fan",
					"children": []interface{}{
						map[string]interface{}{"id": "FAN-BLADE", "name": "Fan Blade", "quantity": bladeQty},
					},
				},
				map[string]interface{}{"id": "LPC", "name": "LP Compressor", "children": stages},
			},
		},
	}
}

func createBaseline(t *testing.T, env *testutil.TestEnv, body map[string]interface{}, token string) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/baselines", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	return data["id"].(string)
}

func TestBaselineCreateCompareAndDelete(t *testing.T) {
	env, hub := setupBaselineTest(t)
	token := testutil.DefaultTestToken()

	events := &sse.Client{ID: "watcher", ProjectID: "proj-001", Events: make(chan sse.Event, 8)}
	hub.Register(events)

	left := createBaseline(t, env, baselineBody("Rev A", 18, false), token)
	right := createBaseline(t, env, baselineBody("Rev B", 20, true), token)
	if len(events.Events) != 2 {
		t.Errorf("Expected 2 baseline_update events, got %d", len(events.Events))
	}

	// 详情与扁平列表
	w := testutil.DoRequest(env.Router, "GET", "/api/v1/baselines/"+left, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/baselines/"+right+"/flat", nil, token)
	flat := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if flat["total"].(float64) != 7 {
		t.Errorf("Expected 7 flat entries, got %v", flat["total"])
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/baselines?project_id=proj-001", nil, token)
	list := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if list["total"].(float64) != 2 {
		t.Errorf("Expected 2 baselines, got %v", list["total"])
	}

	// 对比：窗口大小2
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/compare?left="+left+"&right="+right, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if view["total"].(float64) != 7 || view["visible"].(float64) != 2 || view["has_more"] != true {
		t.Errorf("Unexpected page: total=%v visible=%v has_more=%v", view["total"], view["visible"], view["has_more"])
	}
	summary := view["summary"].(map[string]interface{})
	if summary["added"].(float64) != 1 || summary["modified"].(float64) != 1 {
		t.Errorf("Unexpected summary %v", summary)
	}

	// 仅看变更
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/compare?left="+left+"&right="+right+"&change=modified", nil, token)
	view = testutil.ParseResponse(w)["data"].(map[string]interface{})
	rows := view["rows"].([]interface{})
	if len(rows) != 1 || rows[0].(map[string]interface{})["id"] != "FAN-BLADE" {
		t.Errorf("Expected only FAN-BLADE, got %v", rows)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/compare/navigate?left="+left+"&right="+right+"&change=added&dir=next", nil, token)
	nav := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if nav["found"] != true || nav["row"].(map[string]interface{})["id"] != "LPC-STG3" {
		t.Errorf("Expected navigation to LPC-STG3, got %v", nav)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/compare/export?format=csv&left="+left+"&right="+right, nil, token)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("Expected csv export, got %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if lines := strings.Count(strings.TrimSpace(w.Body.String()), "\n"); lines != 7 {
		t.Errorf("Expected header + 7 rows, got %d line breaks", lines)
	}

	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/baselines/"+left, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/compare?left="+left+"&right="+right, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestBaselineCreateRejectsInvalidTree(t *testing.T) {
	env, _ := setupBaselineTest(t)
	token := testutil.DefaultTestToken()

	dup := baselineBody("Dup", 1, false)
	root := dup["root"].(map[string]interface{})
	lpc := root["children"].([]interface{})[1].(map[string]interface{})
	lpc["id"] = "FAN"
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/baselines", dup, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate ids, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/baselines", map[string]interface{}{"name": "no root"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without root, got %d", w.Code)
	}

	reader := testutil.GenerateTestToken("reader", "Reader", "r@test.com", []string{"viewer"}, []string{"baseline:read"})
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/baselines", baselineBody("X", 1, false), reader)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without write permission, got %d", w.Code)
	}
	if w = testutil.DoRequest(env.Router, "GET", "/api/v1/baselines", nil, reader); w.Code != http.StatusOK {
		t.Errorf("Expected reader to list baselines, got %d", w.Code)
	}

	guest := testutil.GenerateTestToken("guest", "Guest", "g@test.com", []string{"viewer"}, nil)
	if w = testutil.DoRequest(env.Router, "GET", "/api/v1/compare?left=a&right=b", nil, guest); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without read permission, got %d", w.Code)
	}
}

func TestBaselineSnapshotFromBOM(t *testing.T) {
	env, _ := setupBaselineTest(t)
	token := testutil.DefaultTestToken()

	parent := "item-frame"
	now := time.Now()
	testutil.SeedProjectBOM(t, env.DB, &entity.ProjectBOM{
		ID: "bom-001", ProjectID: "proj-001", BOMType: "EBOM", Version: "v1.0",
		Name: "Drone EBOM", Status: "draft", CreatedBy: "test-user-001", CreatedAt: now, UpdatedAt: now,
	}, []entity.ProjectBOMItem{
		{ID: "item-frame", ItemNumber: 1, Name: "Frame", Quantity: 1, Unit: "pcs", CreatedAt: now, UpdatedAt: now},
		{ID: "item-arm", ItemNumber: 2, Level: 1, ParentItemID: &parent, Name: "Arm", Quantity: 4, Unit: "pcs", CreatedAt: now, UpdatedAt: now},
	})

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/projects/proj-001/boms/bom-001/baselines",
		map[string]interface{}{"label": "EVT"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["source"] != entity.BaselineSourceBOM || data["node_count"].(float64) != 3 {
		t.Errorf("Unexpected baseline %v", data)
	}
	if data["name"] != "Drone EBOM v1.0" {
		t.Errorf("Expected default name, got %v", data["name"])
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/projects/other/boms/bom-001/baselines", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for BOM of another project, got %d", w.Code)
	}
}

func TestBaselineImportFromTemplate(t *testing.T) {
	env, _ := setupBaselineTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/baselines/template", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("name", "Imported")
	mw.WriteField("project_id", "proj-001")
	part, _ := mw.CreateFormFile("file", "baseline.xlsx")
	part.Write(w.Body.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/baselines/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := testutil.ParseResponse(rec)["data"].(map[string]interface{})
	if data["source"] != entity.BaselineSourceImport || data["node_count"].(float64) != 3 {
		t.Errorf("Unexpected import result %v", data)
	}
}

func TestParseCompareQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parse := func(query string) (*service.CompareQuery, error) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/compare?"+query, nil)
		return parseCompareQuery(c)
	}

	q, err := parse("left=a&right=b&change=Removed&depth=2&focus=FAN&only_fields=true&visible=300&chunk=150&epoch=42&more=1&sort=traversal")
	if err != nil {
		t.Fatalf("parseCompareQuery: %v", err)
	}
	if q.Filter.Change != "removed" || q.Filter.MaxDepth != 2 || q.Filter.FocusID != "FAN" || !q.Filter.OnlyFieldChanges {
		t.Errorf("Unexpected filter %+v", q.Filter)
	}
	if q.Window.Visible != 300 || q.Window.Chunk != 150 || q.Window.Epoch != 42 || !q.More {
		t.Errorf("Unexpected window %+v more=%v", q.Window, q.More)
	}

	q, err = parse("left=a&right=b")
	if err != nil {
		t.Fatalf("parseCompareQuery: %v", err)
	}
	if q.Filter.Change != "all" || q.Filter.MaxDepth != -1 || q.Sort != "name" {
		t.Errorf("Unexpected defaults %+v sort=%s", q.Filter, q.Sort)
	}

	for _, bad := range []string{
		"right=b",
		"left=a&right=b&change=renamed",
		"left=a&right=b&depth=-3",
		"left=a&right=b&sort=random",
		"left=a&right=b&epoch=x",
		"left=a&right=b&visible=-1",
		"left=a&right=b&more=maybe",
	} {
		if _, err := parse(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
