package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/milkrunhq/milkrun/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestContext(t *testing.T, db *gorm.DB, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("db", db)
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestCreateAndGetProduct(t *testing.T) {
	db := newTestDB(t)

	c, rec := newTestContext(t, db, http.MethodPost, "/api/crm/products",
		`{"name":"Buffalo Milk","category":"milk","size":"1l","unit":"bottle","price":60,"stock":100}`)
	if err := createProduct(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeEnvelope(t, rec)
	if out["success"] != true {
		t.Fatalf("envelope = %v", out)
	}

	var p domain.Product
	if err := db.Where("name = ?", "Buffalo Milk").First(&p).Error; err != nil {
		t.Fatalf("product not persisted: %v", err)
	}
	if p.Price != 60 || p.Stock != 100 {
		t.Fatalf("persisted product wrong: %+v", p)
	}

	c, rec = newTestContext(t, db, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	if err := getProduct(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestCreateProductRejectsMissingName(t *testing.T) {
	db := newTestDB(t)

	c, rec := newTestContext(t, db, http.MethodPost, "/api/crm/products", `{"price":10}`)
	if err := createProduct(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	out := decodeEnvelope(t, rec)
	if out["success"] != false || out["code"] != "INVALID_REQUEST" {
		t.Fatalf("envelope = %v", out)
	}
}

func TestGetProductNotFound(t *testing.T) {
	db := newTestDB(t)

	c, rec := newTestContext(t, db, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("424242")
	if err := getProduct(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
