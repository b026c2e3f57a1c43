package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/config"
	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	db      *gorm.DB
	cfg     *config.Config
	shop    models.Barbershop
	ana     models.User // admin
	bruno   models.User // barber
	service models.Service
	client  models.Client
	day     time.Time
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		SlotMinutes:   15,
		PublicBaseURL: "http://api.test",
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	e := &env{db: db, cfg: testConfig()}

	e.shop = models.Barbershop{Name: "Navalha", Slug: "navalha", Timezone: "UTC", SlotMinutes: 15, MinAdvanceMinutes: 60, Active: true}
	mustCreate(t, db, &e.shop)

	e.ana = models.User{BarbershopID: e.shop.ID, Name: "Ana", Email: "ana@navalha.test", PasswordHash: "x", Role: "admin", Active: true}
	e.bruno = models.User{BarbershopID: e.shop.ID, Name: "Bruno", Email: "bruno@navalha.test", PasswordHash: "x", Role: "barber", Active: true, CommissionRate: decimal.NewFromInt(40)}
	mustCreate(t, db, &e.ana)
	mustCreate(t, db, &e.bruno)

	e.service = models.Service{BarbershopID: e.shop.ID, Name: "Corte", DurationMin: 30, Price: decimal.NewFromInt(50), Active: true}
	mustCreate(t, db, &e.service)

	e.client = models.Client{BarbershopID: e.shop.ID, Name: "Carlos", Phone: "5511988887777"}
	mustCreate(t, db, &e.client)

	for wd := 0; wd < 7; wd++ {
		mustCreate(t, db, &models.BusinessHours{BarbershopID: e.shop.ID, Weekday: wd, OpenTime: "09:00", CloseTime: "18:00"})
	}

	d := time.Now().UTC().AddDate(0, 0, 14)
	e.day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return e
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (e *env) token(t *testing.T, u models.User) string {
	t.Helper()
	tok, err := NewAuthHandler(e.db, e.cfg).generateToken(&u)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

// api returns an engine with an authenticated /api group.
func (e *env) api() (*gin.Engine, *gin.RouterGroup) {
	r := gin.New()
	return r, r.Group("/api", middleware.AuthMiddleware(e.cfg))
}

func do(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"error_code"`
	}
	decode(t, w, &body)
	return body.Code
}
