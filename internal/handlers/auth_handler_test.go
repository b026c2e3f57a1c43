package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/barber-manager/internal/dbtest"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func TestRegisterLoginAndMe(t *testing.T) {
	db := dbtest.Open(t)
	cfg := testConfig()

	h := NewAuthHandler(db, cfg)
	h.emailDomainOK = func(context.Context, string) bool { return true }

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/me", middleware.AuthMiddleware(cfg), NewMeHandler(db).GetMe)

	register := map[string]any{
		"barbershop_name": "Navalha",
		"barbershop_slug": " Navalha ",
		"timezone":        "UTC",
		"name":            "Ana",
		"email":           "Ana@Navalha.test",
		"password":        "segredo1",
	}

	w := do(r, http.MethodPost, "/auth/register", register, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", w.Code, w.Body)
	}
	var created struct {
		Token string `json:"token"`
		User  struct {
			Role  string `json:"role"`
			Email string `json:"email"`
		} `json:"user"`
		Barbershop struct {
			Slug string `json:"slug"`
		} `json:"barbershop"`
	}
	decode(t, w, &created)
	if created.Token == "" || created.User.Role != "admin" || created.User.Email != "ana@navalha.test" {
		t.Fatalf("unexpected register body %+v", created)
	}
	if created.Barbershop.Slug != "navalha" {
		t.Fatalf("slug = %q", created.Barbershop.Slug)
	}

	w = do(r, http.MethodPost, "/auth/register", register, "")
	if w.Code != http.StatusConflict || errorCode(t, w) != "slug_already_exists" {
		t.Fatalf("duplicate register = %d %s", w.Code, w.Body)
	}

	w = do(r, http.MethodPost, "/auth/login", map[string]any{"email": "ana@navalha.test", "password": "errada"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password = %d", w.Code)
	}

	w = do(r, http.MethodPost, "/auth/login", map[string]any{"email": "ANA@navalha.test", "password": "segredo1"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body)
	}
	var logged struct {
		Token string `json:"token"`
	}
	decode(t, w, &logged)

	w = do(r, http.MethodGet, "/me", nil, logged.Token)
	if w.Code != http.StatusOK {
		t.Fatalf("me = %d %s", w.Code, w.Body)
	}
	var me struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Barbershop struct {
			Slug string `json:"slug"`
		} `json:"barbershop"`
	}
	decode(t, w, &me)
	if me.User.Name != "Ana" || me.Barbershop.Slug != "navalha" {
		t.Fatalf("me = %+v", me)
	}
}

func TestRegisterRejectsUnknownEmailDomain(t *testing.T) {
	db := dbtest.Open(t)
	h := NewAuthHandler(db, testConfig())
	h.emailDomainOK = func(context.Context, string) bool { return false }

	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := do(r, http.MethodPost, "/auth/register", map[string]any{
		"barbershop_name": "Navalha",
		"barbershop_slug": "navalha",
		"name":            "Ana",
		"email":           "ana@dominio-inexistente.test",
		"password":        "segredo1",
	}, "")
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_email_domain" {
		t.Fatalf("got %d %s", w.Code, w.Body)
	}

	var count int64
	db.Model(&models.Barbershop{}).Count(&count)
	if count != 0 {
		t.Fatalf("barbershop created on rejected register")
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	e := newEnv(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("segredo1"), bcrypt.MinCost)
	e.db.Model(&e.bruno).Updates(map[string]any{"password_hash": string(hash), "active": false})

	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(e.db, e.cfg).Login)

	w := do(r, http.MethodPost, "/auth/login", map[string]any{"email": "bruno@navalha.test", "password": "segredo1"}, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("inactive login = %d %s", w.Code, w.Body)
	}
}
