package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hphungg/chatbot-sub000/pkg/models"
)

func TestMiddlewareAttachesUser(t *testing.T) {
	service := NewJWTService("secret", time.Hour)
	token, err := service.Generate(&models.User{ID: "user-1", Name: "Nguyễn Thị An"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var got *models.User
	handler := Middleware(service, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got == nil || got.ID != "user-1" {
		t.Fatalf("context user = %+v", got)
	}
}

func TestMiddlewareRejects(t *testing.T) {
	service := NewJWTService("secret", time.Hour)
	handler := Middleware(service, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without credentials")
	}))

	cases := map[string]string{
		"missing": "",
		"basic":   "Basic dXNlcjpwYXNz",
		"garbage": "Bearer not-a-jwt",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}
