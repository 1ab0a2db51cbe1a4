package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/redalab/redalab-backend/internal/auth/middleware"
	"github.com/redalab/redalab-backend/internal/rbac"
)

func TestJWTRoundTrip(t *testing.T) {
	a := auth.NewAuthService("test-secret")
	tok, err := a.IssueJWT("user-1", rbac.RoleTeacher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Sub != "user-1" || c.Role != rbac.RoleTeacher {
		t.Fatalf("claims = %+v, want user-1/teacher", c)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := auth.NewAuthService("secret-a").IssueJWT("user-1", rbac.RoleStudent)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := auth.NewAuthService("secret-b").Parse(tok); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestJWTMiddlewarePopulatesContext(t *testing.T) {
	a := auth.NewAuthService("test-secret")
	tok, err := a.IssueJWT("user-1", rbac.RoleStudent)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotSub, gotRole string
	h := auth.JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = auth.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/essays", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSub != "user-1" || gotRole != rbac.RoleStudent {
		t.Fatalf("context = %q/%q, want user-1/student", gotSub, gotRole)
	}
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	h := auth.JWTMiddleware(auth.NewAuthService("test-secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/essays", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
