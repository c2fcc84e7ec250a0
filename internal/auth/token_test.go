package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signedTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func TestExtractUserIDFromJWT(t *testing.T) {
	token := signedTestToken(t, jwt.MapClaims{"sub": "user-123"})

	userID, err := ExtractUserIDFromJWT(token)
	if err != nil {
		t.Fatalf("Failed to extract user ID: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Expected user-123, got %s", userID)
	}
}

func TestExtractUserIDFromJWTMissingSubject(t *testing.T) {
	token := signedTestToken(t, jwt.MapClaims{"name": "no subject here"})

	if _, err := ExtractUserIDFromJWT(token); err == nil {
		t.Error("Expected error for token without subject")
	}
}

func TestExtractUserIDFromJWTMalformed(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b"} {
		if _, err := ExtractUserIDFromJWT(token); err == nil {
			t.Errorf("Expected error for malformed token %q", token)
		}
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	got, err := ExtractTokenFromRequest(req)
	if err != nil {
		t.Fatalf("Failed to extract token: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Errorf("Expected bearer token, got %q", got)
	}

	req.Header.Set("Authorization", "Basic abc")
	if _, err := ExtractTokenFromRequest(req); err == nil {
		t.Error("Expected error for non-bearer header")
	}

	req.Header.Del("Authorization")
	if _, err := ExtractTokenFromRequest(req); err == nil {
		t.Error("Expected error without header")
	}
}

func TestUnverifiedMiddleware(t *testing.T) {
	mw := unverifiedMiddleware()

	var seenUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserID(r.Context())
	}))

	token := signedTestToken(t, jwt.MapClaims{"sub": "user-123"})
	req := httptest.NewRequest("GET", "/api/orders/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if seenUserID != "user-123" {
		t.Errorf("Expected user-123 in context, got %q", seenUserID)
	}

	// No token means no identity.
	req = httptest.NewRequest("GET", "/api/orders/me", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
}

func TestUserIDContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-123")

	if got := UserID(ctx); got != "user-123" {
		t.Errorf("Expected user-123, got %s", got)
	}
	if got := UserID(context.Background()); got != "" {
		t.Errorf("Expected empty user ID on bare context, got %s", got)
	}
}
