package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/iuiualumni/alumni-backend/pkg/auth"
	"github.com/iuiualumni/alumni-backend/pkg/config"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/types"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "iuaa-test",
	ExpirationMinutes: 15,
}

type stubSessionChecker struct {
	live map[string]bool
	err  error
}

func (s *stubSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.live[accessID], nil
}

func mintTestToken(t *testing.T, identityID uuid.UUID, jti string, staff bool) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWTConfig, time.Now(), pkgauth.AccessTokenPayload{
		IdentityID: identityID,
		MemberID:   "MEM-AB12CD",
		Email:      "grace.obi@example.com",
		IsStaff:    staff,
		JTI:        jti,
	})
	require.NoError(t, err)
	return token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestAuthSeedsIdentityContext(t *testing.T) {
	identityID := uuid.New()
	checker := &stubSessionChecker{live: map[string]bool{"jti-1": true}}

	var seen struct {
		identityID uuid.UUID
		memberID   string
		accessID   string
		isStaff    bool
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.identityID = IdentityIDFromContext(r.Context())
		seen.memberID = MemberIDFromContext(r.Context())
		seen.accessID = AccessIDFromContext(r.Context())
		seen.isStaff = IsStaffFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, identityID, "jti-1", true))
	rec := httptest.NewRecorder()

	Auth(testJWTConfig, checker, nil)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, identityID, seen.identityID)
	assert.Equal(t, "MEM-AB12CD", seen.memberID)
	assert.Equal(t, "jti-1", seen.accessID)
	assert.True(t, seen.isStaff)
}

func TestAuthRejectsMissingAndGarbageTokens(t *testing.T) {
	checker := &stubSessionChecker{live: map[string]bool{}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	handler := Auth(testJWTConfig, checker, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), errorCode(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	// Token is valid but its session no longer exists in Redis.
	checker := &stubSessionChecker{live: map[string]bool{}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, uuid.New(), "jti-gone", false))
	rec := httptest.NewRecorder()

	Auth(testJWTConfig, checker, nil)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), errorCode(t, rec))
}

func TestRequireStaffForbidsMembers(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireStaff(nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), "MEM-AB12CD", "jti-1", false, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeForbidden), errorCode(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), "ADM-XY34ZQ", "jti-2", true, false))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
