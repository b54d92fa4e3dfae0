package auth_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/campus-auth/internal/api/http"
	"github.com/spec-kit/campus-auth/internal/auth"
	"github.com/spec-kit/campus-auth/internal/domain"
	"github.com/spec-kit/campus-auth/internal/observability"
)

func newProtectedApp(t *testing.T, codec *auth.TokenCodec) *fiber.App {
	t.Helper()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)

	enforce := auth.NewEnforcementMiddleware(codec, zap.NewNop())
	app.Get("/grades", enforce.Handle, func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusInternalServerError, "principal missing")
		}
		return c.JSON(fiber.Map{
			"subject":        principal.Subject,
			"role":           string(principal.Role),
			"header_subject": c.Get(auth.HeaderSubject),
			"header_role":    c.Get(auth.HeaderRole),
		})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authorization string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/grades", nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	return resp, decoded
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func TestEnforcementMissingHeader(t *testing.T) {
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	app := newProtectedApp(t, codec)

	resp, body := doRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_CREDENTIAL", errorCode(t, body))
}

func TestEnforcementDeniesUniformly(t *testing.T) {
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	app := newProtectedApp(t, codec)

	now := time.Now()
	valid, _, err := codec.Mint("alice@example.com", domain.RoleStudent, now)
	require.NoError(t, err)

	expired, _, err := codec.Mint("alice@example.com", domain.RoleStudent, now.Add(-2*time.Hour))
	require.NoError(t, err)

	foreign, _, err := auth.NewTokenCodec([]byte("some-other-shared-secret-value00"), time.Hour).
		Mint("alice@example.com", domain.RoleStudent, now)
	require.NoError(t, err)

	tampered := []byte(valid)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	// Malformed, expired and badly-signed tokens all produce the same
	// response; the perimeter never reveals which check failed.
	tests := []struct {
		name   string
		header string
	}{
		{name: "garbage token", header: "Bearer not-a-token"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong secret", header: "Bearer " + foreign},
		{name: "tampered token", header: "Bearer " + string(tampered)},
		{name: "lowercase bearer prefix", header: "bearer " + valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, app, tt.header)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "ACCESS_DENIED", errorCode(t, body))
		})
	}
}

func TestEnforcementForwardsValidToken(t *testing.T) {
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	app := newProtectedApp(t, codec)

	token, _, err := codec.Mint("alice@example.com", domain.RoleStudent, time.Now())
	require.NoError(t, err)

	resp, body := doRequest(t, app, "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", body["subject"])
	assert.Equal(t, "STUDENT", body["role"])
	assert.Equal(t, "alice@example.com", body["header_subject"])
	assert.Equal(t, "STUDENT", body["header_role"])
}

func TestEnforcementAcceptsRawToken(t *testing.T) {
	// Without a recognized bearer prefix the whole header value is the
	// token candidate.
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	app := newProtectedApp(t, codec)

	token, _, err := codec.Mint("bob@example.com", domain.RoleProfessor, time.Now())
	require.NoError(t, err)

	resp, body := doRequest(t, app, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@example.com", body["subject"])
	assert.Equal(t, "PROFESSOR", body["role"])
}
