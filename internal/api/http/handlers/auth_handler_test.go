package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/campus-auth/internal/api/http"
	"github.com/spec-kit/campus-auth/internal/api/http/handlers"
	"github.com/spec-kit/campus-auth/internal/auth"
	"github.com/spec-kit/campus-auth/internal/domain"
	"github.com/spec-kit/campus-auth/internal/observability"
	"github.com/spec-kit/campus-auth/internal/repository"
	"github.com/spec-kit/campus-auth/internal/service"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return repository.ErrDuplicateIdentity
	}
	copied := *user
	r.users[user.Email] = &copied
	return nil
}

func newAuthApp(t *testing.T, codec *auth.TokenCodec) *fiber.App {
	t.Helper()

	svc := service.NewAuthService(service.AuthDependencies{
		UserRepo: &memoryUserRepo{users: make(map[string]*domain.User)},
		Hasher:   auth.NewBcryptHasher(bcrypt.MinCost),
		Tokens:   codec,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler("campus-auth", "test", nil, nil),
		Auth:   handlers.NewAuthHandler(svc),
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func errorCode(body map[string]any) string {
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestRegisterLoginEnforceScenario(t *testing.T) {
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	app := newAuthApp(t, codec)

	// Register alice as STUDENT.
	resp, body := postJSON(t, app, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "p@ss1", "role": "STUDENT",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "alice@example.com", data["email"])
	assert.Equal(t, "STUDENT", data["role"])

	// Duplicate registration is rejected without mutation.
	resp, body = postJSON(t, app, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "IDENTITY_EXISTS", errorCode(body))

	// Wrong password yields no token.
	resp, body = postJSON(t, app, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(body))

	// Unknown identity is reported distinctly at the issuance boundary.
	resp, body = postJSON(t, app, "/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "p@ss1",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(body))

	// Correct login returns a token embedding the registered role.
	resp, body = postJSON(t, app, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "p@ss1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loginData := body["data"].(map[string]any)
	token := loginData["token"].(string)
	assert.Equal(t, "STUDENT", loginData["role"])

	principal, err := codec.Verify(token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal.Subject)
	assert.Equal(t, domain.RoleStudent, principal.Role)

	// The perimeter forwards the valid token and denies a tampered one.
	perimeter := fiber.New()
	httptransport.RegisterMiddlewares(perimeter, zap.NewNop(), observability.NewMetrics(), 0)
	enforce := auth.NewEnforcementMiddleware(codec, zap.NewNop())
	perimeter.Get("/students", enforce.Handle, func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	okResp, err := perimeter.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, okResp.StatusCode)

	flipped := []byte(token)
	if flipped[10] == 'x' {
		flipped[10] = 'y'
	} else {
		flipped[10] = 'x'
	}
	req = httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+string(flipped))
	deniedResp, err := perimeter.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, deniedResp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	app := newAuthApp(t, codec)

	resp, body := postJSON(t, app, "/auth/register", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	resp, body = postJSON(t, app, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "p@ss1", "role": "OVERLORD",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestHealthLive(t *testing.T) {
	codec := auth.NewTokenCodec(testSecret, time.Hour)
	app := newAuthApp(t, codec)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
