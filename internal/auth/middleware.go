package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/campus-auth/pkg/util"
)

const principalKey = "auth_principal"

// Downstream services read the verified identity from these headers and
// trust them without re-verifying the token.
const (
	HeaderSubject = "X-Auth-Subject"
	HeaderRole    = "X-Auth-Role"
)

const bearerPrefix = "Bearer "

// TokenVerifier is the codec capability the perimeter depends on.
type TokenVerifier interface {
	Verify(token string, now time.Time) (*Principal, error)
}

// EnforcementMiddleware guards every protected route at the perimeter. It
// never mints tokens and never touches the credential store.
type EnforcementMiddleware struct {
	tokens TokenVerifier
	logger *zap.Logger
}

// NewEnforcementMiddleware constructs the middleware around an explicit
// verifier dependency.
func NewEnforcementMiddleware(tokens TokenVerifier, logger *zap.Logger) *EnforcementMiddleware {
	return &EnforcementMiddleware{tokens: tokens, logger: logger}
}

// Handle validates the bearer token and forwards the request with the
// verified subject and role attached. All verification failures collapse
// into one uniform denial; only the absent-header case is reported
// distinctly.
func (m *EnforcementMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return apperrors.NewMissingCredential()
	}

	candidate := header
	if strings.HasPrefix(header, bearerPrefix) {
		candidate = header[len(bearerPrefix):]
	}

	principal, err := m.tokens.Verify(candidate, time.Now())
	if err != nil {
		m.logger.Debug("token rejected", zap.Error(err), zap.String("path", c.Path()))
		return apperrors.NewAccessDenied()
	}

	c.Locals(principalKey, principal)
	c.Request().Header.Set(HeaderSubject, principal.Subject)
	c.Request().Header.Set(HeaderRole, string(principal.Role))
	return c.Next()
}

// PrincipalFromContext retrieves the verified identity attached by Handle.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
