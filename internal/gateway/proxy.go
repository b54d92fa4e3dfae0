package gateway

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-auth/internal/auth"
	"github.com/spec-kit/campus-auth/internal/config"
	apperrors "github.com/spec-kit/campus-auth/pkg/util"
)

// Forward proxies a request to the upstream, preserving method, path and
// body. The request arrives here with X-Auth-Subject / X-Auth-Role already
// injected on enforced routes.
func Forward(upstream string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := upstream + c.OriginalURL()
		if err := proxy.Do(c, target); err != nil {
			logger.Error("upstream unreachable", zap.String("target", target), zap.Error(err))
			return apperrors.NewUpstreamUnavailable(err)
		}
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}

// RegisterRoutes wires the perimeter. The auth upstream is reachable
// without a token so clients can register and log in; every other
// configured upstream sits behind the enforcement filter.
func RegisterRoutes(app *fiber.App, cfg config.GatewayConfig, enforce *auth.EnforcementMiddleware, logger *zap.Logger) {
	if cfg.AuthUpstream != "" {
		app.All("/auth/*", Forward(cfg.AuthUpstream, logger))
	}

	for _, route := range cfg.Routes {
		group := app.Group(route.Prefix, enforce.Handle)
		group.All("/*", Forward(route.Upstream, logger))
	}
}
