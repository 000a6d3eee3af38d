package bootstrap

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/api"
	"github.com/jonesrussell/north-cloud/parse-rules/internal/server"
)

// SetupHTTPServer creates the HTTP server with all handlers wired.
func SetupHTTPServer(a *App) *server.Server {
	cfg := a.Config
	handler := api.NewHandler(a.Annotator, a.Rules.Store, a.Logger)
	started := time.Now()

	return server.NewServer(&server.Config{
		Port:           cfg.Service.Port,
		Debug:          cfg.Service.Debug,
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
	}, a.Logger, func(router *gin.Engine) {
		server.RegisterHealthRoutes(router, cfg.Service.Name, cfg.Service.Version, started,
			map[string]server.HealthChecker{
				"rules": func() server.CheckResult {
					idx := a.Rules.Store.Current()
					if idx == nil {
						return server.CheckResult{Status: server.HealthStatusUnhealthy, Message: "no rule index"}
					}
					return server.CheckResult{
						Status:  server.HealthStatusHealthy,
						Message: fmt.Sprintf("%d rules across %d domains", idx.Len(), len(idx.Domains())),
					}
				},
			})
		server.RegisterMetrics(router, a.Registry)
		api.SetupRoutes(router, handler, cfg.Auth.JWTSecret)
	})
}
