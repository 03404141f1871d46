package httptransport

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"sleepvoice-server-go/internal/domain/auth"
	"sleepvoice-server-go/internal/platform/config"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
	"sleepvoice-server-go/internal/platform/ratelimit"
)

// Options configures the HTTP router builder.
type Options struct {
	Server  config.ServerConfig
	Debug   bool
	Logger  *logging.Logger
	Metrics *observability.Metrics
	// MetricsPath mounts the Prometheus handler when Metrics is set.
	MetricsPath string
	// ClipsDir is served under /clips when it exists.
	ClipsDir string
	// Authority verifies device tokens; nil reads identity headers instead.
	Authority *auth.TokenAuthority
	Limiter   *ratelimit.Limiter
}

// Router bundles together the gin engine and common route groups.
type Router struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	Secured *gin.RouterGroup
}

// Build constructs a gin engine pre-configured with logging, recovery, CORS
// and metrics middlewares. Secured routes resolve the device identity and
// apply the per-device rate limit.
func Build(opts Options) (*Router, error) {
	logger := opts.Logger
	if logger == nil {
		return nil, fmt.Errorf("http router requires a logger")
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(logger))
	engine.Use(metricsMiddleware(opts.Metrics))

	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	origins := opts.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			auth.HeaderDevice,
			auth.HeaderAccount,
		},
		ExposeHeaders: append([]string{"Content-Length"}, resultHeaders...),
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	engine.Use(cors.New(corsCfg))

	if opts.ClipsDir != "" {
		if info, err := os.Stat(opts.ClipsDir); err == nil && info.IsDir() {
			engine.Use(static.Serve("/clips", static.LocalFile(opts.ClipsDir, false)))
		} else {
			logger.WarnTag("HTTP", "clips directory %s not found, /clips disabled", opts.ClipsDir)
		}
	}

	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	registerDocs(engine, logger)

	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			RespondError(c, http.StatusNotFound, "api not found", gin.H{})
			return
		}
		c.Status(http.StatusNotFound)
	})

	api := engine.Group("/api")
	secured := api.Group("")
	secured.Use(DeviceMiddleware(opts.Authority, opts.Limiter, logger))

	return &Router{
		Engine:  engine,
		API:     api,
		Secured: secured,
	}, nil
}

func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		logger.InfoTag("HTTP", "%s %s -> %d (%s)",
			c.Request.Method,
			c.Request.URL.Path,
			status,
			duration,
		)
	}
}

func metricsMiddleware(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		reqCtx, spanEnd := observability.StartSpan(c.Request.Context(), "http.server", route)
		c.Request = c.Request.WithContext(reqCtx)

		start := time.Now()
		c.Next()

		var spanErr error
		if len(c.Errors) > 0 {
			spanErr = c.Errors.Last().Err
		} else if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			spanErr = fmt.Errorf("status %d", status)
		}
		spanEnd(spanErr)

		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
