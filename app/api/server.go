package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rssync/app/cfg"
	"github.com/lysyi3m/rssync/app/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Aggregated lists
	r.GET("/lists", handler.GetLists)
	r.GET("/lists/:slug", handler.GetListItems)
	r.GET("/lists/:slug/rss", handler.GetListRSS)

	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API endpoints (conditionally enabled with authentication)
	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			// Cron jobs hit these with GET
			api.GET("/refresh/all", handler.APIRefreshAll)
			api.POST("/refresh/all", handler.APIRefreshAll)
			api.GET("/refresh/:id", handler.APIRefreshSource)
			api.POST("/refresh/:id", handler.APIRefreshSource)

			api.POST("/sources/validate", handler.APIValidateSource)
			api.GET("/sources/:id/facets", handler.APIGetSourceFacets)

			api.GET("/users/:user_id/lists/:slug/rss", handler.APIGetUserListRSS)
		}
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Info("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"lists":      "/lists",
			"list_rss":   "/lists/<slug>/rss",
			"list_items": "/lists/<slug>?limit=<n>",
			"health":     "/health",
			"metrics":    "/metrics",
		}

		if apiAccessKey != "" {
			endpoints["refresh_all"] = "/api/refresh/all (requires X-API-Key header)"
			endpoints["refresh_source"] = "/api/refresh/<id> (requires X-API-Key header)"
			endpoints["validate"] = "/api/sources/validate (POST, requires X-API-Key header)"
			endpoints["facets"] = "/api/sources/<id>/facets (requires X-API-Key header)"
			endpoints["user_list_rss"] = "/api/users/<user_id>/lists/<slug>/rss (requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "RSSync",
			"version":     cfg.GetVersion(),
			"description": "RSS/Atom aggregator with per-list author and category filters",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
