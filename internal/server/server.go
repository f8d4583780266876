// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"snipstream/internal/config"
	"snipstream/internal/database"
	"snipstream/internal/middleware"
	"snipstream/internal/models"
	"snipstream/internal/observability"
	"snipstream/internal/realtime"
	"snipstream/internal/repository"
	"snipstream/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	snippetRepo      repository.SnippetRepository
	docRepo          repository.DocRepository
	bugRepo          repository.BugRepository
	commentRepo      repository.CommentRepository
	likeRepo         repository.LikeRepository
	bookmarkRepo     repository.BookmarkRepository
	followRepo       repository.FollowRepository
	notificationRepo repository.NotificationRepository
	preferenceRepo   repository.PreferenceRepository

	notifier   *realtime.Notifier
	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher

	feedService         *service.FeedService
	snippetService      *service.SnippetService
	docService          *service.DocService
	bugService          *service.BugService
	commentService      *service.CommentService
	interactionService  *service.InteractionService
	followService       *service.FollowService
	userService         *service.UserService
	notificationService *service.NotificationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if pingErr := redisClient.Ping(context.Background()).Err(); pingErr != nil {
			middleware.Logger.Warn("redis unavailable, realtime delivery is single-instance only",
				"addr", cfg.RedisURL, "error", pingErr)
			redisClient = nil
		}
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: observability.InitHTTPMetrics("snipstream-api"),

		userRepo:         repository.NewUserRepository(db),
		snippetRepo:      repository.NewSnippetRepository(db),
		docRepo:          repository.NewDocRepository(db),
		bugRepo:          repository.NewBugRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		likeRepo:         repository.NewLikeRepository(db),
		bookmarkRepo:     repository.NewBookmarkRepository(db),
		followRepo:       repository.NewFollowRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		preferenceRepo:   repository.NewPreferenceRepository(db),
	}

	// The registry always exists so single-instance deployments work without
	// Redis; the notifier bridge is wired only when Redis is available.
	server.registry = realtime.NewRegistry()
	if redisClient != nil {
		server.notifier = realtime.NewNotifier(redisClient)
	}
	server.dispatcher = realtime.NewDispatcher(server.followRepo, server.notifier, server.registry)

	server.notificationService = service.NewNotificationService(
		server.notificationRepo, server.userRepo, server.preferenceRepo, server.dispatcher)
	server.feedService = service.NewFeedService(
		server.snippetRepo, server.docRepo, server.bugRepo, server.followRepo)
	server.snippetService = service.NewSnippetService(server.snippetRepo, server.userRepo, server.dispatcher)
	server.docService = service.NewDocService(server.docRepo, server.userRepo, server.dispatcher)
	server.bugService = service.NewBugService(
		server.bugRepo, server.userRepo, server.dispatcher, server.notificationService)
	server.commentService = service.NewCommentService(
		server.commentRepo, server.snippetRepo, server.docRepo, server.bugRepo,
		server.dispatcher, server.notificationService)
	server.interactionService = service.NewInteractionService(
		server.likeRepo, server.bookmarkRepo, server.snippetRepo, server.docRepo, server.bugRepo,
		server.dispatcher, server.notificationService)
	server.followService = service.NewFollowService(
		server.followRepo, server.userRepo, server.notificationService)
	server.userService = service.NewUserService(server.userRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Request spans (after context middleware so propagated attrs are present)
	app.Use(middleware.TracingMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Snipstream Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.AuthRequired(), s.Refresh)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Feed. Anonymous viewers get the public fallback.
	api.Get("/feed", s.OptionalAuth, s.GetFeed)

	// Public browse/search routes. The optional viewer identity drives the
	// per-item liked/bookmarked flags.
	publicSnippets := api.Group("/snippets", s.OptionalAuth)
	publicSnippets.Get("/", s.SearchContent(models.KindSnippet))
	publicSnippets.Get("/:id/comments", s.GetComments(models.KindSnippet))
	publicSnippets.Get("/:id", s.GetSnippet)

	publicDocs := api.Group("/docs", s.OptionalAuth)
	publicDocs.Get("/", s.SearchContent(models.KindDoc))
	publicDocs.Get("/:id/comments", s.GetComments(models.KindDoc))
	publicDocs.Get("/:id", s.GetDoc)

	publicBugs := api.Group("/bugs", s.OptionalAuth)
	publicBugs.Get("/", s.SearchContent(models.KindBug))
	publicBugs.Get("/:id/comments", s.GetComments(models.KindBug))
	publicBugs.Get("/:id", s.GetBug)

	// Public user routes
	publicUsers := api.Group("/users", s.OptionalAuth)
	publicUsers.Get("/", s.SearchUsers)
	publicUsers.Get("/by-username/:username", s.GetUserByUsername)

	// WebSocket ticket issuance
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// User routes. Specific /:id/:resource routes go BEFORE the generic /:id.
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Delete("/me", s.DeleteMyAccount)
	users.Post("/:id/follow", s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)
	users.Get("/:id/follow", s.GetFollowStatus)

	publicUsers.Get("/:id/followers", s.GetFollowers)
	publicUsers.Get("/:id/following", s.GetFollowing)
	publicUsers.Get("/:id/snippets", s.GetUserContent(models.KindSnippet))
	publicUsers.Get("/:id/docs", s.GetUserContent(models.KindDoc))
	publicUsers.Get("/:id/bugs", s.GetUserContent(models.KindBug))
	publicUsers.Get("/:id", s.GetUserProfile)

	// Protected content routes
	snippets := protected.Group("/snippets")
	snippets.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_content"), s.CreateSnippet)
	snippets.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment(models.KindSnippet))
	snippets.Post("/:id/like", s.ToggleLike(models.KindSnippet))
	snippets.Post("/:id/bookmark", s.ToggleBookmark(models.KindSnippet))
	snippets.Put("/:id", s.UpdateSnippet)
	snippets.Delete("/:id", s.DeleteSnippet)

	docs := protected.Group("/docs")
	docs.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_content"), s.CreateDoc)
	docs.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment(models.KindDoc))
	docs.Post("/:id/like", s.ToggleLike(models.KindDoc))
	docs.Post("/:id/bookmark", s.ToggleBookmark(models.KindDoc))
	docs.Put("/:id", s.UpdateDoc)
	docs.Delete("/:id", s.DeleteDoc)

	bugs := protected.Group("/bugs")
	bugs.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_content"), s.CreateBug)
	bugs.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment(models.KindBug))
	bugs.Post("/:id/like", s.ToggleLike(models.KindBug))
	bugs.Post("/:id/bookmark", s.ToggleBookmark(models.KindBug))
	bugs.Patch("/:id/status", s.UpdateBugStatus)
	bugs.Delete("/:id", s.DeleteBug)

	// Comments are deleted by their own id, not through the content they
	// hang off.
	protected.Delete("/comments/:id", s.DeleteComment)

	// Bookmarks listing
	protected.Get("/bookmarks", s.GetBookmarks)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.Get("/", s.GetNotifications)
	notifications.Post("/read", s.MarkNotificationsRead)
	notifications.Get("/unread-count", s.GetUnreadCount)
	notifications.Get("/preferences", s.GetPreferences)
	notifications.Put("/preferences", s.UpdatePreferences)

	// Websocket endpoint - protected by AuthRequired (ticket or token)
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/", s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Without Redis the server still works but fan-out is local-only.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. It accepts either a
// short-lived single-use WebSocket ticket (query parameter) or a Bearer JWT.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		isWSPath := strings.HasPrefix(path, "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		ticket := c.Query("ticket")
		if ticket != "" && s.redis != nil {
			key := fmt.Sprintf("ws_ticket:%s", ticket)
			userIDStr, err := s.redis.GetDel(c.Context(), key).Result()
			if err == nil {
				userID, parseErr := strconv.ParseUint(userIDStr, 10, 32)
				if parseErr == nil {
					return s.authenticated(c, uint(userID))
				}
			}
			// A ticket was provided but invalid or expired. WS routes only
			// accept tickets, so fail here instead of falling through.
			if isWSPath {
				return models.RespondWithError(c,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, err)
		}

		// Check JTI for revocation
		if s.redis != nil {
			if jti := s.tokenJTI(tokenString); jti != "" {
				blacklisted, berr := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if berr == nil && blacklisted > 0 {
					return models.RespondWithError(c,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		return s.authenticated(c, userID)
	}
}

// authenticated records the resolved viewer in locals and the user context,
// then passes the request on.
func (s *Server) authenticated(c *fiber.Ctx, userID uint) error {
	c.Locals("userID", userID)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
	return c.Next()
}

// parseToken validates a JWT and returns the user ID from its subject claim.
func (s *Server) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, models.NewUnauthorizedError("Invalid token claims")
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return 0, models.NewUnauthorizedError("Invalid token issuer")
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return 0, models.NewUnauthorizedError("Invalid token audience")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, models.NewUnauthorizedError("Invalid user ID in token")
	}
	return uint(userID), nil
}

// tokenJTI extracts the jti claim without re-validating; callers must have
// already validated the token.
func (s *Server) tokenJTI(tokenString string) string {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	jti, _ := claims["jti"].(string)
	return jti
}

// OptionalAuth resolves the viewer from the Authorization header when present
// but lets anonymous requests through. Read paths use this so personalized
// flags appear only for signed-in viewers.
func (s *Server) OptionalAuth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Next()
	}
	if userID, err := s.parseToken(parts[1]); err == nil {
		return s.authenticated(c, userID)
	}
	return c.Next()
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Snipstream API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			observability.RecordError(c.UserContext(), err)
			return models.RespondWithError(c, models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Bridge Redis pub/sub into the local registry so every instance
	// delivers events published anywhere.
	if s.notifier != nil {
		go func() {
			if err := s.registry.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start registry wiring", "error", err)
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.registry != nil {
		if err := s.registry.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down websocket registry", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
