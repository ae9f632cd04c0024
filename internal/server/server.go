package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"collab-backend/internal/config"
	"collab-backend/internal/handler"
	"collab-backend/internal/history"
	"collab-backend/internal/middleware"
	"collab-backend/internal/presence"
	"collab-backend/internal/relay"
	"collab-backend/internal/storage"
)

// Server Fiber 서버 래퍼
type Server struct {
	app             *fiber.App
	cfg             *config.Config
	db              *gorm.DB
	hub             *relay.Hub
	metrics         *middleware.Metrics
	fileHandler     *handler.FileHandler
	messageHandler  *handler.MessageHandler
	presenceHandler *handler.PresenceHandler
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB) *Server {
	app := fiber.New(fiber.Config{
		AppName:        "Collab Relay",
		ServerHeader:   "Fiber",
		StrictRouting:  true,
		CaseSensitive:  true,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		Prefork:        false, // WebSocket과 호환성 문제로 비활성화
		BodyLimit:      (cfg.Upload.MaxFileSizeMB + 1) * 1024 * 1024,
		ReadBufferSize: 16384,
	})

	store := history.NewStore(db)

	// Redis 연결 실패 시에도 릴레이는 동작 (presence만 비활성화)
	var presenceManager *presence.Manager
	pm, err := presence.NewManager(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("⚠️ Presence registry unavailable: %v", err)
	} else {
		presenceManager = pm
	}

	// S3 서비스 초기화 (선택적)
	var s3Service *storage.S3Service
	if cfg.S3.BucketName != "" && cfg.S3.AccessKeyID != "" {
		s3Service, err = storage.NewS3Service(&cfg.S3)
		if err != nil {
			log.Printf("⚠️ S3 service initialization failed: %v (file upload will be disabled)", err)
		}
	} else {
		log.Println("ℹ️ S3 service not configured (file upload will be disabled)")
	}

	var presenceSink relay.Presence
	if presenceManager != nil {
		presenceSink = presenceManager
	}
	hub := relay.NewHub(store, presenceSink, cfg.Chat.RecentMessageLimit, cfg.WebSocket.WriteTimeout)

	return &Server{
		app:             app,
		cfg:             cfg,
		db:              db,
		hub:             hub,
		metrics:         middleware.NewMetrics(),
		fileHandler:     handler.NewFileHandler(store, s3Service, cfg),
		messageHandler:  handler.NewMessageHandler(store, s3Service),
		presenceHandler: handler.NewPresenceHandler(presenceManager),
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// 요청 메트릭
	s.app.Use(s.metrics.Handler())
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	// 메트릭 엔드포인트
	s.app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.JSON(s.metrics.Snapshot())
	})

	// 접속자 조회
	s.app.Get("/presence", s.presenceHandler.GetOnlineUsers)

	// Rate Limiter (업로드 엔드포인트용)
	uploadLimiter := limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// 파일 라우트
	filesGroup := s.app.Group("/files")
	filesGroup.Post("/upload", uploadLimiter, s.fileHandler.UploadFile)
	filesGroup.Post("/bulk-delete", s.fileHandler.BulkDelete)
	filesGroup.Get("/:fileId", s.fileHandler.GetFileInfo)
	filesGroup.Delete("/:fileId", s.fileHandler.DeleteFile)

	// 메시지 라우트
	s.app.Delete("/messages/:messageId", s.messageHandler.DeleteMessage)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 릴레이 엔드포인트
	s.app.Get("/ws", websocket.New(s.hub.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Collab relay starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
