package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/config"
	"github.com/cleanspin/laundry-ops/internal/database"
	"github.com/cleanspin/laundry-ops/internal/handlers"
	"github.com/cleanspin/laundry-ops/internal/middleware"
	"github.com/cleanspin/laundry-ops/internal/services"
	"github.com/cleanspin/laundry-ops/internal/workflow"
	"github.com/cleanspin/laundry-ops/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

// stores bundles the persistence behind the services for one driver
type stores struct {
	attendance services.AttendanceStore
	stations   services.StationStore
	staff      services.StaffDirectory
	db         database.DB // nil for the memory driver
	close      func() error
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Laundry Ops backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	clock, err := workflow.NewSystemClock(cfg.Attendance.Timezone)
	if err != nil {
		logger.Fatalf("Failed to load attendance time zone: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"timezone": cfg.Attendance.Timezone,
		"today":    clock.Today(),
	}).Info("Attendance clock ready")

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	st, err := openStores(cfg, jwtService, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer st.close()

	// Initialize services
	logger.Info("Initializing services...")
	auditService := services.NewAuditService(st.db, logger, cfg.Security.EnableAuditLog)
	attendanceService := services.NewAttendanceService(st.attendance, clock, auditService, logger)
	stationService := services.NewStationService(st.stations, st.staff, st.attendance, clock, auditService, logger)

	cronService := services.NewCronService(st.attendance, st.stations, clock, cfg.Cron.StaleBypassAfter, clock.Location(), logger)
	if cfg.Cron.Enabled {
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	router.GET("/health", healthCheckHandler(st.db))

	api := router.Group("/api/v1")
	handlers.RegisterRoutes(api, handlers.RouteDeps{
		JWT:         jwtService,
		Attendance:  attendanceService,
		Stations:    stationService,
		CheckInPath: cfg.Attendance.CheckInPath,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Cron.Enabled {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

func openStores(cfg *config.Config, jwtService *jwt.Service, logger *logrus.Logger) (*stores, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("DATABASE_DRIVER=memory: state is kept in process memory and lost on restart")
		mem := database.NewMemoryStore()
		seedDemoData(mem, jwtService, logger)
		return &stores{
			attendance: mem,
			stations:   mem,
			staff:      mem,
			close:      func() error { return nil },
		}, nil
	}

	logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		if version, dirty, err := database.MigrationVersion(db); err == nil {
			logger.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Schema migrations applied")
		}
	}

	orders := database.NewStationOrderRepository(db.DB)
	return &stores{
		attendance: database.NewAttendanceRepository(db.DB),
		stations:   orders,
		staff:      database.NewOutletStaffRepository(db.DB),
		db:         db,
		close:      db.Close,
	}, nil
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_auth":   c.GetHeader("Authorization") != "",
		}

		// Add user context if available
		if uc, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = uc.UserID
			fields["role"] = uc.Role
			if uc.OutletStaffID != nil {
				fields["outlet_staff_id"] = *uc.OutletStaffID
			}
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{
				"status":    "healthy",
				"database":  "memory",
				"version":   version,
				"timestamp": time.Now().Unix(),
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
