package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/stikes-adp-api/api/swagger"
	"github.com/noah-isme/stikes-adp-api/internal/handler"
	"github.com/noah-isme/stikes-adp-api/internal/middleware"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	"github.com/noah-isme/stikes-adp-api/internal/repository"
	"github.com/noah-isme/stikes-adp-api/internal/service"
	rediscache "github.com/noah-isme/stikes-adp-api/pkg/cache"
	"github.com/noah-isme/stikes-adp-api/pkg/config"
	"github.com/noah-isme/stikes-adp-api/pkg/database"
	"github.com/noah-isme/stikes-adp-api/pkg/export"
	"github.com/noah-isme/stikes-adp-api/pkg/jobs"
	"github.com/noah-isme/stikes-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/stikes-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/stikes-adp-api/pkg/middleware/requestid"
	"github.com/noah-isme/stikes-adp-api/pkg/storage"
)

// @title STIKES ADP API
// @version 1.0.0
// @description Administrative workflow core for a health sciences college
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Ambient services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "stikes-adp-api",
		SingleSession:      true,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)

	// Certificate artifact pipeline: queue workers render PDFs after the
	// issuing decision commits.
	artifactStore, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init certificate storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	renderer := export.NewCertificatePDF(cfg.Certificates.Institution, cfg.Certificates.AddressLine)

	var certificateSvc *service.CertificateService
	certificateQueue := jobs.NewQueue("certificates", func(ctx context.Context, job jobs.Job) error {
		return certificateSvc.HandleIssue(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Certificates.WorkerConcurrency,
		MaxRetries: cfg.Certificates.WorkerRetries,
		Logger:     logr,
	})
	certificateSvc = service.NewCertificateService(service.CertificateServiceParams{
		Repo:     certificateRepo,
		Users:    userRepo,
		Queue:    certificateQueue,
		Renderer: renderer,
		Store:    artifactStore,
		Signer:   signer,
		Logger:   logr,
	})

	// Domain services.
	leaveSvc := service.NewLeaveService(leaveRepo, facultyRepo, nil, logr)
	workflowSvc := service.NewWorkflowService(workflowRepo, nil, logr, cfg.Workflows.MaxSteps)
	refundSvc := service.NewRefundService(refundRepo, userRepo, nil, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, nil, logr)

	approvalSvc := service.NewApprovalService(service.ApprovalServiceParams{
		Leaves:       leaveRepo,
		Workflows:    workflowRepo,
		Certificates: certificateRepo,
		Refunds:      refundRepo,
		Cache:        cacheSvc,
		Audit:        userRepo,
		Issuer:       certificateSvc,
		Logger:       logr,
	})

	complianceSvc := service.NewComplianceService(service.ComplianceServiceParams{
		Departments: departmentRepo,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
		CacheTTL:    cfg.Compliance.CacheTTL,
		Logger:      logr,
	})
	calendarSvc := service.NewCalendarService(leaveRepo, metricsSvc, logr)
	impactSvc := service.NewImpactService(service.ImpactServiceParams{
		Leaves:      leaveRepo,
		Faculty:     facultyRepo,
		Departments: departmentRepo,
		Metrics:     metricsSvc,
		Threshold:   cfg.Impact.MSRRiskThreshold,
		Logger:      logr,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Leaves:       leaveRepo,
		Workflows:    workflowRepo,
		Certificates: certificateRepo,
		Refunds:      refundRepo,
		Impact:       impactSvc,
		Compliance:   complianceSvc,
		Notices:      noticeRepo,
		Cache:        cacheSvc,
		Logger:       logr,
		CacheTTL:     cfg.Dashboard.CacheTTL,
	})

	certificateQueue.Start(context.Background())
	defer certificateQueue.Stop()
	// Re-enqueue artifacts interrupted by an earlier shutdown.
	certificateSvc.RecoverPending(context.Background())

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc)
	refundHandler := handler.NewRefundHandler(refundSvc)
	complianceHandler := handler.NewComplianceHandler(complianceSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	impactHandler := handler.NewImpactHandler(impactSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// The notice board read side is public: anonymous callers get only
	// ALL-audience notices, authenticated ones their role's audiences too.
	api.GET("/notices", middleware.OptionalJWT(authSvc), noticeHandler.List)
	api.GET("/notices/:id", middleware.OptionalJWT(authSvc), noticeHandler.Get)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	reviewers := middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal, models.RoleHOD)
	admins := middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal)

	secured.GET("/approvals/pending", reviewers, approvalHandler.Pending)
	secured.GET("/approvals/:type/:id", approvalHandler.Get)
	secured.POST("/approvals/:type/:id/approve", reviewers, approvalHandler.Approve)
	secured.POST("/approvals/:type/:id/reject", reviewers, approvalHandler.Reject)
	secured.POST("/approvals/:type/:id/cancel", approvalHandler.Cancel)

	secured.GET("/leaves", leaveHandler.List)
	secured.GET("/leaves/:id", leaveHandler.Get)
	secured.POST("/leaves", middleware.Audit(userRepo, models.AuditActionCreate, "leaves"), leaveHandler.Create)

	secured.GET("/workflows", workflowHandler.List)
	secured.GET("/workflows/:id", workflowHandler.Get)
	secured.POST("/workflows", middleware.Audit(userRepo, models.AuditActionCreate, "workflows"), workflowHandler.Create)

	secured.GET("/certificates", certificateHandler.List)
	secured.GET("/certificates/download", certificateHandler.Download)
	secured.GET("/certificates/:id", certificateHandler.Get)
	secured.POST("/certificates", middleware.Audit(userRepo, models.AuditActionCreate, "certificates"), certificateHandler.Create)

	secured.GET("/refunds", refundHandler.List)
	secured.GET("/refunds/:id", refundHandler.Get)
	secured.POST("/refunds", middleware.Audit(userRepo, models.AuditActionCreate, "refunds"), refundHandler.Create)

	secured.GET("/compliance", reviewers, complianceHandler.Report)
	secured.GET("/calendar", calendarHandler.Month)
	secured.GET("/impact", reviewers, impactHandler.Snapshot)
	secured.GET("/dashboard", reviewers, dashboardHandler.Admin)

	secured.POST("/notices", admins, middleware.Audit(userRepo, models.AuditActionCreate, "notices"), noticeHandler.Create)
	secured.DELETE("/notices/:id", admins, noticeHandler.Delete)

	secured.GET("/users", admins, userHandler.List)
	secured.POST("/users", admins, userHandler.Create)
	secured.PUT("/users/password", userHandler.ChangePassword)
	// SELF lets any account read its own record; writes stay admin-only.
	secured.GET("/users/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RolePrincipal), "SELF"), userHandler.Get)
	secured.PUT("/users/:id", admins, userHandler.Update)
	secured.DELETE("/users/:id", admins, userHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
