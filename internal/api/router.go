package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/buildops/defect-tracker/internal/api/handler"
	"github.com/buildops/defect-tracker/internal/api/middleware"
	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/service"
	"github.com/buildops/defect-tracker/internal/infrastructure/config"
	"github.com/buildops/defect-tracker/internal/infrastructure/db/postgres"
	"github.com/buildops/defect-tracker/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(pool *pgxpool.Pool, rdb *goredis.Client, files service.FileStore, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("defects_http"))

	// --- Dependencies ---
	userRepo := postgres.NewUserRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	defectRepo := postgres.NewDefectRepository(pool)
	denylist := redis.NewTokenDenylist(rdb)

	authService := service.NewAuthService(userRepo, denylist, cfg.JWTSecret, cfg.TokenTTL)
	defectService := service.NewDefectService(defectRepo, projectRepo, userRepo, files, cfg.Upload.MaxBytes, log)
	projectService := service.NewProjectService(projectRepo, log)
	reportService := service.NewReportService(defectRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	defectHandler := handler.NewDefectHandler(defectService)
	projectHandler := handler.NewProjectHandler(projectService)
	reportHandler := handler.NewReportHandler(reportService)

	authMw := middleware.Auth(cfg.JWTSecret, denylist)
	managerOnly := middleware.RBAC(domain.RoleManager)
	reporting := middleware.RBAC(domain.RoleManager, domain.RoleObserver)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMw)
	e.GET("/auth/profile", authHandler.Profile, authMw)

	// --- Defect routes ---
	v1 := e.Group("/v1", authMw)
	v1.GET("/defects", defectHandler.List)
	v1.POST("/defects", defectHandler.Create)
	v1.GET("/defects/:id", defectHandler.Get)
	v1.PUT("/defects/:id", defectHandler.Update)
	v1.POST("/defects/:id/status", defectHandler.ChangeStatus)
	v1.POST("/defects/:id/comments", defectHandler.AddComment)
	v1.POST("/defects/:id/attachments", defectHandler.AddAttachment)
	v1.GET("/defects/:id/attachments/:attachment_id", defectHandler.DownloadAttachment)

	// --- Project / stage routes (reads open, mutations manager-only) ---
	v1.GET("/projects", projectHandler.ListProjects)
	v1.POST("/projects", projectHandler.CreateProject, managerOnly)
	v1.PUT("/projects/:id", projectHandler.UpdateProject, managerOnly)
	v1.DELETE("/projects/:id", projectHandler.DeleteProject, managerOnly)
	v1.GET("/stages", projectHandler.ListStages)
	v1.POST("/stages", projectHandler.CreateStage, managerOnly)
	v1.PUT("/stages/:id", projectHandler.UpdateStage, managerOnly)
	v1.DELETE("/stages/:id", projectHandler.DeleteStage, managerOnly)

	// --- Reports ---
	v1.GET("/reports/dashboard", reportHandler.Dashboard, reporting)
	v1.GET("/reports/export/csv", reportHandler.ExportCSV, reporting)
	v1.GET("/reports/export/xlsx", reportHandler.ExportXLSX, reporting)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	healthHandler := handler.NewHealthHandler(pool, rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	return e
}
