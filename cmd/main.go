package main

import (
	"github.com/inv-nithin007/School-manager/internal/handler"
	"github.com/inv-nithin007/School-manager/internal/middleware"
	"github.com/inv-nithin007/School-manager/internal/model"
	"github.com/inv-nithin007/School-manager/internal/rbac"
	"github.com/inv-nithin007/School-manager/pkg/config"
	"github.com/inv-nithin007/School-manager/pkg/database"
	"github.com/inv-nithin007/School-manager/pkg/jwtutil"
	"github.com/inv-nithin007/School-manager/pkg/logger"
	"github.com/inv-nithin007/School-manager/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting school management service...", cfg.LogConfig()...)

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.User{},
		&model.Profile{},
		&model.Teacher{},
		&model.Student{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Teacher collection: writes are admin-only, reads for any
	// authenticated user
	teachers := api.Group("/teachers")
	teachers.Use(middleware.RequirePolicy(rbac.AdminOrReadOnly))
	teachers.GET("", handler.ListTeachers)
	teachers.POST("", handler.CreateTeacher)
	teachers.GET("/export-csv", handler.ExportTeachersCSV)
	teachers.GET("/:id", handler.GetTeacher)
	teachers.PUT("/:id", handler.UpdateTeacher)
	teachers.PATCH("/:id", handler.UpdateTeacher)
	teachers.DELETE("/:id", handler.DeleteTeacher)

	// Cross listing of a teacher's students is for teachers and admins
	api.GET("/teachers/:id/students", handler.TeacherStudents,
		middleware.RequirePolicy(rbac.TeacherOrAdmin))

	// Student collection: open to every authenticated role
	students := api.Group("/students")
	students.Use(middleware.RequirePolicy(rbac.StudentOrTeacherOrAdmin))
	students.GET("", handler.ListStudents)
	students.POST("", handler.CreateStudent)
	students.GET("/export-csv", handler.ExportStudentsCSV)
	students.GET("/:id", handler.GetStudent)
	students.PUT("/:id", handler.UpdateStudent)
	students.PATCH("/:id", handler.UpdateStudent)
	students.DELETE("/:id", handler.DeleteStudent)

	// Combined and detailed exports for any authenticated user
	api.GET("/export-all-csv", handler.ExportAllCSV)
	api.GET("/export/students-detailed-csv", handler.ExportStudentsDetailedCSV)
	api.GET("/export/teachers-detailed-csv", handler.ExportTeachersDetailedCSV)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
