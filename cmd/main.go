package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/khangnd/certiprep/config"
	"github.com/khangnd/certiprep/database"
	_ "github.com/khangnd/certiprep/docs" // Swagger docs - auto-generated
	adminctrl "github.com/khangnd/certiprep/internal/controller/admin"
	userctrl "github.com/khangnd/certiprep/internal/controller/user"
	"github.com/khangnd/certiprep/internal/logger"
	"github.com/khangnd/certiprep/internal/model"
	"github.com/khangnd/certiprep/internal/repository"
	"github.com/khangnd/certiprep/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title CertiPrep Certification Exam API
// @version 1.0
// @description API for certification exam attempts: eligibility and cooldowns, timed attempt sessions, scoring, and certificate issuance.
// @contact.name API Support
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,         // Provides *gin.Engine
			service.NewSystemClock,
		),

		// Repositories layer
		fx.Provide(
			repository.NewExamConfigRepository,
			repository.NewCohortRepository,
			repository.NewExamAttemptRepository,
			repository.NewExamAnswerRepository,
			repository.NewCertificateRepository,
			repository.NewPortfolioItemRepository,
			repository.NewPointsLedgerRepository,
		),

		// Services layer
		fx.Provide(
			service.NewEligibilityService,
			service.NewCertificateRendererService,
			service.NewAwardService,
			service.NewScoringService,
			service.NewAttemptSessionService,
			service.NewAdminExamService,
			service.NewUserExamService,
		),

		// API controllers layer
		fx.Provide(
			adminctrl.NewAdminExamController,
			userctrl.NewExamAttemptController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminExamCtrl *adminctrl.AdminExamController,
	examAttemptCtrl *userctrl.ExamAttemptController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		configsGroup := adminAPIGroup.Group("/exam-configs")
		configsGroup.POST("", adminExamCtrl.CreateExamConfig)
		configsGroup.GET("", adminExamCtrl.GetAllExamConfigs)
		configsGroup.POST("/:config_id/activate", adminExamCtrl.ActivateExamConfig)

		cohortsGroup := adminAPIGroup.Group("/cohorts")
		cohortsGroup.POST("", adminExamCtrl.CreateCohort)
		cohortsGroup.GET("", adminExamCtrl.GetAllCohorts)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		cohortExam := userAPIGroup.Group("/cohorts/:cohort_id/exam")
		cohortExam.GET("", examAttemptCtrl.GetActiveExam)
		cohortExam.GET("/eligibility", examAttemptCtrl.GetEligibility)
		cohortExam.POST("/attempts", examAttemptCtrl.PrepareAttempt)
		cohortExam.GET("/my-attempts", examAttemptCtrl.GetMyAttempts)
		cohortExam.GET("/certificate", examAttemptCtrl.GetCertificate)
		cohortExam.GET("/points", examAttemptCtrl.GetPointsSummary)

		attempts := userAPIGroup.Group("/exam-attempts")
		attempts.POST("/:attempt_id/begin", examAttemptCtrl.BeginAttempt)
		attempts.PUT("/:attempt_id/progress", examAttemptCtrl.SaveProgress)
		attempts.POST("/:attempt_id/submit", examAttemptCtrl.SubmitAttempt)
		attempts.GET("/:attempt_id", examAttemptCtrl.GetAttemptDetails)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("CertiPrep exam API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Cohort{},
		&model.ExamConfig{},
		&model.ExamQuestion{},
		&model.ExamAttempt{},
		&model.ExamAnswer{},
		&model.Certificate{},
		&model.PointsLedgerEntry{},
		&model.PortfolioItemStatus{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
