package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	appcontext "github.com/stroytech/docvault/internal/app_context"
	"github.com/stroytech/docvault/internal/config"
	"github.com/stroytech/docvault/internal/controller"
	"github.com/stroytech/docvault/internal/database"
	"github.com/stroytech/docvault/internal/env"
	"github.com/stroytech/docvault/internal/filestore"
	"github.com/stroytech/docvault/internal/middleware"
	ratelimiter "github.com/stroytech/docvault/internal/rate_limiter"
	"github.com/stroytech/docvault/internal/repository"
	"github.com/stroytech/docvault/internal/route"
	"github.com/stroytech/docvault/internal/util"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected")

	files, err := filestore.New(cfg.Storage.ProjectsDir, logger)
	if err != nil {
		logger.Panic(err)
	}
	logger.Infof("Projects root: %s", files.Root())

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("strNotEmpty", util.StrNotEmpty); err != nil {
			return
		}
	}

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	repo := repository.NewRepository(db, logger, files)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		FileStore:  files,
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Owner-Id", "X-Requested-With", "Accept"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	route.V1_Projects(rApi, _controller.Project, _controller.Revision)
	route.V1_Uploads(rApi, _controller.Upload)

	if err := r.Run("0.0.0.0:" + app.Config.Port); err != nil {
		logger.Panicf("Error running server: %v", err)
	}
}
