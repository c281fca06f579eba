package main

import (
	"github.com/stroytech/docvault/internal/config"
	"github.com/stroytech/docvault/internal/database"
	"github.com/stroytech/docvault/internal/env"
	"github.com/stroytech/docvault/internal/model"
	"go.uber.org/zap"
)

func init() {
	env.LoadEnv(".env")
}

func main() {
	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()
	cfg := config.GetConfig()

	logger.Infof("Database configuration: %+v", cfg.DB)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	migrateErr := db.AutoMigrate(
		&model.Designer{},
		&model.Line{},
		&model.DesignStage{},
		&model.Stage{},
		&model.Plot{},
		&model.Section{},
		&model.Project{},
		&model.Revision{},
		&model.StagedUpload{},
	)
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}

	logger.Info("Migration complete")
}
