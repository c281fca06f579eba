package appcontext

import (
	"github.com/stroytech/docvault/internal/config"
	"github.com/stroytech/docvault/internal/filestore"
	"github.com/stroytech/docvault/internal/repository"
	"go.uber.org/zap"
)

// Application contains core dependencies for the app.
type Application struct {
	// Config holds application settings provided from .env file.
	Config *config.Config

	Logger *zap.SugaredLogger

	// Repository provides access to data storage operations.
	Repository *repository.Repository

	// FileStore enforces the placement policy under the projects root.
	FileStore *filestore.Store
}
