package repository

import (
	"github.com/stroytech/docvault/internal/filestore"
	"github.com/stroytech/docvault/internal/registry"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type baseRepository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
	files  *filestore.Store
}

type Repository struct {
	// DB can be used to open an explicit transaction and pass it into
	// repository methods that accept a tx.
	DB           *gorm.DB
	Project      *ProjectRepository
	Revision     *RevisionRepository
	StagedUpload *StagedUploadRepository
	Registry     *registry.Registry
}

func newBaseRepository(db *gorm.DB, logger *zap.SugaredLogger, files *filestore.Store) *baseRepository {
	return &baseRepository{db: db, logger: logger, files: files}
}

func NewRepository(db *gorm.DB, logger *zap.SugaredLogger, files *filestore.Store) *Repository {
	br := newBaseRepository(db, logger, files)
	_revisionRepo := &RevisionRepository{baseRepository: br}

	return &Repository{
		DB:           db,
		Project:      &ProjectRepository{baseRepository: br, revisions: _revisionRepo},
		Revision:     _revisionRepo,
		StagedUpload: &StagedUploadRepository{baseRepository: br, revisions: _revisionRepo},
		Registry:     registry.New(db, logger),
	}
}

func (b baseRepository) withTx(db *gorm.DB, fn func(*gorm.DB) error) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})

	if err != nil {
		b.logger.Debugf("withTx transaction rolled back: %v", err)
	}

	return err
}

func (b baseRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}

	return b.db
}

// locked adds a FOR UPDATE row lock on postgres. The sqlite dialect used in
// tests has no row locks and a single writer, so the clause is skipped there.
func (b baseRepository) locked(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
