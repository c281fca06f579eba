package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stroytech/docvault/internal/filestore"
	"github.com/stroytech/docvault/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestRepository wires a Repository against a throwaway sqlite database
// and a temp-dir file store. TranslateError is on, matching production, so
// unique violations surface as gorm.ErrDuplicatedKey.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Designer{},
		&model.Line{},
		&model.DesignStage{},
		&model.Stage{},
		&model.Plot{},
		&model.Section{},
		&model.Project{},
		&model.Revision{},
		&model.StagedUpload{},
	))

	logger := zap.NewNop().Sugar()
	files, err := filestore.New(t.TempDir(), logger)
	require.NoError(t, err)

	return NewRepository(db, logger, files)
}

func stageContent(t *testing.T, repo *Repository, content string) (string, string) {
	t.Helper()
	path, hash, _, err := repo.Revision.files.StageFile(strings.NewReader(content), "tester")
	require.NoError(t, err)
	return path, hash
}

// attachContent stages content and attaches it as the project's next
// revision. The sleep keeps created_at strictly increasing across calls so
// creation-time ordering in assertions is unambiguous.
func attachContent(t *testing.T, repo *Repository, projectID, fileName, content string) *model.Revision {
	t.Helper()
	path, hash := stageContent(t, repo, content)
	rev, err := repo.Revision.Attach(context.Background(), nil, projectID, fileName, path, hash)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	return rev
}

func loadRevision(t *testing.T, repo *Repository, id string) *model.Revision {
	t.Helper()
	var rev model.Revision
	require.NoError(t, repo.DB.First(&rev, "id = ?", id).Error)
	return &rev
}

func loadRevisions(t *testing.T, repo *Repository, projectID string) []model.Revision {
	t.Helper()
	var revs []model.Revision
	require.NoError(t, repo.DB.Where("project_id = ?", projectID).Order("ordinal ASC").Find(&revs).Error)
	return revs
}
