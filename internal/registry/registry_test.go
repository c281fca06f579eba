package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stroytech/docvault/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Designer{},
		&model.Line{},
		&model.DesignStage{},
		&model.Stage{},
		&model.Plot{},
		&model.Section{},
	))
	return New(db, zap.NewNop().Sugar()), db
}

func TestResolveActiveCode(t *testing.T) {
	reg, db := newTestRegistry(t)

	designer := model.Designer{Code: "PK", FullName: "PK Design", IsActive: true}
	require.NoError(t, db.Create(&designer).Error)

	res, err := reg.Resolve(context.Background(), nil, KindDesigner, "PK")
	require.NoError(t, err)
	require.True(t, res.Resolved())
	require.Equal(t, designer.ID, res.ID)
	require.NotNil(t, res.IDRef())
	require.Equal(t, designer.ID, *res.IDRef())
}

func TestResolveUnknownCodeIsNotAnError(t *testing.T) {
	reg, _ := newTestRegistry(t)

	res, err := reg.Resolve(context.Background(), nil, KindSection, "ZZ")
	require.NoError(t, err)
	require.False(t, res.Resolved())
	require.Equal(t, "ZZ", res.RawCode)
	require.Nil(t, res.IDRef())
}

func TestResolveSkipsInactiveEntries(t *testing.T) {
	reg, db := newTestRegistry(t)

	retired := model.Line{Code: "09", FullName: "Closed line"}
	require.NoError(t, db.Create(&retired).Error)
	// A zero-valued field with a column default is skipped on insert, so
	// retire the entry explicitly.
	require.NoError(t, db.Model(&retired).Update("is_active", false).Error)

	res, err := reg.Resolve(context.Background(), nil, KindLine, "09")
	require.NoError(t, err)
	require.False(t, res.Resolved())
}

func TestResolveUnknownKind(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Resolve(context.Background(), nil, Kind("bogus"), "x")
	require.Error(t, err)
}
