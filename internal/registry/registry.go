// Package registry is the single lookup point for classifier reference data.
// Resolution never fabricates rows: an unknown code comes back as an
// Unresolved result and the caller decides what that means (usually a nil
// reference and a forced needs-review flag).
package registry

import (
	"context"
	"errors"

	"github.com/stroytech/docvault/internal/constant"
	"github.com/stroytech/docvault/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Kind string

const (
	KindDesigner    Kind = "designer"
	KindLine        Kind = "line"
	KindDesignStage Kind = "design_stage"
	KindStage       Kind = "stage"
	KindPlot        Kind = "plot"
	KindSection     Kind = "section"
)

// Result is the tagged outcome of a lookup: either a resolved classifier id
// or the raw code that failed to resolve.
type Result struct {
	ID      string
	RawCode string
}

func (r Result) Resolved() bool {
	return r.ID != ""
}

// IDRef returns the id as a nullable foreign key value.
func (r Result) IDRef() *string {
	if r.ID == "" {
		return nil
	}
	id := r.ID
	return &id
}

type Registry struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func New(db *gorm.DB, logger *zap.SugaredLogger) *Registry {
	return &Registry{db: db, logger: logger}
}

func (r *Registry) modelFor(kind Kind) any {
	switch kind {
	case KindDesigner:
		return &model.Designer{}
	case KindLine:
		return &model.Line{}
	case KindDesignStage:
		return &model.DesignStage{}
	case KindStage:
		return &model.Stage{}
	case KindPlot:
		return &model.Plot{}
	case KindSection:
		return &model.Section{}
	}
	return nil
}

// Resolve looks the code up among active entries of the given classifier.
// tx may be nil to use the registry's own connection.
func (r *Registry) Resolve(ctx context.Context, tx *gorm.DB, kind Kind, code string) (Result, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	m := r.modelFor(kind)
	if m == nil {
		return Result{RawCode: code}, errors.New("unknown classifier kind: " + string(kind))
	}

	var row struct{ ID string }
	err := db.WithContext(ctx).Model(m).
		Select("id").
		Where("code = ? AND is_active = ?", code, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debugf("registry: unresolved %s code %q", kind, code)
			return Result{RawCode: code}, nil
		}
		return Result{RawCode: code}, err
	}
	return Result{ID: row.ID, RawCode: code}, nil
}
