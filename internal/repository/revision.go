package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/stroytech/docvault/internal/constant"
	"github.com/stroytech/docvault/internal/model"
	"gorm.io/gorm"
)

type RevisionRepository struct {
	*baseRepository
}

func (rr RevisionRepository) GetByID(ctx context.Context, tx *gorm.DB, revisionID string) (*model.Revision, error) {
	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rev model.Revision
	if err := db.WithContext(ctx).Preload("Project").First(&rev, "id = ?", revisionID).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

// FindByHash returns the revision holding the given content hash anywhere in
// the system, or nil when the hash is unknown.
func (rr RevisionRepository) FindByHash(ctx context.Context, tx *gorm.DB, contentHash string) (*model.Revision, error) {
	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rev model.Revision
	err := db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rev, nil
}

// Attach commits a staged file as the next revision of a project. The
// project row lock serializes attaches per project; the content hash is
// checked against the whole ledger before anything touches disk. A
// uniqueness race (concurrent ordinal or hash claim) is retried once after
// re-reading state; a hash race resolves to DuplicateContentError.
func (rr RevisionRepository) Attach(ctx context.Context, tx *gorm.DB, projectID, fileName, stagedPath, contentHash string) (*model.Revision, error) {
	if tx != nil {
		return rr.attachTx(ctx, tx, projectID, fileName, stagedPath, contentHash)
	}

	var rev *model.Revision
	err := rr.withTx(rr.db, func(tx *gorm.DB) error {
		var err error
		rev, err = rr.attachTx(ctx, tx, projectID, fileName, stagedPath, contentHash)
		return err
	})
	return rev, err
}

func (rr RevisionRepository) attachTx(ctx context.Context, tx *gorm.DB, projectID, fileName, stagedPath, contentHash string) (*model.Revision, error) {
	rev, err := rr.attachOnce(ctx, tx, projectID, fileName, stagedPath, contentHash)
	if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
		return rev, err
	}

	rr.logger.Debugf("attach: uniqueness race on project %s, retrying once", projectID)

	existing, hashErr := rr.FindByHash(ctx, tx, contentHash)
	if hashErr != nil {
		return nil, hashErr
	}
	if existing != nil {
		return nil, &DuplicateContentError{Existing: existing}
	}

	return rr.attachOnce(ctx, tx, projectID, fileName, stagedPath, contentHash)
}

func (rr RevisionRepository) attachOnce(ctx context.Context, tx *gorm.DB, projectID, fileName, stagedPath, contentHash string) (*model.Revision, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()
	db := tx.WithContext(ctx)

	var project model.Project
	if err := rr.locked(db).First(&project, "id = ?", projectID).Error; err != nil {
		return nil, err
	}

	existing, err := rr.FindByHash(ctx, tx, contentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateContentError{Existing: existing}
	}

	// Row writes after this point roll back to here on a race so the
	// transaction stays usable for the retry.
	if err := db.SavePoint("attach").Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Revision{}).
		Where("project_id = ? AND is_latest = ?", projectID, true).
		Update("is_latest", false).Error; err != nil {
		return nil, err
	}

	var agg struct{ Max int }
	if err := db.Model(&model.Revision{}).
		Select("COALESCE(MAX(ordinal), 0) AS max").
		Where("project_id = ?", projectID).
		Scan(&agg).Error; err != nil {
		return nil, err
	}
	next := agg.Max + 1

	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = filepath.Ext(stagedPath)
	}
	dst, err := rr.files.CanonicalPath(project.CodeOrDraft(), fmt.Sprintf("%02d", next), ext)
	if err != nil {
		return nil, err
	}

	finalPath, err := rr.files.MoveIntoPlace(stagedPath, dst)
	if err != nil {
		return nil, err
	}

	rev := &model.Revision{
		ProjectID:   projectID,
		Ordinal:     next,
		FileName:    fileName,
		FilePath:    finalPath,
		ContentHash: contentHash,
		IsLatest:    true,
	}
	if err := db.Create(rev).Error; err != nil {
		if rbErr := db.RollbackTo("attach").Error; rbErr != nil {
			return nil, rbErr
		}
		// Put the file back so the retry (or the caller) still owns it.
		if _, mvErr := rr.files.MoveIntoPlace(finalPath, stagedPath); mvErr != nil {
			rr.logger.Warnf("attach: could not restore staged file %s: %v", stagedPath, mvErr)
		}
		return nil, err
	}

	return rev, nil
}

// SetInProduction toggles the independent in-production flag. No
// interaction with is_latest.
func (rr RevisionRepository) SetInProduction(ctx context.Context, revisionID string, value bool) (*model.Revision, error) {
	var rev model.Revision
	err := rr.withTx(rr.db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()
		db := tx.WithContext(ctx)

		if err := rr.locked(db).First(&rev, "id = ?", revisionID).Error; err != nil {
			return err
		}
		if err := db.Model(&rev).Update("in_production", value).Error; err != nil {
			return err
		}
		rev.InProduction = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// Delete removes a revision. The database record is authoritative: a failed
// file deletion is logged, not fatal. Deleting the last revision deletes the
// owning project; deleting the latest promotes the most recent survivor.
func (rr RevisionRepository) Delete(ctx context.Context, revisionID string) error {
	var orphanPath string
	err := rr.withTx(rr.db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()
		db := tx.WithContext(ctx)

		var rev model.Revision
		if err := db.First(&rev, "id = ?", revisionID).Error; err != nil {
			return err
		}

		var project model.Project
		if err := rr.locked(db).First(&project, "id = ?", rev.ProjectID).Error; err != nil {
			return err
		}

		if err := db.Delete(&model.Revision{}, "id = ?", rev.ID).Error; err != nil {
			return err
		}
		orphanPath = rev.FilePath

		var remaining int64
		if err := db.Model(&model.Revision{}).Where("project_id = ?", project.ID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			return db.Delete(&model.Project{}, "id = ?", project.ID).Error
		}

		if rev.IsLatest {
			var newest model.Revision
			if err := db.Where("project_id = ?", project.ID).
				Order("created_at DESC, id DESC").
				First(&newest).Error; err != nil {
				return err
			}
			if err := db.Model(&model.Revision{}).
				Where("id = ?", newest.ID).
				Update("is_latest", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if rmErr := rr.files.Remove(orphanPath); rmErr != nil {
		rr.logger.Warnf("delete revision %s: could not remove file %s: %v", revisionID, orphanPath, rmErr)
	}
	return nil
}
