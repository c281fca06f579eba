package repository

import (
	"context"
	"errors"
	"time"

	"github.com/stroytech/docvault/internal/constant"
	"github.com/stroytech/docvault/internal/model"
	"gorm.io/gorm"
)

type StagedUploadRepository struct {
	*baseRepository
	revisions *RevisionRepository
}

// Register records an already-staged temp file as a pending upload. Early
// dedup short-circuit: when the hash is already in the ledger the temp file
// is discarded, no row is created and the existing revision is returned.
// This is an optimization only — Commit re-validates inside the attach
// transaction.
func (sr StagedUploadRepository) Register(ctx context.Context, originalName, ownerID, tmpPath, contentHash string) (*model.StagedUpload, *model.Revision, error) {
	existing, err := sr.revisions.FindByHash(ctx, nil, contentHash)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		if rmErr := sr.files.Remove(tmpPath); rmErr != nil {
			sr.logger.Warnf("register upload: could not discard duplicate temp file %s: %v", tmpPath, rmErr)
		}
		return nil, existing, nil
	}

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	upload := &model.StagedUpload{
		OwnerID:      ownerID,
		OriginalName: originalName,
		TmpPath:      tmpPath,
		ContentHash:  contentHash,
	}
	if err := sr.db.WithContext(ctx).Create(upload).Error; err != nil {
		return nil, nil, err
	}
	return upload, nil, nil
}

// Commit consumes exactly one unconsumed staged upload owned by ownerID and
// attaches it to the project. The consumed flag flips whether the attach
// created a revision or detected a duplicate, so a staged upload is never
// retried. Infrastructure failures roll everything back and leave the
// upload committable.
func (sr StagedUploadRepository) Commit(ctx context.Context, stagedID, ownerID, projectID string) (*model.Revision, error) {
	var rev *model.Revision
	var dupErr *DuplicateContentError

	err := sr.withTx(sr.db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()
		db := tx.WithContext(ctx)

		var staged model.StagedUpload
		err := sr.locked(db).
			Where("id = ? AND owner_id = ? AND consumed = ?", stagedID, ownerID, false).
			First(&staged).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStagedUploadNotFound
			}
			return err
		}

		rev, err = sr.revisions.attachTx(ctx, tx, projectID, staged.OriginalName, staged.TmpPath, staged.ContentHash)
		if err != nil && !errors.As(err, &dupErr) {
			return err
		}

		if err := db.Model(&model.StagedUpload{}).Where("id = ?", staged.ID).
			Update("consumed", true).Error; err != nil {
			return err
		}

		if dupErr != nil {
			// Commit the consumed flag, discard the staged bytes.
			if rmErr := sr.files.Remove(staged.TmpPath); rmErr != nil {
				sr.logger.Warnf("commit staged %s: could not discard duplicate temp file: %v", staged.ID, rmErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, dupErr
	}
	return rev, nil
}

// Sweep reclaims staged uploads that are consumed or older than the given
// age. Housekeeping only; correctness never depends on it running.
func (sr StagedUploadRepository) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()
	db := sr.db.WithContext(ctx)

	cutoff := time.Now().Add(-olderThan)
	var stale []model.StagedUpload
	if err := db.Where("consumed = ? OR created_at < ?", true, cutoff).Find(&stale).Error; err != nil {
		return 0, err
	}

	removed := 0
	for _, upload := range stale {
		if err := sr.files.Remove(upload.TmpPath); err != nil {
			sr.logger.Warnf("sweep: could not remove temp file %s: %v", upload.TmpPath, err)
		}
		if err := db.Delete(&model.StagedUpload{}, "id = ?", upload.ID).Error; err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
