package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/stroytech/docvault/internal/constant"
	"github.com/stroytech/docvault/internal/filestore"
	"github.com/stroytech/docvault/internal/model"
	"github.com/stroytech/docvault/internal/registry"
	"gorm.io/gorm"
)

// errRenameRace signals that another writer claimed or released the target
// code between our reads; the whole operation is re-run once from scratch so
// locks are always taken in sorted id order.
var errRenameRace = errors.New("project code changed concurrently")

type ProjectRepository struct {
	*baseRepository
	revisions *RevisionRepository
}

func (pr ProjectRepository) CreateDraft(ctx context.Context, construction string) (*model.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	project := &model.Project{
		Construction: construction,
		NeedsReview:  true,
	}
	if err := pr.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (pr ProjectRepository) GetByID(ctx context.Context, tx *gorm.DB, projectID string) (*model.Project, error) {
	db := pr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var project model.Project
	err := db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Designer").Preload("Line").Preload("DesignStage").
		Preload("Stage").Preload("Plot").Preload("Section").
		First(&project, "id = ?", projectID).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetOrCreateByFullCode finds the project owning the (normalized) code or
// creates a fresh one. A creation race on the unique code index resolves to
// the winner's row. Runs in its own transaction when tx is nil; the
// savepoint in the create branch needs one.
func (pr ProjectRepository) GetOrCreateByFullCode(ctx context.Context, tx *gorm.DB, rawCode, construction string) (*model.Project, error) {
	code := filestore.NormalizeFullCode(rawCode)
	if code == "" {
		return nil, ErrEmptyFullCode
	}

	if tx != nil {
		return pr.getOrCreateByCodeTx(ctx, tx, code, construction)
	}

	var project *model.Project
	err := pr.withTx(pr.db, func(tx *gorm.DB) error {
		var err error
		project, err = pr.getOrCreateByCodeTx(ctx, tx, code, construction)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (pr ProjectRepository) getOrCreateByCodeTx(ctx context.Context, tx *gorm.DB, code, construction string) (*model.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()
	db := tx.WithContext(ctx)

	var project model.Project
	err := db.First(&project, "full_code = ?", code).Error
	if err == nil {
		return &project, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := db.SavePoint("getorcreate").Error; err != nil {
		return nil, err
	}
	project = model.Project{
		FullCode:     &code,
		Construction: construction,
		NeedsReview:  true,
	}
	if err := db.Create(&project).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		if rbErr := db.RollbackTo("getorcreate").Error; rbErr != nil {
			return nil, rbErr
		}
		if err := db.First(&project, "full_code = ?", code).Error; err != nil {
			return nil, err
		}
	}
	return &project, nil
}

func (pr ProjectRepository) List(ctx context.Context, search string, needsReview *bool, page, pageSize uint) ([]model.Project, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if pageSize == 0 {
		pageSize = constant.DefaultPageSize
	}
	if page == 0 {
		page = 1
	}

	query := pr.db.WithContext(ctx).Model(&model.Project{})
	if search != "" {
		query = query.Where("full_code IS NOT NULL AND lower(full_code) LIKE lower(?)", "%"+search+"%")
	}
	if needsReview != nil {
		query = query.Where("needs_review = ?", *needsReview)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	err := query.
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Order("created_at ASC, id ASC").
		Offset(int((page - 1) * pageSize)).
		Limit(int(pageSize)).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// IdentityUpdate carries the mutable identity fields. Nil means "leave
// unchanged"; classifier results come from the reference registry so an
// unresolved code clears the reference instead of inventing one.
type IdentityUpdate struct {
	Construction *string
	Designer     *registry.Result
	Line         *registry.Result
	DesignStage  *registry.Result
	Stage        *registry.Result
	Plot         *registry.Result
	Section      *registry.Result
}

// UpdateIdentity applies classifier/description changes and recomputes
// needs_review in the same transaction.
func (pr ProjectRepository) UpdateIdentity(ctx context.Context, projectID string, upd IdentityUpdate) (*model.Project, error) {
	var project model.Project
	err := pr.withTx(pr.db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()
		db := tx.WithContext(ctx)

		if err := pr.locked(db).First(&project, "id = ?", projectID).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if upd.Construction != nil {
			project.Construction = *upd.Construction
			updates["construction"] = *upd.Construction
		}
		apply := func(column string, res *registry.Result, field **string) {
			if res == nil {
				return
			}
			*field = res.IDRef()
			updates[column] = res.IDRef()
		}
		apply("designer_id", upd.Designer, &project.DesignerID)
		apply("line_id", upd.Line, &project.LineID)
		apply("design_stage_id", upd.DesignStage, &project.DesignStageID)
		apply("stage_id", upd.Stage, &project.StageID)
		apply("plot_id", upd.Plot, &project.PlotID)
		apply("section_id", upd.Section, &project.SectionID)

		if len(updates) > 0 {
			if err := db.Model(&model.Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return pr.syncNeedsReview(db, &project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// AssignFullCode names a draft. When the code is already taken by another
// project the draft's ledger is transferred there and the draft is deleted;
// the returned project is the survivor, which may not be the draft.
func (pr ProjectRepository) AssignFullCode(ctx context.Context, draftID, rawCode string) (*model.Project, error) {
	return pr.changeCode(ctx, draftID, rawCode)
}

// ChangeFullCode renames an already-named project, with the same
// free/taken branching as AssignFullCode.
func (pr ProjectRepository) ChangeFullCode(ctx context.Context, projectID, rawCode string) (*model.Project, error) {
	return pr.changeCode(ctx, projectID, rawCode)
}

func (pr ProjectRepository) changeCode(ctx context.Context, projectID, rawCode string) (*model.Project, error) {
	newCode := filestore.NormalizeFullCode(rawCode)
	if newCode == "" {
		return nil, ErrEmptyFullCode
	}

	project, err := pr.changeCodeOnce(ctx, projectID, newCode)
	if errors.Is(err, errRenameRace) {
		pr.logger.Debugf("changeCode: race on %q, retrying once", newCode)
		project, err = pr.changeCodeOnce(ctx, projectID, newCode)
	}
	return project, err
}

func (pr ProjectRepository) changeCodeOnce(ctx context.Context, projectID, newCode string) (*model.Project, error) {
	var result *model.Project
	err := pr.withTx(pr.db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()
		db := tx.WithContext(ctx)

		// Read the merge target's id first so both rows can be locked in
		// sorted id order, whatever direction the merge goes.
		var targetID string
		var row struct{ ID string }
		err := db.Model(&model.Project{}).Select("id").
			Where("full_code = ? AND id <> ?", newCode, projectID).
			First(&row).Error
		switch {
		case err == nil:
			targetID = row.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		ids := []string{projectID}
		if targetID != "" {
			ids = append(ids, targetID)
		}
		sort.Strings(ids)

		lockedRows := make(map[string]*model.Project, len(ids))
		for _, id := range ids {
			var p model.Project
			if err := pr.locked(db).First(&p, "id = ?", id).Error; err != nil {
				return err
			}
			lockedRows[id] = &p
		}
		source := lockedRows[projectID]
		target := lockedRows[targetID]

		// Renaming to the current code is a no-op: no file moves, no writes.
		if source.FullCode != nil && *source.FullCode == newCode {
			result = source
			return nil
		}

		if target == nil {
			if err := db.SavePoint("rename").Error; err != nil {
				return err
			}
			err := db.Model(&model.Project{}).Where("id = ?", source.ID).
				Update("full_code", newCode).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				// Someone claimed the code after our read; redo from scratch
				// so the lock order stays deterministic.
				return errRenameRace
			}
			source.FullCode = &newCode
			if err := pr.syncNeedsReview(db, source); err != nil {
				return err
			}
			if _, err := pr.relocateFiles(db, source); err != nil {
				return err
			}
			result = source
			return nil
		}

		// Target may have been renamed between the unlocked read and the
		// lock; verify before merging into it.
		if target.FullCode == nil || *target.FullCode != newCode {
			return errRenameRace
		}

		if err := pr.transferLedger(db, source, target); err != nil {
			return err
		}
		result = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// transferLedger re-parents every revision of source onto target, renumbers
// the combined ledger densely by creation time, relocates the files to
// target's identity and deletes the source row. Both project rows must
// already be locked by the caller.
func (pr ProjectRepository) transferLedger(db *gorm.DB, source, target *model.Project) error {
	var revs []model.Revision
	if err := pr.locked(db).
		Where("project_id = ?", source.ID).
		Order("created_at ASC, id ASC").
		Find(&revs).Error; err != nil {
		return err
	}

	// Temporary out-of-band ordinals so re-parenting cannot collide with
	// target's dense 1..N range before the renumber pass.
	for i := range revs {
		if err := db.Model(&model.Revision{}).Where("id = ?", revs[i].ID).
			Update("ordinal", constant.OrdinalTransferOffset+i+1).Error; err != nil {
			return err
		}
	}
	if err := db.Model(&model.Revision{}).
		Where("project_id = ?", source.ID).
		Update("project_id", target.ID).Error; err != nil {
		return err
	}

	if err := db.Delete(&model.Project{}, "id = ?", source.ID).Error; err != nil {
		return err
	}

	if err := pr.renumberRevisions(db, target.ID); err != nil {
		return err
	}
	if err := pr.syncNeedsReview(db, target); err != nil {
		return err
	}
	_, err := pr.relocateFiles(db, target)
	return err
}

// renumberRevisions rewrites a project's ordinals into a dense 1..N
// sequence ordered by creation time and re-derives is_latest. Two passes:
// ordinals first park in a disjoint temporary range because the per-project
// uniqueness index is checked row by row.
func (pr ProjectRepository) renumberRevisions(db *gorm.DB, projectID string) error {
	var revs []model.Revision
	if err := pr.locked(db).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&revs).Error; err != nil {
		return err
	}

	for i := range revs {
		if err := db.Model(&model.Revision{}).Where("id = ?", revs[i].ID).
			Update("ordinal", 2*constant.OrdinalTransferOffset+i+1).Error; err != nil {
			return err
		}
	}
	for i := range revs {
		if err := db.Model(&model.Revision{}).Where("id = ?", revs[i].ID).
			Update("ordinal", i+1).Error; err != nil {
			return err
		}
		revs[i].Ordinal = i + 1
	}

	if err := db.Model(&model.Revision{}).
		Where("project_id = ? AND is_latest = ?", projectID, true).
		Update("is_latest", false).Error; err != nil {
		return err
	}
	if len(revs) > 0 {
		var newest model.Revision
		if err := db.Where("project_id = ?", projectID).
			Order("created_at DESC, id DESC").
			First(&newest).Error; err != nil {
			return err
		}
		if err := db.Model(&model.Revision{}).Where("id = ?", newest.ID).
			Update("is_latest", true).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReconcileNaming re-derives every revision's canonical file name from
// current state and renames what does not match. Idempotent; safe after a
// crash mid-operation. Returns whether anything moved.
func (pr ProjectRepository) ReconcileNaming(ctx context.Context, projectID string) (bool, error) {
	var changed bool
	err := pr.withTx(pr.db, func(tx *gorm.DB) error {
		ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
		defer cancel()
		db := tx.WithContext(ctx)

		var project model.Project
		if err := pr.locked(db).First(&project, "id = ?", projectID).Error; err != nil {
			return err
		}
		var err error
		changed, err = pr.relocateFiles(db, &project)
		return err
	})
	return changed, err
}

// relocateFiles repeats the naming pass until the layout stops moving. A
// single pass can leave a file parked at a collision name while its
// canonical slot is still held by a revision later in the chain; the next
// pass finds the slot freed. A file at its canonical name never moves again
// and a parked file only moves into a freed slot, so this terminates.
func (pr ProjectRepository) relocateFiles(db *gorm.DB, project *model.Project) (bool, error) {
	changedAny := false
	for {
		changed, err := pr.ensureFilesNamed(db, project)
		if err != nil {
			return changedAny, err
		}
		if !changed {
			return changedAny, nil
		}
		changedAny = true
	}
}

func (pr ProjectRepository) ensureFilesNamed(db *gorm.DB, project *model.Project) (bool, error) {
	var revs []model.Revision
	if err := pr.locked(db).
		Where("project_id = ?", project.ID).
		Order("created_at ASC, id ASC").
		Find(&revs).Error; err != nil {
		return false, err
	}

	changed := false
	for i := range revs {
		rev := &revs[i]

		current, err := pr.files.EnsureInside(rev.FilePath)
		if err != nil {
			return changed, err
		}
		ext := filepath.Ext(current)
		if ext == "" {
			ext = filepath.Ext(rev.FileName)
		}
		desired, err := pr.files.CanonicalPath(project.CodeOrDraft(), rev.Label(), ext)
		if err != nil {
			return changed, err
		}

		if current == desired {
			ok, err := pr.files.Exists(current)
			if err != nil {
				return changed, err
			}
			if !ok {
				return changed, fmt.Errorf("%w: %s", filestore.ErrMissingSource, current)
			}
			continue
		}

		final, err := pr.files.MoveIntoPlace(current, desired)
		if err != nil {
			return changed, err
		}
		if final == current {
			continue
		}
		if err := db.Model(&model.Revision{}).Where("id = ?", rev.ID).
			Update("file_path", final).Error; err != nil {
			return changed, err
		}
		rev.FilePath = final
		changed = true
	}
	return changed, nil
}

func (pr ProjectRepository) syncNeedsReview(db *gorm.DB, project *model.Project) error {
	val := project.ComputeNeedsReview()
	if val == project.NeedsReview {
		return nil
	}
	if err := db.Model(&model.Project{}).Where("id = ?", project.ID).
		Update("needs_review", val).Error; err != nil {
		return err
	}
	project.NeedsReview = val
	return nil
}
