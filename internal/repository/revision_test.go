package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stroytech/docvault/internal/model"
	"gorm.io/gorm"
)

func TestAttachAssignsDenseOrdinals(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "metro depot")
	require.NoError(t, err)

	stagedPath, hash := stageContent(t, repo, "first upload")
	first, err := repo.Revision.Attach(ctx, nil, project.ID, "plan.pdf", stagedPath, hash)
	require.NoError(t, err)
	require.Equal(t, 1, first.Ordinal)
	require.Equal(t, "01", first.Label())
	require.True(t, first.IsLatest)

	// Staged file was moved to its canonical place under the root.
	require.NoFileExists(t, stagedPath)
	require.FileExists(t, first.FilePath)
	require.Equal(t, project.CodeOrDraft()+"-01.pdf", filepath.Base(first.FilePath))

	second := attachContent(t, repo, project.ID, "plan.pdf", "second upload")
	require.Equal(t, 2, second.Ordinal)
	require.True(t, second.IsLatest)
	require.False(t, loadRevision(t, repo, first.ID).IsLatest)
}

func TestAttachRejectsDuplicateContentGlobally(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p1, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)
	p2, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)

	original := attachContent(t, repo, p1.ID, "plan.pdf", "shared bytes")

	stagedPath, hash := stageContent(t, repo, "shared bytes")
	_, err = repo.Revision.Attach(ctx, nil, p2.ID, "copy.pdf", stagedPath, hash)

	var dup *DuplicateContentError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, original.ID, dup.Existing.ID)

	// The other project's ledger stays empty and the staged file is left
	// for the caller to dispose of.
	require.Empty(t, loadRevisions(t, repo, p2.ID))
	require.FileExists(t, stagedPath)
}

func TestSetInProductionIsIndependentOfLatest(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)
	first := attachContent(t, repo, project.ID, "a.pdf", "content a")
	second := attachContent(t, repo, project.ID, "b.pdf", "content b")

	// An older revision can be the one in production.
	got, err := repo.Revision.SetInProduction(ctx, first.ID, true)
	require.NoError(t, err)
	require.True(t, got.InProduction)
	require.False(t, got.IsLatest)
	require.True(t, loadRevision(t, repo, second.ID).IsLatest)

	got, err = repo.Revision.SetInProduction(ctx, first.ID, false)
	require.NoError(t, err)
	require.False(t, got.InProduction)
}

func TestDeleteLatestPromotesMostRecentSurvivor(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)
	first := attachContent(t, repo, project.ID, "a.pdf", "content a")
	second := attachContent(t, repo, project.ID, "b.pdf", "content b")
	third := attachContent(t, repo, project.ID, "c.pdf", "content c")

	require.NoError(t, repo.Revision.Delete(ctx, third.ID))
	require.NoFileExists(t, third.FilePath)

	require.True(t, loadRevision(t, repo, second.ID).IsLatest)
	require.False(t, loadRevision(t, repo, first.ID).IsLatest)
}

func TestDeleteNonLatestKeepsLatest(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)
	first := attachContent(t, repo, project.ID, "a.pdf", "content a")
	second := attachContent(t, repo, project.ID, "b.pdf", "content b")

	require.NoError(t, repo.Revision.Delete(ctx, first.ID))
	require.True(t, loadRevision(t, repo, second.ID).IsLatest)
}

func TestDeleteSoleRevisionDeletesProject(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)
	only := attachContent(t, repo, project.ID, "a.pdf", "content a")

	require.NoError(t, repo.Revision.Delete(ctx, only.ID))
	require.NoFileExists(t, only.FilePath)

	err = repo.DB.First(&model.Project{}, "id = ?", project.ID).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestFindByHashUnknownIsNil(t *testing.T) {
	repo := newTestRepository(t)

	rev, err := repo.Revision.FindByHash(context.Background(), nil, "0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	require.Nil(t, rev)
}
