package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stroytech/docvault/internal/model"
)

func TestRegisterAndCommit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)

	tmpPath, hash := stageContent(t, repo, "upload bytes")
	upload, existing, err := repo.StagedUpload.Register(ctx, "plan.pdf", "alice", tmpPath, hash)
	require.NoError(t, err)
	require.Nil(t, existing)
	require.False(t, upload.Consumed)

	rev, err := repo.StagedUpload.Commit(ctx, upload.ID, "alice", project.ID)
	require.NoError(t, err)
	require.Equal(t, 1, rev.Ordinal)
	require.Equal(t, "plan.pdf", rev.FileName)
	require.FileExists(t, rev.FilePath)
	require.NoFileExists(t, tmpPath)

	var stored model.StagedUpload
	require.NoError(t, repo.DB.First(&stored, "id = ?", upload.ID).Error)
	require.True(t, stored.Consumed)
}

func TestRegisterShortCircuitsKnownContent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)
	original := attachContent(t, repo, project.ID, "plan.pdf", "known bytes")

	tmpPath, hash := stageContent(t, repo, "known bytes")
	upload, existing, err := repo.StagedUpload.Register(ctx, "again.pdf", "alice", tmpPath, hash)
	require.NoError(t, err)
	require.Nil(t, upload)
	require.Equal(t, original.ID, existing.ID)
	require.NoFileExists(t, tmpPath)

	var count int64
	require.NoError(t, repo.DB.Model(&model.StagedUpload{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCommitDuplicateStillConsumesUpload(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p1, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)
	p2, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)

	// Both uploads register while the ledger is still empty.
	tmp1, hash1 := stageContent(t, repo, "same bytes")
	up1, _, err := repo.StagedUpload.Register(ctx, "one.pdf", "alice", tmp1, hash1)
	require.NoError(t, err)
	tmp2, hash2 := stageContent(t, repo, "same bytes")
	up2, _, err := repo.StagedUpload.Register(ctx, "two.pdf", "alice", tmp2, hash2)
	require.NoError(t, err)

	rev, err := repo.StagedUpload.Commit(ctx, up1.ID, "alice", p1.ID)
	require.NoError(t, err)

	_, err = repo.StagedUpload.Commit(ctx, up2.ID, "alice", p2.ID)
	var dup *DuplicateContentError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, rev.ID, dup.Existing.ID)

	// The duplicate upload is burned, not left retryable, and its bytes
	// are gone.
	var stored model.StagedUpload
	require.NoError(t, repo.DB.First(&stored, "id = ?", up2.ID).Error)
	require.True(t, stored.Consumed)
	require.NoFileExists(t, tmp2)
}

func TestCommitRequiresOwnerAndSingleUse(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)

	tmpPath, hash := stageContent(t, repo, "upload bytes")
	upload, _, err := repo.StagedUpload.Register(ctx, "plan.pdf", "alice", tmpPath, hash)
	require.NoError(t, err)

	_, err = repo.StagedUpload.Commit(ctx, upload.ID, "mallory", project.ID)
	require.ErrorIs(t, err, ErrStagedUploadNotFound)

	_, err = repo.StagedUpload.Commit(ctx, upload.ID, "alice", project.ID)
	require.NoError(t, err)

	_, err = repo.StagedUpload.Commit(ctx, upload.ID, "alice", project.ID)
	require.ErrorIs(t, err, ErrStagedUploadNotFound)
}

func TestSweepReclaimsConsumedAndStale(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	project, err := repo.Project.CreateDraft(ctx, "")
	require.NoError(t, err)

	// Consumed upload.
	tmp1, hash1 := stageContent(t, repo, "bytes one")
	up1, _, err := repo.StagedUpload.Register(ctx, "one.pdf", "alice", tmp1, hash1)
	require.NoError(t, err)
	_, err = repo.StagedUpload.Commit(ctx, up1.ID, "alice", project.ID)
	require.NoError(t, err)

	// Abandoned upload, backdated past the cutoff.
	tmp2, hash2 := stageContent(t, repo, "bytes two")
	up2, _, err := repo.StagedUpload.Register(ctx, "two.pdf", "alice", tmp2, hash2)
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.DB.Model(&model.StagedUpload{}).Where("id = ?", up2.ID).Update("created_at", old).Error)

	// Fresh upload that must survive.
	tmp3, hash3 := stageContent(t, repo, "bytes three")
	up3, _, err := repo.StagedUpload.Register(ctx, "three.pdf", "alice", tmp3, hash3)
	require.NoError(t, err)

	removed, err := repo.StagedUpload.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	require.NoFileExists(t, tmp2)
	require.FileExists(t, tmp3)

	var count int64
	require.NoError(t, repo.DB.Model(&model.StagedUpload{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
	var survivor model.StagedUpload
	require.NoError(t, repo.DB.First(&survivor, "id = ?", up3.ID).Error)
}
