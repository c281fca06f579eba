package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stroytech/docvault/internal/util"
	"gorm.io/gorm"
)

type RevisionController struct {
	*baseController
}

// SetInProduction toggles whether a revision is issued for construction
// work. Independent of is_latest.
func (rc RevisionController) SetInProduction(ctx *gin.Context) {
	type Request struct {
		Value *bool `json:"value" form:"value" binding:"required"`
	}
	var body Request
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", err, nil)
		return
	}

	rev, err := rc.app.Repository.Revision.SetInProduction(ctx, ctx.Param("revisionId"), *body.Value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Revision not found", err, nil)
			return
		}
		rc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update revision", err, nil)
		return
	}
	util.ResponseSuccess(ctx, gin.H{"revision": rev})
}

func (rc RevisionController) Delete(ctx *gin.Context) {
	if err := rc.app.Repository.Revision.Delete(ctx, ctx.Param("revisionId")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Revision not found", err, nil)
			return
		}
		rc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to delete revision", err, nil)
		return
	}
	util.ResponseSuccess(ctx, nil)
}

// Open streams the revision's PDF. A file missing from disk triggers one
// reconciliation pass before reporting not found.
func (rc RevisionController) Open(ctx *gin.Context) {
	rev, err := rc.app.Repository.Revision.GetByID(ctx, nil, ctx.Param("revisionId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Revision not found", err, nil)
			return
		}
		rc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to load revision", err, nil)
		return
	}

	ok, err := rc.app.FileStore.Exists(rev.FilePath)
	if err != nil {
		rc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to access file", err, nil)
		return
	}
	if !ok {
		if _, recErr := rc.app.Repository.Project.ReconcileNaming(ctx, rev.ProjectID); recErr != nil {
			rc.app.Logger.Warnf("open revision %s: reconciliation failed: %v", rev.ID, recErr)
		}
		rev, err = rc.app.Repository.Revision.GetByID(ctx, nil, rev.ID)
		if err != nil {
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to load revision", err, nil)
			return
		}
		ok, err = rc.app.FileStore.Exists(rev.FilePath)
		if err != nil {
			rc.app.Logger.Error(err)
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to access file", err, nil)
			return
		}
		if !ok {
			util.ResponseFailed(ctx, http.StatusNotFound, "Revision file not found", nil, nil)
			return
		}
	}

	ctx.Header("Content-Type", "application/pdf")
	ctx.File(rev.FilePath)
}
