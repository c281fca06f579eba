package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stroytech/docvault/internal/registry"
	"github.com/stroytech/docvault/internal/repository"
	"github.com/stroytech/docvault/internal/util"
	"gorm.io/gorm"
)

type ProjectController struct {
	*baseController
}

func (pc ProjectController) respondDuplicate(ctx *gin.Context, dup *repository.DuplicateContentError) {
	util.ResponseFailed(ctx, http.StatusConflict, "Duplicate content", nil, gin.H{
		"duplicate": true,
		"existing": gin.H{
			"revisionId": dup.Existing.ID,
			"projectId":  dup.Existing.ProjectID,
			"label":      dup.Existing.Label(),
		},
	})
}

// CreateDraft opens a project without a code; it stays in needs-review
// until identified.
func (pc ProjectController) CreateDraft(ctx *gin.Context) {
	type Request struct {
		Construction string `json:"construction" form:"construction"`
	}
	var body Request
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", err, nil)
		return
	}

	project, err := pc.app.Repository.Project.CreateDraft(ctx, body.Construction)
	if err != nil {
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to create draft", err, nil)
		return
	}
	util.ResponseSuccess(ctx, gin.H{"project": project})
}

// CreateWithUpload is the main web flow: find or create the project by its
// full code and commit a previously staged upload as its next revision.
func (pc ProjectController) CreateWithUpload(ctx *gin.Context) {
	type Request struct {
		FullCode     string `json:"fullCode" form:"fullCode" binding:"required,strNotEmpty,max=128"`
		Construction string `json:"construction" form:"construction"`
		UploadID     string `json:"uploadId" form:"uploadId" binding:"required,strNotEmpty"`
	}
	var body Request
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", err, nil)
		return
	}

	project, err := pc.app.Repository.Project.GetOrCreateByFullCode(ctx, nil, body.FullCode, body.Construction)
	if err != nil {
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to resolve project", err, nil)
		return
	}

	rev, err := pc.app.Repository.StagedUpload.Commit(ctx, body.UploadID, pc.getOwner(ctx), project.ID)
	if err != nil {
		var dup *repository.DuplicateContentError
		switch {
		case errors.As(err, &dup):
			pc.respondDuplicate(ctx, dup)
		case errors.Is(err, repository.ErrStagedUploadNotFound):
			util.ResponseFailed(ctx, http.StatusNotFound, "Staged upload not found", err, nil)
		default:
			pc.app.Logger.Error(err)
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to commit upload", err, nil)
		}
		return
	}

	util.ResponseSuccess(ctx, gin.H{"project": project, "revision": rev})
}

// CommitRevision attaches a staged upload to an existing project.
func (pc ProjectController) CommitRevision(ctx *gin.Context) {
	type Request struct {
		UploadID string `json:"uploadId" form:"uploadId" binding:"required,strNotEmpty"`
	}
	var body Request
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", err, nil)
		return
	}

	projectID := ctx.Param("projectId")
	rev, err := pc.app.Repository.StagedUpload.Commit(ctx, body.UploadID, pc.getOwner(ctx), projectID)
	if err != nil {
		var dup *repository.DuplicateContentError
		switch {
		case errors.As(err, &dup):
			pc.respondDuplicate(ctx, dup)
		case errors.Is(err, repository.ErrStagedUploadNotFound):
			util.ResponseFailed(ctx, http.StatusNotFound, "Staged upload not found", err, nil)
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.ResponseFailed(ctx, http.StatusNotFound, "Project not found", err, nil)
		default:
			pc.app.Logger.Error(err)
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to commit upload", err, nil)
		}
		return
	}
	util.ResponseSuccess(ctx, gin.H{"revision": rev})
}

// AssignCode names a draft or renames a project. The response carries the
// surviving project: after a merge that is the target, not the one in the
// URL.
func (pc ProjectController) AssignCode(ctx *gin.Context) {
	type Request struct {
		FullCode string `json:"fullCode" form:"fullCode" binding:"required,strNotEmpty,max=128"`
	}
	var body Request
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", err, nil)
		return
	}

	projectID := ctx.Param("projectId")
	current, err := pc.app.Repository.Project.GetByID(ctx, nil, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Project not found", err, nil)
			return
		}
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to load project", err, nil)
		return
	}

	var project = current
	if current.FullCode == nil || *current.FullCode == "" {
		project, err = pc.app.Repository.Project.AssignFullCode(ctx, projectID, body.FullCode)
	} else {
		project, err = pc.app.Repository.Project.ChangeFullCode(ctx, projectID, body.FullCode)
	}
	if err != nil {
		if errors.Is(err, repository.ErrEmptyFullCode) {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Full code must not be empty", err, nil)
			return
		}
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to change project code", err, nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"project": project,
		"merged":  project.ID != projectID,
	})
}

func (pc ProjectController) List(ctx *gin.Context) {
	type Request struct {
		Search      string `form:"search"`
		NeedsReview *bool  `form:"needsReview"`
		Page        uint   `form:"page,default=1"`
		PageSize    uint   `form:"pageSize,default=20"`
	}
	var query Request
	if err := ctx.ShouldBindQuery(&query); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid query", err, nil)
		return
	}

	projects, total, err := pc.app.Repository.Project.List(ctx, query.Search, query.NeedsReview, query.Page, query.PageSize)
	if err != nil {
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to list projects", err, nil)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"projects":  projects,
		"total":     total,
		"totalPage": util.CalculateTotalPage(total, query.PageSize),
	})
}

func (pc ProjectController) GetById(ctx *gin.Context) {
	project, err := pc.app.Repository.Project.GetByID(ctx, nil, ctx.Param("projectId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Project not found", err, nil)
			return
		}
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to load project", err, nil)
		return
	}
	util.ResponseSuccess(ctx, gin.H{"project": project})
}

// Update edits construction and classifier references by code. Codes go
// through the reference registry; an unknown code clears the reference and
// the derived needs-review flag reflects it.
func (pc ProjectController) Update(ctx *gin.Context) {
	type Request struct {
		Construction *string `json:"construction" form:"construction"`
		Designer     *string `json:"designer" form:"designer"`
		Line         *string `json:"line" form:"line"`
		DesignStage  *string `json:"designStage" form:"designStage"`
		Stage        *string `json:"stage" form:"stage"`
		Plot         *string `json:"plot" form:"plot"`
		Section      *string `json:"section" form:"section"`
	}
	var body Request
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", err, nil)
		return
	}

	upd := repository.IdentityUpdate{Construction: body.Construction}
	resolve := func(kind registry.Kind, code *string, dst **registry.Result) bool {
		if code == nil {
			return true
		}
		res, err := pc.app.Repository.Registry.Resolve(ctx, nil, kind, *code)
		if err != nil {
			pc.app.Logger.Error(err)
			util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to resolve classifier", err, nil)
			return false
		}
		*dst = &res
		return true
	}
	if !resolve(registry.KindDesigner, body.Designer, &upd.Designer) ||
		!resolve(registry.KindLine, body.Line, &upd.Line) ||
		!resolve(registry.KindDesignStage, body.DesignStage, &upd.DesignStage) ||
		!resolve(registry.KindStage, body.Stage, &upd.Stage) ||
		!resolve(registry.KindPlot, body.Plot, &upd.Plot) ||
		!resolve(registry.KindSection, body.Section, &upd.Section) {
		return
	}

	project, err := pc.app.Repository.Project.UpdateIdentity(ctx, ctx.Param("projectId"), upd)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Project not found", err, nil)
			return
		}
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to update project", err, nil)
		return
	}
	util.ResponseSuccess(ctx, gin.H{"project": project})
}

// Reconcile re-derives canonical file names for one project.
func (pc ProjectController) Reconcile(ctx *gin.Context) {
	changed, err := pc.app.Repository.Project.ReconcileNaming(ctx, ctx.Param("projectId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.ResponseFailed(ctx, http.StatusNotFound, "Project not found", err, nil)
			return
		}
		pc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Reconciliation failed", err, nil)
		return
	}
	util.ResponseSuccess(ctx, gin.H{"changed": changed})
}
