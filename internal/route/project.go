package route

import (
	"github.com/gin-gonic/gin"
	"github.com/stroytech/docvault/internal/controller"
)

func V1_Projects(r *gin.RouterGroup, pc *controller.ProjectController, rc *controller.RevisionController) {
	v1 := r.Group("/v1/projects")
	{
		v1.GET("", pc.List)
		v1.POST("", pc.CreateWithUpload)
		v1.POST("/drafts", pc.CreateDraft)
		v1.GET("/:projectId", pc.GetById)
		v1.PATCH("/:projectId", pc.Update)
		v1.POST("/:projectId/code", pc.AssignCode)
		v1.POST("/:projectId/revisions", pc.CommitRevision)
		v1.POST("/:projectId/reconcile", pc.Reconcile)
	}

	rev := r.Group("/v1/revisions")
	{
		rev.GET("/:revisionId/file", rc.Open)
		rev.PATCH("/:revisionId/production", rc.SetInProduction)
		rev.DELETE("/:revisionId", rc.Delete)
	}
}
