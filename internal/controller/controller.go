package controller

import (
	appcontext "github.com/stroytech/docvault/internal/app_context"
	"github.com/gin-gonic/gin"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index    *IndexController
	Project  *ProjectController
	Revision *RevisionController
	Upload   *UploadController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:    &IndexController{baseController: bc},
		Project:  &ProjectController{baseController: bc},
		Revision: &RevisionController{baseController: bc},
		Upload:   &UploadController{baseController: bc},
	}
}

// getOwner identifies the acting user. Authentication is handled by an
// outer layer; it forwards the actor in a header.
func (b *baseController) getOwner(ctx *gin.Context) string {
	owner := ctx.GetHeader("X-Owner-Id")
	if owner == "" {
		owner = "anonymous"
	}
	return owner
}
