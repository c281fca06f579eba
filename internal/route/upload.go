package route

import (
	"github.com/gin-gonic/gin"
	"github.com/stroytech/docvault/internal/controller"
)

func V1_Uploads(r *gin.RouterGroup, uc *controller.UploadController) {
	v1 := r.Group("/v1/uploads")
	{
		v1.POST("", uc.StageUpload)
	}
}
