package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/stroytech/docvault/internal/util"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"service": "docvault",
		"env":     ic.app.Config.ENV,
	})
}
