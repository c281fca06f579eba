package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stroytech/docvault/internal/util"
)

type UploadController struct {
	*baseController
}

const (
	ErrUploadFileRequired = "file is required"
	ErrUploadOnlyPdf      = "only PDF files are accepted"
	ErrUploadTooLarge     = "file exceeds the upload size limit"
)

// StageUpload receives a PDF, streams it into the staging area while
// hashing it, and registers a staged upload. Responds with duplicate=true
// and the existing revision when the content is already in the ledger.
func (uc UploadController) StageUpload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		uc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrUploadFileRequired, err, nil)
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrUploadOnlyPdf, nil, nil)
		return
	}
	maxBytes := int64(uc.app.Config.Upload.MaxSizeMB) << 20
	if fileHeader.Size > maxBytes {
		util.ResponseFailed(ctx, http.StatusRequestEntityTooLarge, ErrUploadTooLarge, nil, nil)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		uc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to read upload", err, nil)
		return
	}
	defer src.Close()

	owner := uc.getOwner(ctx)
	tmpPath, hash, _, err := uc.app.FileStore.StageFile(src, owner)
	if err != nil {
		uc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to stage upload", err, nil)
		return
	}

	if uc.app.Config.Upload.ValidatePdf {
		if err := api.ValidateFile(tmpPath, nil); err != nil {
			uc.app.Logger.Warnf("rejecting structurally invalid pdf %q: %v", fileHeader.Filename, err)
			if rmErr := uc.app.FileStore.Remove(tmpPath); rmErr != nil {
				uc.app.Logger.Error(rmErr)
			}
			util.ResponseFailed(ctx, http.StatusBadRequest, ErrUploadOnlyPdf, err, nil)
			return
		}
	}

	upload, existing, err := uc.app.Repository.StagedUpload.Register(ctx, fileHeader.Filename, owner, tmpPath, hash)
	if err != nil {
		uc.app.Logger.Error(err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to register upload", err, nil)
		return
	}
	if existing != nil {
		util.ResponseSuccess(ctx, gin.H{
			"duplicate": true,
			"existing": gin.H{
				"revisionId": existing.ID,
				"projectId":  existing.ProjectID,
				"label":      existing.Label(),
			},
		})
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"duplicate": false,
		"uploadId":  upload.ID,
		"fileName":  upload.OriginalName,
		"sha256":    upload.ContentHash,
	})
}
