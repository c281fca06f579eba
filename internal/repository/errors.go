package repository

import (
	"errors"
	"fmt"

	"github.com/stroytech/docvault/internal/model"
)

var (
	// ErrEmptyFullCode rejects a blank project code on assign/rename.
	ErrEmptyFullCode = errors.New("full code must not be empty")

	// ErrStagedUploadNotFound covers a missing, foreign or already consumed
	// staged upload at commit time.
	ErrStagedUploadNotFound = errors.New("staged upload not found or already consumed")
)

// DuplicateContentError is raised when a content hash already exists
// anywhere in the ledger. Non-fatal: the caller discards the staged upload
// and points the user at the existing revision.
type DuplicateContentError struct {
	Existing *model.Revision
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content sha256=%s already stored as revision %s of project %s",
		e.Existing.ContentHash, e.Existing.Label(), e.Existing.ProjectID)
}
