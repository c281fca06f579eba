package filestore

import "errors"

var (
	// ErrPathEscape means a computed destination would resolve outside the
	// configured root. Fatal: the operation aborts before touching disk.
	ErrPathEscape = errors.New("path escapes projects root")

	// ErrMissingSource means an expected revision file is absent from disk.
	ErrMissingSource = errors.New("revision file not found on disk")
)
