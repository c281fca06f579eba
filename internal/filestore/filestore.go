package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stroytech/docvault/internal/constant"
	"go.uber.org/zap"
)

// Store implements the file placement policy: canonical names computed from
// (full code, ordinal), every destination verified to resolve inside the
// configured root before any move executes.
type Store struct {
	root   string
	logger *zap.SugaredLogger
}

// New resolves rootDir (created if absent) and returns a Store bound to it.
// Symlinks in the root itself are resolved up front so containment checks
// compare against the real location.
func New(rootDir string, logger *zap.SugaredLogger) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("create projects root: %w", err)
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	return &Store{root: resolved, logger: logger}, nil
}

func (s *Store) Root() string {
	return s.root
}

// TmpDir returns the staging subdirectory, creating it if needed.
func (s *Store) TmpDir() (string, error) {
	dir := filepath.Join(s.root, constant.TmpUploadDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// SanitizeName strips path separators and filesystem-illegal characters and
// collapses runs of whitespace.
func SanitizeName(value string) string {
	v := strings.Join(strings.Fields(value), " ")
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	v = replacer.Replace(v)
	return strings.Trim(v, ". ")
}

// NormalizeFullCode trims and collapses inner whitespace of a manually
// entered project code.
func NormalizeFullCode(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// CanonicalName builds "<sanitized code>-<label><ext>".
func CanonicalName(fullCode, label, ext string) string {
	if ext == "" {
		ext = ".pdf"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return SanitizeName(fullCode) + "-" + label + ext
}

// CanonicalPath computes the containment-checked destination for a revision.
// Layout is flat: every file sits directly under the root.
func (s *Store) CanonicalPath(fullCode, label, ext string) (string, error) {
	return s.EnsureInside(filepath.Join(s.root, CanonicalName(fullCode, label, ext)))
}

// EnsureInside returns the cleaned absolute form of path, or ErrPathEscape
// if it does not resolve strictly under the root. The parent directory is
// symlink-resolved when it exists so a linked component cannot smuggle the
// file out.
func (s *Store) EnsureInside(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	if !s.inside(abs) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, abs)
	}

	dir := filepath.Dir(abs)
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return abs, nil
		}
		return "", err
	}
	resolved := filepath.Join(resolvedDir, filepath.Base(abs))
	if !s.inside(resolved) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrPathEscape, abs, resolved)
	}
	return abs, nil
}

func (s *Store) inside(abs string) bool {
	return abs == s.root || strings.HasPrefix(abs, s.root+string(filepath.Separator))
}

// MoveIntoPlace moves src to dst, both containment-checked. On a
// destination-name collision the name gets a "__dup" suffix instead of
// overwriting. Returns the path the file ended up at. Cross-device moves
// fall back to copy+delete.
func (s *Store) MoveIntoPlace(src, dst string) (string, error) {
	src, err := s.EnsureInside(src)
	if err != nil {
		return "", err
	}
	dst, err = s.EnsureInside(dst)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingSource, src)
		}
		return "", err
	}

	if src == dst {
		return dst, nil
	}

	if _, err := os.Stat(dst); err == nil {
		dst, err = s.disambiguate(src, dst)
		if err != nil {
			return "", err
		}
		if dst == src {
			// Already sitting at the collision-suffixed name.
			return dst, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) {
			return "", err
		}
		// Different volume: copy then delete.
		if err := copyFile(src, dst); err != nil {
			return "", err
		}
		if err := os.Remove(src); err != nil {
			s.logger.Warnf("filestore: leftover source after cross-device move: %s: %v", src, err)
		}
	}
	return dst, nil
}

// disambiguate picks a deterministic "__dupN" variant of dst. Determinism
// keeps the reconciliation pass idempotent: a file already parked at a
// collision name stays put on the next run.
func (s *Store) disambiguate(src, dst string) (string, error) {
	ext := filepath.Ext(dst)
	stem := strings.TrimSuffix(dst, ext)
	for i := 0; i < 10; i++ {
		candidate := stem + "__dup" + ext
		if i > 0 {
			candidate = fmt.Sprintf("%s__dup%d%s", stem, i+1, ext)
		}
		if candidate == src {
			return src, nil
		}
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return s.EnsureInside(candidate)
		}
	}
	return "", fmt.Errorf("could not find free name for %s", dst)
}

// Exists reports whether a containment-checked path is present on disk.
func (s *Store) Exists(path string) (bool, error) {
	path, err := s.EnsureInside(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// Remove best-effort deletes a file under the root. A missing file is not
// an error; an escape attempt is.
func (s *Store) Remove(path string) error {
	path, err := s.EnsureInside(path)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// StageFile streams r into a fresh file in the staging directory while
// hashing it, without buffering the whole upload in memory. Returns the temp
// path, hex sha256 and byte count.
func (s *Store) StageFile(r io.Reader, ownerID string) (string, string, int64, error) {
	dir, err := s.TmpDir()
	if err != nil {
		return "", "", 0, err
	}
	token, err := gonanoid.New(12)
	if err != nil {
		return "", "", 0, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.pdf", SanitizeName(ownerID), token))

	f, err := os.Create(path)
	if err != nil {
		return "", "", 0, err
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", "", 0, err
	}
	return path, hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashFile computes the hex sha256 of an existing file, streaming.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
