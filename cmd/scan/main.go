// Command scan bulk-imports a directory of already-named project PDFs.
// File names are expected to follow the
// "designer-line-designstage-stage-plot[-internal]-section<number>" code
// convention; each code is resolved through the reference registry and
// files are attached through the normal dedup-checked revision path, so
// re-running the scan over the same directory is safe.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stroytech/docvault/internal/config"
	"github.com/stroytech/docvault/internal/database"
	"github.com/stroytech/docvault/internal/env"
	"github.com/stroytech/docvault/internal/filestore"
	"github.com/stroytech/docvault/internal/registry"
	"github.com/stroytech/docvault/internal/repository"
	"go.uber.org/zap"
)

var sectionRe = regexp.MustCompile(`(?P<section>\p{L}+)(?P<number>\d+)(?:-(?P<revision>[\d.]+))?$`)

func init() {
	env.LoadEnv(".env")
}

func main() {
	dir := flag.String("dir", "", "directory to scan for project PDFs")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	if *dir == "" {
		logger.Fatal("usage: scan -dir <directory>")
	}

	cfg := config.GetConfig()
	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Fatal(err)
	}
	files, err := filestore.New(cfg.Storage.ProjectsDir, logger)
	if err != nil {
		logger.Fatal(err)
	}
	repo := repository.NewRepository(db, logger, files)

	ctx := context.Background()
	var imported, duplicates, skipped int

	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		switch importErr := importFile(ctx, repo, files, path, logger); {
		case importErr == nil:
			imported++
		case errors.As(importErr, new(*repository.DuplicateContentError)):
			logger.Infof("duplicate content, skipping %s", filepath.Base(path))
			duplicates++
		default:
			logger.Warnf("skipping %s: %v", filepath.Base(path), importErr)
			skipped++
		}
		return nil
	})
	if err != nil {
		logger.Fatal(err)
	}

	logger.Infof("scan finished: %d imported, %d duplicates, %d skipped", imported, duplicates, skipped)
}

type parsedName struct {
	designer    string
	line        string
	designStage string
	stage       string
	plot        string
	internal    string
	section     string
	number      string
}

func parseFileName(name string) (*parsedName, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "-")
	if len(parts) < 6 {
		return nil, errors.New("file name has too few code segments")
	}

	tail := strings.Join(parts[5:], "-")
	m := sectionRe.FindStringSubmatchIndex(tail)
	if m == nil {
		return nil, errors.New("could not parse section code from file name")
	}
	section := tail[m[2]:m[3]]
	number := tail[m[4]:m[5]]
	internal := strings.Trim(tail[:m[0]], "-")

	return &parsedName{
		designer:    parts[0],
		line:        parts[1],
		designStage: parts[2],
		stage:       parts[3],
		plot:        parts[4],
		internal:    internal,
		section:     section,
		number:      number,
	}, nil
}

func (p *parsedName) fullCode() string {
	segments := []string{p.designer, p.line, p.designStage, p.stage, p.plot}
	if p.internal != "" {
		segments = append(segments, p.internal)
	}
	segments = append(segments, p.section+p.number)
	return strings.Join(segments, "-")
}

func importFile(ctx context.Context, repo *repository.Repository, files *filestore.Store, path string, logger *zap.SugaredLogger) error {
	name := filepath.Base(path)
	parsed, err := parseFileName(name)
	if err != nil {
		return err
	}

	project, err := repo.Project.GetOrCreateByFullCode(ctx, nil, parsed.fullCode(), "")
	if err != nil {
		return err
	}

	upd := repository.IdentityUpdate{}
	for _, ref := range []struct {
		kind registry.Kind
		code string
		dst  **registry.Result
	}{
		{registry.KindDesigner, parsed.designer, &upd.Designer},
		{registry.KindLine, parsed.line, &upd.Line},
		{registry.KindDesignStage, parsed.designStage, &upd.DesignStage},
		{registry.KindStage, parsed.stage, &upd.Stage},
		{registry.KindPlot, parsed.plot, &upd.Plot},
		{registry.KindSection, parsed.section, &upd.Section},
	} {
		res, err := repo.Registry.Resolve(ctx, nil, ref.kind, ref.code)
		if err != nil {
			return err
		}
		*ref.dst = &res
	}
	if _, err := repo.Project.UpdateIdentity(ctx, project.ID, upd); err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	stagedPath, hash, _, err := files.StageFile(src, "scan")
	src.Close()
	if err != nil {
		return err
	}

	rev, err := repo.Revision.Attach(ctx, nil, project.ID, name, stagedPath, hash)
	if err != nil {
		// The staged copy is garbage on any failure here.
		if rmErr := files.Remove(stagedPath); rmErr != nil {
			logger.Warnf("could not discard staged copy of %s: %v", name, rmErr)
		}
		return err
	}

	logger.Infof("imported %s as %s revision %s", name, project.CodeOrDraft(), rev.Label())
	return nil
}
