// Package backup drives one run of the pipeline: mirror every configured
// source into the staging tree, write the checksum manifest, archive the
// tree, encrypt the archive.
package backup

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/TidosDK/laptop-backup/internal/archive"
	"github.com/TidosDK/laptop-backup/internal/config"
	"github.com/TidosDK/laptop-backup/internal/encrypt"
	"github.com/TidosDK/laptop-backup/internal/fs"
	"github.com/TidosDK/laptop-backup/internal/manifest"
	"github.com/TidosDK/laptop-backup/internal/mirror"
	"github.com/TidosDK/laptop-backup/internal/progress"
)

// Config holds everything one run needs. StagingRoot is passed through
// explicitly rather than read from process-wide state.
type Config struct {
	Sources     []string
	Recipient   string
	StagingRoot string

	// ShowProgress enables the spinner during the mirror phase.
	ShowProgress bool
}

// Run executes one backup. Mirror failures for individual sources are
// logged and do not stop the run; archive and encryption failures do.
func Run(fsys fs.FS, cfg Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no source paths configured in %s", config.PathsFile)
	}
	if cfg.StagingRoot == "" {
		cfg.StagingRoot = config.StagingDir
	}

	var bar *progress.Tracker
	if cfg.ShowProgress {
		bar = progress.NewTracker(len(cfg.Sources), "Mirroring sources")
	}

	for _, src := range cfg.Sources {
		rep, err := mirror.Mirror(fsys, src, cfg.StagingRoot)
		if err != nil {
			log.WithError(err).Errorf("mirroring %s failed", src)
		}
		logReport(src, rep)
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if !fsys.IsDir(cfg.StagingRoot) {
		return fmt.Errorf("nothing was mirrored: staging root %q does not exist", cfg.StagingRoot)
	}

	// The manifest is advisory metadata; a failure here is reported but
	// does not stop the run.
	if m, err := manifest.Build(fsys, cfg.StagingRoot); err != nil {
		log.WithError(err).Warn("building checksum manifest failed")
	} else if err := manifest.Write(fsys, cfg.StagingRoot, m); err != nil {
		log.WithError(err).Warn("writing checksum manifest failed")
	}

	res, err := archive.Create(fsys, cfg.StagingRoot)
	if err != nil {
		return fmt.Errorf("archive staging root %q: %w", cfg.StagingRoot, err)
	}
	if res.CleanupErr != nil {
		log.WithError(res.CleanupErr).Warnf("staging root %s left behind", cfg.StagingRoot)
	}

	encPath, err := encrypt.Encrypt(fsys, res.Path, cfg.Recipient)
	if err != nil {
		return fmt.Errorf("encrypt archive %q: %w", res.Path, err)
	}

	log.Infof("backup complete: %s", encPath)
	return nil
}

func logReport(src string, rep *mirror.Report) {
	if rep == nil {
		return
	}
	for _, s := range rep.Skipped {
		log.Warnf("skipping %s: %s", s.Path, s.Reason)
	}
	for _, f := range rep.Failed {
		log.WithError(f.Err).Warnf("failed to copy %s", f.Path)
	}
	log.Debugf("mirrored %s: %d files copied, %d skipped, %d failed",
		src, rep.Copied, len(rep.Skipped), len(rep.Failed))
}
