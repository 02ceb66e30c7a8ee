package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/TidosDK/laptop-backup/internal/backup"
	"github.com/TidosDK/laptop-backup/internal/config"
	"github.com/TidosDK/laptop-backup/internal/fs"
)

func main() {
	sources, err := config.LoadSources(config.PathsFile)
	if err != nil {
		log.WithError(err).Fatal("loading source paths")
	}

	recipient, err := config.LoadRecipient(config.PublicKeyFile)
	if err != nil {
		log.WithError(err).Fatal("loading recipient public key")
	}

	cfg := backup.Config{
		Sources:      sources,
		Recipient:    recipient,
		StagingRoot:  config.StagingDir,
		ShowProgress: true,
	}

	if err := backup.Run(fs.NewOSFS(), cfg); err != nil {
		log.WithError(err).Error("backup failed")
		os.Exit(1)
	}
}
