package config

// Well-known file names and extensions for one backup run.
const (
	PathsFile     = "paths.txt"
	PublicKeyFile = "public_key.txt"

	StagingDir   = "laptop-backup"
	ManifestFile = "backup-manifest.json"

	ArchiveExt   = ".tar"
	EncryptedExt = ".age"
)
