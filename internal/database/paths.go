package database

import "path/filepath"

const (
	primaryFileName = "proauth.db3"

	walSuffix       = "-wal"
	shmSuffix       = "-shm"
	backupSuffix    = ".backup"
	backupWALSuffix = ".backup-wal"
	tempSuffix      = ".temp"
)

// Paths holds the canonical locations of the store file and its sidecars
// under a single base directory. Backup and BackupWAL together form the
// snapshot set: rows committed just before a transition may still live only
// in the write-ahead log, so the primary file alone is not a snapshot.
type Paths struct {
	Primary   string
	WAL       string
	SHM       string
	Backup    string
	BackupWAL string
	Temp      string
}

func ResolvePaths(baseDir string) Paths {
	primary := filepath.Join(baseDir, primaryFileName)
	return Paths{
		Primary:   primary,
		WAL:       primary + walSuffix,
		SHM:       primary + shmSuffix,
		Backup:    primary + backupSuffix,
		BackupWAL: primary + backupWALSuffix,
		Temp:      primary + tempSuffix,
	}
}

// Sidecars returns the journal files that accompany the primary store file.
func (p Paths) Sidecars() []string {
	return []string{p.WAL, p.SHM}
}
