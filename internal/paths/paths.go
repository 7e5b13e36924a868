// Package paths names every file richcord keeps in its data directory.
package paths

import (
	"os"
	"path/filepath"
)

// Data directory file names.
const (
	ConfigFile = "config.toml"
	LogFile    = "richcord.log"
	// PIDFile guards against two --afk instances fighting over the same
	// presence slot.
	PIDFile = "afk.pid"
)

const (
	BinaryName = "richcord"
	DataDirRel = ".richcord" // relative to $HOME
	// ReleaseManifest is fetched from the repository root by the update check.
	ReleaseManifest = ".release-manifest.json"
)

// DataDir provides path construction rooted at a data directory.
type DataDir struct {
	Root string
}

// Default returns the data directory under the user's home, or override
// when it is non-empty.
func Default(override string) (DataDir, error) {
	if override != "" {
		return DataDir{Root: override}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDir{}, err
	}
	return DataDir{Root: filepath.Join(home, DataDirRel)}, nil
}

func (d DataDir) PID() string    { return filepath.Join(d.Root, PIDFile) }
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }
func (d DataDir) Log() string    { return filepath.Join(d.Root, LogFile) }
