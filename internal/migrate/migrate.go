// Package migrate upgrades versioned on-disk files one schema step at a
// time.
package migrate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ErrNewerVersion is returned when a file was written by a newer release
// than the running binary understands.
var ErrNewerVersion = errors.New("file was written by a newer version")

// Migration upgrades data from Version-1 to Version.
type Migration struct {
	Version     int
	Description string
	Upgrade     func(data []byte) ([]byte, error)
}

// Registry is the migration list for one file format.
type Registry struct {
	// CurrentVersion is the schema version this binary reads and writes.
	CurrentVersion int
	// Migrations is exported so tests can swap it for a fixture list.
	Migrations []Migration
}

// Config is the registry for config.toml.
var Config = &Registry{CurrentVersion: 1}

// Register adds m. It panics on a duplicate version.
func (r *Registry) Register(m Migration) {
	if slices.ContainsFunc(r.Migrations, func(e Migration) bool { return e.Version == m.Version }) {
		panic(fmt.Sprintf("migrate: duplicate migration version %d (%q)", m.Version, m.Description))
	}
	r.Migrations = append(r.Migrations, m)
}

// Needs reports whether a file at fileVersion must be rewritten.
func (r *Registry) Needs(fileVersion int) bool {
	return fileVersion != r.CurrentVersion
}

// Run applies every migration newer than fromVersion in version order and
// returns the upgraded data with the version it reached.
func (r *Registry) Run(data []byte, fromVersion int) ([]byte, int, error) {
	if fromVersion > r.CurrentVersion {
		return nil, fromVersion, fmt.Errorf("%w: v%d, this build reads v%d", ErrNewerVersion, fromVersion, r.CurrentVersion)
	}

	sorted := slices.Clone(r.Migrations)
	slices.SortFunc(sorted, func(a, b Migration) int { return a.Version - b.Version })

	version := fromVersion
	for _, m := range sorted {
		if m.Version <= version || m.Version > r.CurrentVersion {
			continue
		}
		slog.Info("applying migration", "version", m.Version, "description", m.Description)
		out, err := m.Upgrade(data)
		if err != nil {
			return nil, version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
		}
		data, version = out, m.Version
	}
	return data, version, nil
}
