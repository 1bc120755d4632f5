package cleaner

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prabalesh/perftop/internal/config"
)

// Risk describes what a user may lose by cleaning a target.
type Risk string

const (
	RiskSafe Risk = "safe"
	RiskLow  Risk = "low"
)

// Target is a named group of directories whose old files can be removed.
type Target struct {
	Name        string
	Description string
	Paths       []string
	// MinAge skips files modified more recently than this.
	MinAge time.Duration
	// OwnedOnly restricts the target to files owned by the current user, for
	// shared directories such as /tmp.
	OwnedOnly bool
	Risk      Risk
}

// DefaultTargets returns the built-in targets rooted at the user's home and
// temporary directories. Targets under a directory that is not absolute are
// left out, so an unknown home never resolves against the working directory.
func DefaultTargets(home, tmp string, minAge time.Duration) []Target {
	var targets []Target
	if filepath.IsAbs(tmp) {
		targets = append(targets, Target{
			Name:        "temp",
			Description: "Temporary files",
			Paths:       []string{tmp},
			MinAge:      minAge,
			OwnedOnly:   true,
			Risk:        RiskSafe,
		})
	}
	if !filepath.IsAbs(home) {
		return targets
	}

	cache := filepath.Join(home, ".cache")
	return append(targets,
		Target{
			Name:        "thumbnails",
			Description: "Thumbnail cache",
			Paths:       []string{filepath.Join(cache, "thumbnails")},
			MinAge:      minAge,
			Risk:        RiskSafe,
		},
		Target{
			Name:        "trash",
			Description: "Trash",
			Paths:       []string{filepath.Join(home, ".local", "share", "Trash", "files"), filepath.Join(home, ".local", "share", "Trash", "info")},
			Risk:        RiskLow,
		},
		Target{
			Name:        "pip",
			Description: "Python pip cache",
			Paths:       []string{filepath.Join(cache, "pip")},
			MinAge:      minAge,
			Risk:        RiskSafe,
		},
		Target{
			Name:        "npm",
			Description: "npm cache",
			Paths:       []string{filepath.Join(home, ".npm", "_cacache")},
			MinAge:      minAge,
			Risk:        RiskSafe,
		},
	)
}

// TargetsFromConfig returns the configured targets, or the defaults when the
// config names none. Configured targets with a relative path are skipped.
func TargetsFromConfig(cfg *config.Config) []Target {
	if len(cfg.Cleaner.Targets) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			home = ""
		}
		return DefaultTargets(home, os.TempDir(), cfg.TargetMinAge(config.CleanerTarget{}))
	}
	targets := make([]Target, 0, len(cfg.Cleaner.Targets))
	for _, t := range cfg.Cleaner.Targets {
		if !filepath.IsAbs(t.Path) {
			continue
		}
		targets = append(targets, Target{
			Name:   t.Name,
			Paths:  []string{t.Path},
			MinAge: cfg.TargetMinAge(t),
			Risk:   RiskLow,
		})
	}
	return targets
}
