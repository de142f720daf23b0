package main

import (
	"os/exec"
	"runtime/debug"
	"strings"
	"time"

	"tarotscore/internal/handlers"
)

// Overridable with -ldflags "-X main.commit=... -X main.buildDate=...".
var (
	commit    = ""
	buildDate = ""
)

// buildVersion reports the revision and date of the running binary, falling
// back to the local git checkout and today's date.
func buildVersion() handlers.VersionInfo {
	v := handlers.VersionInfo{Commit: commit, BuildDate: buildDate}
	if info, ok := debug.ReadBuildInfo(); ok {
		dirty := false
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if v.Commit == "" && s.Value != "" {
					v.Commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if v.BuildDate == "" && s.Value != "" {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						v.BuildDate = t.Format("2006-01-02")
					}
				}
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
		if dirty && v.Commit != "" {
			v.Commit += "-dirty"
		}
	}
	if v.Commit == "" {
		if c, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
			v.Commit = strings.TrimSpace(string(c))
		}
	}
	if v.Commit == "" {
		v.Commit = "dev"
	}
	if v.BuildDate == "" {
		v.BuildDate = time.Now().Format("2006-01-02")
	}
	return v
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
