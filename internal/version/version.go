// Package version reports the build the worker is running. Release builds
// set Version, Commit and Date through -ldflags; development builds fall
// back to the VCS stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/fmueller/voxworker/internal/platform"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

type Info struct {
	Version  string
	Commit   string
	Date     string
	Platform string
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", i.Version, i.Commit, i.Date, i.Platform)
}

func Resolve() string {
	return Current().Version
}

func Current() Info {
	return resolve(Version, Commit, Date, debug.ReadBuildInfo)
}

func resolve(version, commit, date string, readBuildInfo func() (*debug.BuildInfo, bool)) Info {
	info := Info{
		Version:  version,
		Commit:   commit,
		Date:     date,
		Platform: platform.CurrentRuntime().String(),
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Version != "dev" {
		return info
	}

	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return info
	}

	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = strings.TrimPrefix(v, "v")
	}

	var revision, modified string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			modified = s.Value
		}
	}
	if revision == "" {
		return info
	}

	if len(revision) > 12 {
		revision = revision[:12]
	}
	if info.Commit == "unknown" {
		info.Commit = revision
	}
	if info.Version == "dev" {
		info.Version = "dev-" + revision
		if modified == "true" {
			info.Version += "-dirty"
		}
	}
	return info
}
