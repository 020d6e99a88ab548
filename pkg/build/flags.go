// SPDX-License-Identifier: MIT
//
// Package build provides functionality to manage and retrieve build information
// for a Go application. It allows embedding metadata such as the application
// name, build timestamp, Git commit hash, and semantic version into the binary
// at compile time using linker flags, for example:
//
//	go build -ldflags "-X beanal/pkg/build.buildVersion=0.3.0 -X beanal/pkg/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Flags left unset fall back to the module's embedded VCS information, then
// to "unknown".
package build

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Info is the build metadata of the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the version line printed by the version command.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// ErrMissingFlags reports ldflags that were not set at link time.
var ErrMissingFlags = errors.New("build flags missing")

const unknown = "unknown"

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	readBuildInfo = debug.ReadBuildInfo

	buildFlags = &Info{
		Name:        "beanal",
		Description: "Real-time audio spectrum bar visualizer",
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
)

// Initialize copies build information from the ldflags variables into the
// build info. Fields without a flag are filled from the embedded module and
// VCS metadata when available. The returned error lists the missing flags;
// the info is usable either way.
func Initialize() error {
	var missing []string
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime == "" {
		missing = append(missing, "BuildTime")
	} else {
		buildFlags.Time = buildTime
	}
	if buildCommit == "" {
		missing = append(missing, "BuildCommit")
	} else {
		buildFlags.Commit = buildCommit
	}
	if buildVersion == "" {
		missing = append(missing, "BuildVersion")
	} else {
		buildFlags.Version = buildVersion
	}

	if len(missing) == 0 {
		return nil
	}
	fillFromModule(buildFlags)
	return fmt.Errorf("%w: %s", ErrMissingFlags, strings.Join(missing, ", "))
}

func fillFromModule(info *Info) {
	bi, ok := readBuildInfo()
	if !ok {
		return
	}
	if info.Version == unknown && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == unknown:
			info.Commit = s.Value
			if len(info.Commit) > 12 {
				info.Commit = info.Commit[:12]
			}
		case s.Key == "vcs.time" && info.Time == unknown:
			info.Time = s.Value
		}
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() Info {
	return *buildFlags
}
