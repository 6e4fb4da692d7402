// Package misc keeps program identity used in logs, reports and help.
package misc

import (
	"runtime/debug"
)

const appName = "sassy"

// Set by the linker with -X when building releases.
var (
	version = ""
	gitHash = ""
)

func GetAppName() string {
	return appName
}

// GetVersion returns linked version, module version from build info or
// "dev".
func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
