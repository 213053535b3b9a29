package rigptt

import (
	"fmt"
	"runtime/debug"
	"strconv"
)

// Set at build time via `-ldflags "-X 'github.com/doismellburning/rigptt/src.RIGPTT_VERSION=X'"`
var RIGPTT_VERSION string

func getBuildSettingOrDefault(bi *debug.BuildInfo, key string, defaultValue string) string {
	if bi == nil {
		return defaultValue
	}

	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}

	return defaultValue
}

// Version is the one-line version banner printed by --version.
func Version(program string) string {
	var buildInfo, _ = debug.ReadBuildInfo()

	var buildTimeStr = getBuildSettingOrDefault(buildInfo, "vcs.time", "UNKNOWN")

	var (
		buildCommit      = getBuildSettingOrDefault(buildInfo, "vcs.revision", "UNKNOWN")
		buildDirtyStr    = getBuildSettingOrDefault(buildInfo, "vcs.modified", "INVALID")
		buildDirty, dErr = strconv.ParseBool(buildDirtyStr)
	)

	if buildDirty {
		buildCommit += "-DIRTY"
	} else if dErr != nil {
		buildCommit += "-UNKNOWNDIRTY"
	}

	var version = RIGPTT_VERSION
	if version == "" {
		version = "!UNKNOWN!"
	}

	return fmt.Sprintf("%s - Version %s (revision %s, built at %s)", program, version, buildCommit, buildTimeStr)
}
