package config

import "runtime"

// sparkmon --version prints these values, release builds set them with:
// go build -ldflags "-X 'github.com/gwos/sparkmon/config.buildTag=<TAG>' -X 'github.com/gwos/sparkmon/config.buildTime=`date --rfc-3339=s`'"
var (
	buildTag  = "0.x.x"
	buildTime = "unknown"
)

// BuildInfo identifies the sparkmon binary
type BuildInfo struct {
	Version   string `json:"version"`
	BuiltAt   string `json:"builtAt"`
	GoVersion string `json:"goVersion"`
}

// GetBuildInfo returns the release tag and build time linked into the binary,
// development builds report the placeholders
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   buildTag,
		BuiltAt:   buildTime,
		GoVersion: runtime.Version(),
	}
}
