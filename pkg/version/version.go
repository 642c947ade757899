package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set at build time with -ldflags "-X github.com/civiclink/guardrails/pkg/version.Version=...".
var (
	Version   = "0.1.0"
	Commit    = ""
	AppName   = "CivicLink Guardrails"
	BuildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetInfo() Info {
	return Info{
		AppName:   AppName,
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is sent on outbound agent calls, e.g. "civiclink-guardrails/0.1.0".
func (i Info) UserAgent() string {
	product := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(i.AppName)), " ", "-")
	if product == "" {
		product = "guardrails"
	}
	if i.Commit == "" {
		return product + "/" + i.Version
	}
	return product + "/" + i.Version + "+" + shortCommit(i.Commit)
}

func (i Info) String() string {
	build := i.Version
	if i.Commit != "" {
		build += "+" + shortCommit(i.Commit)
	}
	return fmt.Sprintf("%s %s (%s, %s, built %s)", i.AppName, build, i.GoVersion, i.Platform, i.BuildDate)
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
