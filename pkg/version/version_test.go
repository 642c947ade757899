package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, AppName, info.AppName)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Contains(t, info.String(), AppName+" "+Version)
}

func TestInfo_UserAgent(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{name: "app name is slugged", info: Info{AppName: "CivicLink Guardrails", Version: "0.1.0"}, want: "civiclink-guardrails/0.1.0"},
		{name: "commit is shortened", info: Info{AppName: "CivicLink Guardrails", Version: "0.1.0", Commit: "4f2a9c81d0e7"}, want: "civiclink-guardrails/0.1.0+4f2a9c8"},
		{name: "short commit kept", info: Info{AppName: "x", Version: "1", Commit: "abc"}, want: "x/1+abc"},
		{name: "blank app name falls back", info: Info{AppName: "  ", Version: "2.0.0"}, want: "guardrails/2.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.UserAgent())
		})
	}
}

func TestInfo_StringIncludesCommit(t *testing.T) {
	info := Info{AppName: "CivicLink Guardrails", Version: "0.1.0", Commit: "4f2a9c81d0e7", GoVersion: "go1.22", Platform: "linux/amd64", BuildDate: "2026-10-17"}
	assert.Equal(t, "CivicLink Guardrails 0.1.0+4f2a9c8 (go1.22, linux/amd64, built 2026-10-17)", info.String())
}
