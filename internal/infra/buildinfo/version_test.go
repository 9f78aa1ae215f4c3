package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s field should not be empty", tt.name)
			}
		})
	}
}

func TestString(t *testing.T) {
	info := Get()
	s := String()

	want := info.Version + " (" + info.Commit + ") built at " + info.BuildTime + " with " + info.GoVersion
	if s != want {
		t.Errorf("String() = %q, want %q", s, want)
	}
}

func TestResolve(t *testing.T) {
	embedded := &debug.BuildInfo{
		GoVersion: "go1.24.4",
		Main:      debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}
	read := func() (*debug.BuildInfo, bool) { return embedded, true }

	tests := []struct {
		name                     string
		version, commit, builtAt string
		read                     func() (*debug.BuildInfo, bool)
		want                     Info
	}{
		{
			name:    "defaults filled from build info",
			version: "dev", commit: "unknown", builtAt: "unknown",
			read:    read,
			want:    Info{Version: "v1.2.3", Commit: "0123456789ab", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.24.4"},
		},
		{
			name:    "ldflags win",
			version: "v9.9.9", commit: "abc", builtAt: "today",
			read:    read,
			want:    Info{Version: "v9.9.9", Commit: "abc", BuildTime: "today", GoVersion: "go1.24.4"},
		},
		{
			name:    "no build info",
			version: "dev", commit: "unknown", builtAt: "unknown",
			read:    func() (*debug.BuildInfo, bool) { return nil, false },
			want:    Info{Version: "dev", Commit: "unknown", BuildTime: "unknown", GoVersion: runtime.Version()},
		},
		{
			name:    "devel main version ignored",
			version: "dev", commit: "unknown", builtAt: "unknown",
			read: func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
			},
			want: Info{Version: "dev", Commit: "unknown", BuildTime: "unknown", GoVersion: runtime.Version()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.version, tt.commit, tt.builtAt, tt.read)
			if got != tt.want {
				t.Errorf("resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestString_ContainsGoVersion(t *testing.T) {
	if !strings.Contains(String(), "go") {
		t.Errorf("String() = %q, should mention the Go version", String())
	}
}
