package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set through ldflags by the release build; empty in dev builds, where
// the module build info fills the gaps.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildSetting returns the named key from the embedded VCS build info,
// or "" when the binary carries none.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

func getCommit() string {
	if commit != "" {
		return commit
	}
	if rev := buildSetting("vcs.revision"); rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		return rev
	}
	return "unknown"
}

func getDate() string {
	if date != "" {
		return date
	}
	if t := buildSetting("vcs.time"); t != "" {
		return t
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of tuecrawl.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tuecrawl version %s\n  commit: %s\n  built:  %s\n",
				getVersion(), getCommit(), getDate())
		},
	}
}
