package version

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/crmarques/mgmtbridge/internal/cli/common"
)

// Set through -ldflags at release time.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

type info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	GoVersion string `json:"go_version,omitempty" yaml:"go_version,omitempty"`
}

func NewCommand(globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			build, _ := debug.ReadBuildInfo()
			return common.WriteOutput(cmd, globalFlags, current(build), writeInfo)
		},
	}
}

// current fills commit and date from the embedded VCS stamp when the
// binary was built without ldflags.
func current(build *debug.BuildInfo) info {
	value := info{Version: Version, Commit: Commit, BuildDate: BuildDate}
	if build == nil {
		return withUnknowns(value)
	}
	value.GoVersion = build.GoVersion
	if value.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		value.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if value.Commit == "" {
				value.Commit = setting.Value
			}
		case "vcs.time":
			if value.BuildDate == "" {
				value.BuildDate = setting.Value
			}
		case "vcs.modified":
			value.Modified = setting.Value == "true"
		}
	}
	return withUnknowns(value)
}

func withUnknowns(value info) info {
	if value.Commit == "" {
		value.Commit = "unknown"
	}
	if value.BuildDate == "" {
		value.BuildDate = "unknown"
	}
	return value
}

func writeInfo(w io.Writer, item info) error {
	commit := item.Commit
	if item.Modified {
		commit += "+dirty"
	}
	_, err := fmt.Fprintf(w, "%s (%s) %s\n", item.Version, commit, item.BuildDate)
	return err
}
