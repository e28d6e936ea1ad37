package cli

import (
	"io"

	"github.com/spf13/cobra"

	"stockportal/internal/config"
	"stockportal/pkg/logging"
)

// CommandFlags holds the flag values shared by every stockportal command.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, wide, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// LogLevel names the minimum log level; it overrides Debug and Quiet
	LogLevel string
	// ConfigPath specifies a custom configuration directory path
	ConfigPath string
}

// RegisterCommonFlags registers the shared flags as persistent flags on cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, wide, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --log-level: Minimum log level (debug, info, warn, error)
//   - --config-path: Configuration directory
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, wide, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Minimum log level (debug, info, warn, error); overrides --debug and --quiet")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
}

// ToOutput validates the output flags and builds an Output writing to w
// and errW.
func (f *CommandFlags) ToOutput(w, errW io.Writer) (*Output, error) {
	if err := ValidateOutputFormat(f.OutputFormat); err != nil {
		return nil, err
	}
	return &Output{
		Format:    OutputFormat(f.OutputFormat),
		NoHeaders: f.NoHeaders,
		Quiet:     f.Quiet,
		Writer:    w,
		ErrWriter: errW,
	}, nil
}

// ResolveLogLevel picks the log level: --log-level if given, then --debug,
// then --quiet, otherwise def.
func (f *CommandFlags) ResolveLogLevel(def logging.LogLevel) (logging.LogLevel, error) {
	switch {
	case f.LogLevel != "":
		return logging.ParseLevel(f.LogLevel)
	case f.Debug:
		return logging.LevelDebug, nil
	case f.Quiet:
		return logging.LevelError, nil
	default:
		return def, nil
	}
}
