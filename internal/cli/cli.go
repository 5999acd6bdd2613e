// Package cli implements the mftypes command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mftypes/pkg/buildinfo"
	"github.com/matzehuels/mftypes/pkg/config"
	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/observability"
	"github.com/matzehuels/mftypes/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "mftypes"

	// logLevelEnv selects the log level when --verbose is not given.
	logLevelEnv = "MFTYPES_LOG_LEVEL"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	chdir      string
	strict     bool
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mftypes shares TypeScript declarations between federated applications",
		Long: `mftypes generates TypeScript declarations for the components an application
exposes through module federation, publishes them next to the build output,
and installs the declarations of every configured remote.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			} else {
				c.SetLogLevel(levelFromEnv())
			}
			if c.Logger.GetLevel() == LogDebug {
				observability.Register(observability.NewLogHooks(c.Logger))
			}
			if c.chdir != "" {
				if err := os.Chdir(c.chdir); err != nil {
					return errors.Wrap(errors.ErrCodeFileSystem, err, "change directory to %s", c.chdir)
				}
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&c.configFile, "config", "c", "", "config file (default ./"+config.FileName+")")
	flags.StringVarP(&c.chdir, "chdir", "C", "", "run as if started in this directory")
	flags.BoolVar(&c.strict, "strict", false, "exit non-zero when any declaration fails")

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.emitCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.packCommand())
	root.AddCommand(c.unpackCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.publishCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig resolves and validates the configuration. A project .env may
// set the log level, so the level is re-read after loading.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, path, err := config.Load(config.LoadOptions{File: c.configFile})
	if err != nil {
		return nil, err
	}
	if !c.verbose {
		c.SetLogLevel(levelFromEnv())
	}
	if path != "" {
		c.Logger.Debug("loaded config", "file", path)
	} else {
		c.Logger.Debug("no config file, using defaults")
	}
	if c.strict {
		cfg.Strict = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	return pipeline.NewRunner(ctx, cfg, c.Logger)
}

// finish prints the run summary and, in strict mode, turns failures into a
// non-zero exit.
func (c *CLI) finish(res *pipeline.Result, strict bool) error {
	printResult(res)
	if !strict || res.OK() {
		return nil
	}
	failures := res.Failures()
	code := errors.GetCode(failures[0])
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return errors.Wrap(code, stderrors.Join(failures...), "strict mode: %d failure(s)", len(failures))
}
