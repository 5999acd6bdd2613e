package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mftypes/pkg/config"
	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/pipeline"
)

// buildCommand runs both roles of the configuration.
func (c *CLI) buildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Emit exposed declarations and install remote declarations",
		Long: `Build runs every role the configuration enables.

When exposes is set, declarations are generated into <root_dir>/<types_dir>/<app_name>,
merged into index.d.ts and listed in the manifest. When remotes is set, each
remote's declarations are installed into install_dir. A failure in one role
never stops the other.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(r *pipeline.Runner, cfg *config.Config) (*pipeline.Result, error) {
				return r.Execute(cmd.Context(), cfg)
			})
		},
	}
}

// emitCommand runs only the producer role.
func (c *CLI) emitCommand() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Generate declarations for exposed components and write the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(r *pipeline.Runner, cfg *config.Config) (*pipeline.Result, error) {
				if transport != "" {
					cfg.Transport = transport
				}
				return r.Emit(cmd.Context(), cfg)
			})
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "", "override transport (manifest or archive)")
	return cmd
}

// syncCommand runs only the consumer role.
func (c *CLI) syncCommand() *cobra.Command {
	var (
		prune   bool
		pick    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sync [remote...]",
		Short: "Install declarations published by remotes",
		Long: `Sync fetches each remote's manifest (or archive) and installs the listed
declaration files below install_dir. Name remotes to sync a subset, or pass
--select to choose them interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(r *pipeline.Runner, cfg *config.Config) (*pipeline.Result, error) {
				if cmd.Flags().Changed("prune") {
					cfg.Prune = prune
				}
				if timeout > 0 {
					cfg.Timeout = timeout
				}
				remotes, err := selectRemotes(cfg.Remotes, args, pick)
				if err != nil {
					return nil, err
				}
				cfg.Remotes = remotes
				return r.Sync(cmd.Context(), cfg)
			})
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "remove files a remote no longer publishes")
	cmd.Flags().BoolVar(&pick, "select", false, "choose remotes interactively")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall sync timeout (e.g. 30s)")
	return cmd
}

// run loads config, builds a runner and executes stage with it.
func (c *CLI) run(cmd *cobra.Command, stage func(*pipeline.Runner, *config.Config) (*pipeline.Result, error)) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(cmd.Context()))
	res, err := stage(runner, cfg)
	if err != nil {
		return err
	}
	prog.done(cmd.Name() + " finished")
	return c.finish(res, cfg.Strict)
}

// selectRemotes narrows remotes to names, or to an interactive choice.
func selectRemotes(remotes map[string]string, names []string, pick bool) (map[string]string, error) {
	if pick {
		chosen, err := pickRemotes(remotes)
		if err != nil {
			return nil, err
		}
		names = chosen
	}
	if len(names) == 0 {
		return remotes, nil
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		spec, ok := remotes[n]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "remote %q is not configured", n)
		}
		out[n] = spec
	}
	return out, nil
}
