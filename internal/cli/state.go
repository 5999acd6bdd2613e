package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mftypes/pkg/cache"
	"github.com/matzehuels/mftypes/pkg/config"
	"github.com/matzehuels/mftypes/pkg/typesync"
)

// stateCommand creates the install state management command.
func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset what sync recorded for install_dir",
	}

	cmd.AddCommand(c.stateShowCommand())
	cmd.AddCommand(c.stateClearCommand())
	cmd.AddCommand(c.statePathCommand())

	return cmd
}

// openState opens the configured state backend.
func (c *CLI) openState(ctx context.Context) (*config.Config, *typesync.State, func() error, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := cache.Open(ctx, cfg.State.Backend, cfg.State.Dir, cfg.State.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, typesync.NewState(store, nil), store.Close, nil
}

// stateShowCommand prints the recorded remotes.
func (c *CLI) stateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the remotes and files recorded for install_dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, state, closeFn, err := c.openState(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			st, err := state.Load(cmd.Context(), cfg.InstallDir)
			if err != nil {
				printWarning("State unreadable: %v", err)
			}
			if len(st.Remotes) == 0 {
				printInfo("Nothing recorded for %s", StyleHighlight.Render(cfg.InstallDir))
				return nil
			}

			printKeyValue("install dir", st.InstallDir)
			printKeyValue("updated", st.UpdatedAt.Local().Format(time.DateTime))
			for _, name := range slices.Sorted(maps.Keys(st.Remotes)) {
				rs := st.Remotes[name]
				printNewline()
				printKeyValue("remote", StyleTitle.Render(name))
				printKeyValue("base url", rs.BaseURL)
				printKeyValue("files", fmt.Sprint(len(rs.Files)))
				printKeyValue("synced", rs.SyncedAt.Local().Format(time.DateTime))
				for _, f := range rs.Files {
					printFile(f)
				}
			}
			return nil
		},
	}
}

// stateClearCommand forgets the recorded state. Installed files stay.
func (c *CLI) stateClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the recorded state for install_dir (installed files are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, state, closeFn, err := c.openState(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := state.Clear(cmd.Context(), cfg.InstallDir); err != nil {
				return err
			}
			printSuccess("Cleared install state for %s", StyleHighlight.Render(cfg.InstallDir))
			return nil
		},
	}
}

// statePathCommand prints where the file backend keeps state.
func (c *CLI) statePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the state directory of the file backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.State.Backend != cache.BackendFile {
				printInfo("State backend is %s", StyleHighlight.Render(cfg.State.Backend))
				return nil
			}
			dir := cfg.State.Dir
			if dir == "" {
				if dir, err = cache.DefaultDir(); err != nil {
					return err
				}
			}
			fmt.Println(dir)
			return nil
		},
	}
}
