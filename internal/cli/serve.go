package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mftypes/pkg/server"
)

// serveCommand serves the published tree for local consumers.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve root_dir over HTTP for consumers during development",
		Long: `Serve exposes root_dir (manifest and declarations) and the archive from
public_dir over HTTP with permissive CORS, so a consumer can point a remote at this machine:

  [remotes]
  shop = "shop@http://localhost:3030/remoteEntry.js"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			var opts []server.Option
			if filepath.Clean(cfg.PublicDir) != filepath.Clean(cfg.RootDir) {
				opts = append(opts, server.WithFile(cfg.ArchiveFile, cfg.ArchivePath()))
			}
			srv := server.New(cfg.RootDir, addr, loggerFromContext(cmd.Context()), opts...)
			printInfo("Serving %s on %s", StyleHighlight.Render(cfg.RootDir), StyleLink.Render(srv.Addr()))
			printNextStep("Stop with", "ctrl+c")
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", server.DefaultAddr, "listen address")
	return cmd
}
