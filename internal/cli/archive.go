package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mftypes/pkg/archive"
)

// packCommand bundles the declaration tree into an archive.
func (c *CLI) packCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Bundle <root_dir>/<types_dir> into a tar archive",
		Long: `Pack writes every file below <root_dir>/<types_dir> into a tar archive whose
entry names are relative to root_dir. Consumers using the archive transport
download and unpack it into their install_dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.ArchivePath()
			}
			entries, err := archive.Pack(cfg.RootDir, cfg.TypesDir, out)
			if err != nil {
				return err
			}
			printSuccess("Packed %s file(s)", StyleNumber.Render(fmt.Sprint(len(entries))))
			printFile(out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "archive path (default <public_dir>/<archive_file>)")
	return cmd
}

// unpackCommand extracts an archive into the install directory.
func (c *CLI) unpackCommand() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "unpack <archive>",
		Short: "Extract a declaration archive into install_dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dest == "" {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				dest = cfg.InstallDir
			}
			entries, err := archive.UnpackFile(args[0], dest)
			if err != nil {
				return err
			}
			printSuccess("Unpacked %s file(s) into %s", StyleNumber.Render(fmt.Sprint(len(entries))), StyleHighlight.Render(dest))
			for _, e := range entries {
				printDetail("%s", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "destination directory (default install_dir)")
	return cmd
}
