package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mftypes/pkg/publish"
	"github.com/matzehuels/mftypes/pkg/typesync"
)

// publishCommand uploads the published tree to object storage.
func (c *CLI) publishCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the manifest and declarations to an S3-compatible bucket",
		Long: `Publish uploads every file listed in the manifest, the archive when the
archive transport is used, and finally the manifest itself to the bucket in
[publish.s3]. Credentials may come from MFTYPES_PUBLISH_S3_ACCESS_KEY and
MFTYPES_PUBLISH_S3_SECRET_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			s3 := cfg.Publish.S3
			if !cmd.Flags().Changed("prefix") {
				prefix = s3.Prefix
			}
			store, err := publish.NewS3Store(publish.S3Config{
				Endpoint:  s3.Endpoint,
				Region:    s3.Region,
				AccessKey: s3.AccessKey,
				SecretKey: s3.SecretKey,
				Bucket:    s3.Bucket,
				UseSSL:    s3.UseSSL,
			})
			if err != nil {
				return err
			}

			opts := publish.Options{
				RootDir:   cfg.RootDir,
				TypesFile: cfg.TypesFile,
				Prefix:    prefix,
			}
			if cfg.Transport == typesync.TransportArchive {
				opts.ArchivePath = cfg.ArchivePath()
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Uploading to "+s3.Bucket+"...")
			spinner.Start()
			publisher := publish.NewPublisher(store, loggerFromContext(cmd.Context()))
			publisher.OnUpload = func(key string, done, total int) {
				spinner.SetMessage(fmt.Sprintf("Uploaded %d/%d: %s", done, total, key))
			}
			res, err := publisher.Publish(cmd.Context(), opts)
			if err != nil {
				spinner.StopWithError("Upload failed")
				return err
			}
			spinner.StopWithSuccess("Uploaded " + StyleNumber.Render(plural(len(res.Keys), "object")))
			for _, k := range res.Keys {
				printDetail("s3://%s/%s", s3.Bucket, k)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix (default publish.s3.prefix)")
	return cmd
}
