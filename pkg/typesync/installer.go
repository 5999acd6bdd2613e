package typesync

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/httputil"
)

// Fetcher returns the body of a GET request.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Downloader saves the resource at url into dir, inferring the file name
// from the URL, and returns the written path.
type Downloader interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// Installer writes one manifest entry fetched from url below installDir
// and returns the local path.
type Installer interface {
	Install(ctx context.Context, url, installDir, entry string) (string, error)
}

// Installer kinds accepted by configuration.
const (
	InstallerDownload = "download"
	InstallerDirect   = "direct"
)

// DownloadInstaller delegates to a Downloader targeting the entry's
// directory, <installDir>/<dirname(entry)>. The file name comes from the
// URL, which ends in the entry's own file name, so the file lands at
// <installDir>/<entry>.
type DownloadInstaller struct {
	Downloader Downloader
}

// Install downloads url into the entry's directory.
func (d *DownloadInstaller) Install(ctx context.Context, url, installDir, entry string) (string, error) {
	dir := filepath.Join(installDir, filepath.FromSlash(path.Dir(entry)))
	written, err := d.Downloader.Download(ctx, url, dir)
	if err != nil {
		return "", err
	}
	if want := filepath.Join(installDir, filepath.FromSlash(entry)); filepath.Clean(written) != want {
		return written, errors.New(errors.ErrCodeInvalidPath, "downloaded %s to %s, expected %s", url, written, want)
	}
	return written, nil
}

// DirectInstaller fetches the body itself and writes it to
// <installDir>/<entry>, creating intermediate directories. The file is
// replaced atomically; of two installs of one entry the last rename wins.
type DirectInstaller struct {
	Fetcher Fetcher
}

// Install fetches url and writes the body to the entry's full path.
func (d *DirectInstaller) Install(ctx context.Context, url, installDir, entry string) (string, error) {
	data, err := d.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	target := filepath.Join(installDir, filepath.FromSlash(entry))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", filepath.Dir(target))
	}
	if err := httputil.WriteFileAtomic(target, data); err != nil {
		return "", err
	}
	return target, nil
}

var (
	_ Installer = (*DownloadInstaller)(nil)
	_ Installer = (*DirectInstaller)(nil)
)
