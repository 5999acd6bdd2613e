// Package publish uploads a producer's published tree to object storage so
// consumers can sync from a CDN instead of the producer's build host.
//
// Uploaded keys mirror the root-relative layout of the manifest, below an
// optional prefix:
//
//	<prefix>/@types.json
//	<prefix>/@types/shop/index.d.ts
//	<prefix>/types.tar
package publish

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/manifest"
)

// Store writes objects.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Options selects what to upload.
type Options struct {
	RootDir     string // directory the manifest entries are relative to
	TypesFile   string // manifest name below RootDir
	ArchivePath string // optional archive file; skipped when it does not exist
	Prefix      string // key prefix, e.g. "shop/v2"
}

// Result lists the uploaded keys.
type Result struct {
	Keys []string
}

// Publisher uploads published files to a Store.
type Publisher struct {
	Store  Store
	Logger *log.Logger

	// OnUpload, if set, is called after each successful upload with the
	// number of objects uploaded so far and the total.
	OnUpload func(key string, done, total int)
}

// NewPublisher creates a Publisher. If logger is nil, log.Default() is used.
func NewPublisher(store Store, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{Store: store, Logger: logger}
}

// Publish uploads every manifest entry, then the manifest itself, then the
// archive if present. The manifest goes last so a consumer never sees
// entries that are not uploaded yet.
func (p *Publisher) Publish(ctx context.Context, opts Options) (*Result, error) {
	typesFile := opts.TypesFile
	if typesFile == "" {
		typesFile = manifest.DefaultFile
	}
	manifestPath := filepath.Join(opts.RootDir, typesFile)
	m, err := manifest.Read(manifestPath)
	if err != nil {
		return nil, err
	}

	type object struct{ file, key string }
	objects := make([]object, 0, len(m)+2)
	for _, entry := range m {
		objects = append(objects, object{filepath.Join(opts.RootDir, filepath.FromSlash(entry)), Key(opts.Prefix, entry)})
	}
	if opts.ArchivePath != "" {
		if _, err := os.Stat(opts.ArchivePath); err == nil {
			objects = append(objects, object{opts.ArchivePath, Key(opts.Prefix, filepath.Base(opts.ArchivePath))})
		}
	}
	objects = append(objects, object{manifestPath, Key(opts.Prefix, typesFile)})

	res := &Result{}
	for _, o := range objects {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := p.upload(ctx, o.file, o.key); err != nil {
			return res, err
		}
		res.Keys = append(res.Keys, o.key)
		if p.OnUpload != nil {
			p.OnUpload(o.key, len(res.Keys), len(objects))
		}
	}
	return res, nil
}

func (p *Publisher) upload(ctx context.Context, file, key string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "read %s", file)
	}
	if err := p.Store.Put(ctx, key, data, ContentType(file)); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "upload %s", key)
	}
	p.Logger.Debug("uploaded", "key", key, "bytes", len(data))
	return nil
}

// Key joins prefix and a root-relative entry into an object key.
func Key(prefix, entry string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	entry = strings.TrimLeft(filepath.ToSlash(entry), "/")
	if prefix == "" {
		return entry
	}
	return path.Join(prefix, entry)
}

// ContentType returns the MIME type for a published file.
func ContentType(file string) string {
	switch {
	case strings.HasSuffix(file, ".d.ts"):
		return "application/typescript"
	case strings.HasSuffix(file, ".json"):
		return "application/json"
	case strings.HasSuffix(file, ".tar"):
		return "application/x-tar"
	}
	if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
		return t
	}
	return "application/octet-stream"
}
