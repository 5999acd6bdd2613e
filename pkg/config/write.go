package config

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// document is the TOML layout of a config file.
type document struct {
	AppName     string            `toml:"app_name,omitempty"`
	RootDir     string            `toml:"root_dir,omitempty"`
	PublicDir   string            `toml:"public_dir,omitempty"`
	TypesDir    string            `toml:"types_dir"`
	TypesFile   string            `toml:"types_file"`
	InstallDir  string            `toml:"install_dir"`
	ArchiveFile string            `toml:"archive_file"`
	Transport   string            `toml:"transport"`
	Installer   string            `toml:"installer"`
	InsecureTLS bool              `toml:"insecure_tls"`
	Concurrency int               `toml:"concurrency"`
	Timeout     string            `toml:"timeout,omitempty"`
	Retries     int               `toml:"retries"`
	Prune       bool              `toml:"prune"`
	Strict      bool              `toml:"strict"`
	Federation  string            `toml:"federation,omitempty"`
	Exposes     map[string]string `toml:"exposes"`
	Remotes     map[string]string `toml:"remotes"`
	Compiler    compilerDoc       `toml:"compiler"`
	State       stateDoc          `toml:"state"`
	Publish     *publishDoc       `toml:"publish,omitempty"`
}

type compilerDoc struct {
	Command []string `toml:"command"`
	Args    []string `toml:"args,omitempty"`
}

type stateDoc struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir,omitempty"`
	RedisURL string `toml:"redis_url,omitempty"`
}

type publishDoc struct {
	S3 s3Doc `toml:"s3"`
}

type s3Doc struct {
	Endpoint string `toml:"endpoint"`
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix,omitempty"`
	Region   string `toml:"region,omitempty"`
	UseSSL   bool   `toml:"use_ssl"`
}

// Encode renders c as TOML. Credentials are never written.
func (c *Config) Encode() ([]byte, error) {
	doc := document{
		AppName:     c.AppName,
		RootDir:     c.RootDir,
		PublicDir:   c.PublicDir,
		TypesDir:    c.TypesDir,
		TypesFile:   c.TypesFile,
		InstallDir:  c.InstallDir,
		ArchiveFile: c.ArchiveFile,
		Transport:   c.Transport,
		Installer:   c.Installer,
		InsecureTLS: c.InsecureTLS,
		Concurrency: c.Concurrency,
		Retries:     c.Retries,
		Prune:       c.Prune,
		Strict:      c.Strict,
		Federation:  c.Federation,
		Exposes:     nonNil(c.Exposes),
		Remotes:     nonNil(c.Remotes),
		Compiler:    compilerDoc{Command: c.Compiler.Command, Args: c.Compiler.Args},
		State:       stateDoc{Backend: c.State.Backend, Dir: c.State.Dir, RedisURL: c.State.RedisURL},
	}
	if c.Timeout > 0 {
		doc.Timeout = c.Timeout.String()
	}
	if s3 := c.Publish.S3; s3.Bucket != "" || s3.Endpoint != "" {
		doc.Publish = &publishDoc{S3: s3Doc{
			Endpoint: s3.Endpoint, Bucket: s3.Bucket, Prefix: s3.Prefix, Region: s3.Region, UseSSL: s3.UseSSL,
		}}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSerialization, err, "encode configuration")
	}
	return buf.Bytes(), nil
}

// WriteFile writes c to path. An existing file is only replaced when
// overwrite is set.
func (c *Config) WriteFile(path string, overwrite bool) error {
	if !overwrite && fileExists(path) {
		return errors.New(errors.ErrCodeInvalidConfig, "%s already exists", path)
	}
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "write %s", path)
	}
	return nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
