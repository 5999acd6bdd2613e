package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/matzehuels/mftypes/pkg/archive"
	"github.com/matzehuels/mftypes/pkg/cache"
	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/manifest"
	"github.com/matzehuels/mftypes/pkg/specifier"
	"github.com/matzehuels/mftypes/pkg/typesync"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = "mftypes.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MFTYPES"
)

// Config holds every mftypes setting.
type Config struct {
	AppName string            `mapstructure:"app_name"`
	Exposes map[string]string `mapstructure:"-"` // exposed module name → entry source path
	Remotes map[string]string `mapstructure:"-"` // remote name → "<name>@<entry url>"

	RootDir     string `mapstructure:"root_dir"`
	PublicDir   string `mapstructure:"public_dir"`
	TypesDir    string `mapstructure:"types_dir"`
	TypesFile   string `mapstructure:"types_file"`
	InstallDir  string `mapstructure:"install_dir"`
	ArchiveFile string `mapstructure:"archive_file"`

	Transport   string        `mapstructure:"transport"`
	Installer   string        `mapstructure:"installer"`
	InsecureTLS bool          `mapstructure:"insecure_tls"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	Prune       bool          `mapstructure:"prune"`
	Strict      bool          `mapstructure:"strict"`

	Compiler CompilerConfig `mapstructure:"compiler"`
	State    StateConfig    `mapstructure:"state"`
	Publish  PublishConfig  `mapstructure:"publish"`

	// Federation is the path of a JSON federation config used as a
	// fallback for app_name, exposes and remotes.
	Federation string `mapstructure:"federation"`
}

// CompilerConfig selects the declaration compiler.
type CompilerConfig struct {
	Command []string `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// StateConfig selects the install state backend.
type StateConfig struct {
	Backend  string `mapstructure:"backend"` // file, redis or none
	Dir      string `mapstructure:"dir"`
	RedisURL string `mapstructure:"redis_url"`
}

// PublishConfig configures uploads to object storage.
type PublishConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// DefaultRootDir returns "build" when NODE_ENV is "production" and
// "public" otherwise.
func DefaultRootDir() string {
	if os.Getenv("NODE_ENV") == "production" {
		return "build"
	}
	return "public"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RootDir:     DefaultRootDir(),
		TypesDir:    "@types",
		TypesFile:   manifest.DefaultFile,
		InstallDir:  "node_modules",
		ArchiveFile: archive.DefaultFile,
		Transport:   typesync.TransportManifest,
		Installer:   typesync.InstallerDownload,
		Concurrency: typesync.DefaultConcurrency,
		Compiler:    CompilerConfig{Command: []string{"tsc"}},
		State:       StateConfig{Backend: cache.BackendFile},
		Publish:     PublishConfig{S3: S3Config{UseSSL: true}},
	}
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file. It must exist.
	File string

	// Dir is the project directory searched for FileName and .env.
	// Defaults to the working directory.
	Dir string

	// SkipDotEnv disables loading Dir/.env.
	SkipDotEnv bool
}

// Load resolves the configuration and returns it with the path of the
// config file used ("" when none was found).
func Load(opts LoadOptions) (*Config, string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if !opts.SkipDotEnv {
		envFile := filepath.Join(dir, ".env")
		if fileExists(envFile) {
			if err := godotenv.Load(envFile); err != nil {
				return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", envFile)
			}
		}
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.File
	if path == "" {
		if candidate := filepath.Join(dir, FileName); fileExists(candidate) {
			path = candidate
		}
	} else if !fileExists(path) {
		return nil, "", errors.New(errors.ErrCodeConfigMissing, "config file not found: %s", path)
	}

	var tables namedTables
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		var err error
		if tables, err = readNamedTables(path); err != nil {
			return nil, "", err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse configuration")
	}
	cfg.Exposes = tables.Exposes
	cfg.Remotes = tables.Remotes
	if cfg.PublicDir == "" {
		cfg.PublicDir = cfg.RootDir
	}

	if cfg.Federation != "" {
		fed := cfg.Federation
		if !filepath.IsAbs(fed) {
			fed = filepath.Join(dir, fed)
		}
		fc, err := ReadFederation(fed)
		if err != nil {
			return nil, path, err
		}
		cfg.ApplyFederation(fc)
	}
	return cfg, path, nil
}

// namedTables holds the tables whose keys are user-chosen names. They are
// decoded with toml directly because viper lowercases every key.
type namedTables struct {
	Exposes map[string]string `toml:"exposes"`
	Remotes map[string]string `toml:"remotes"`
}

func readNamedTables(path string) (namedTables, error) {
	var t namedTables
	data, err := os.ReadFile(path)
	if err != nil {
		return t, errors.Wrap(errors.ErrCodeFileSystem, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, &t); err != nil {
		return t, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return t, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("app_name", d.AppName)
	v.SetDefault("root_dir", d.RootDir)
	v.SetDefault("public_dir", d.PublicDir)
	v.SetDefault("types_dir", d.TypesDir)
	v.SetDefault("types_file", d.TypesFile)
	v.SetDefault("install_dir", d.InstallDir)
	v.SetDefault("archive_file", d.ArchiveFile)
	v.SetDefault("transport", d.Transport)
	v.SetDefault("installer", d.Installer)
	v.SetDefault("insecure_tls", d.InsecureTLS)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("retries", d.Retries)
	v.SetDefault("prune", d.Prune)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("federation", d.Federation)
	v.SetDefault("compiler.command", d.Compiler.Command)
	v.SetDefault("compiler.args", d.Compiler.Args)
	v.SetDefault("state.backend", d.State.Backend)
	v.SetDefault("state.dir", d.State.Dir)
	v.SetDefault("state.redis_url", d.State.RedisURL)
	v.SetDefault("publish.s3.endpoint", d.Publish.S3.Endpoint)
	v.SetDefault("publish.s3.bucket", d.Publish.S3.Bucket)
	v.SetDefault("publish.s3.prefix", d.Publish.S3.Prefix)
	v.SetDefault("publish.s3.region", d.Publish.S3.Region)
	v.SetDefault("publish.s3.access_key", d.Publish.S3.AccessKey)
	v.SetDefault("publish.s3.secret_key", d.Publish.S3.SecretKey)
	v.SetDefault("publish.s3.use_ssl", d.Publish.S3.UseSSL)
}

// OutDir returns <RootDir>/<TypesDir>/<AppName>.
func (c *Config) OutDir() string {
	return filepath.Join(c.RootDir, c.TypesDir, c.AppName)
}

// ManifestPath returns <RootDir>/<TypesFile>.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.RootDir, c.TypesFile)
}

// ArchivePath returns <PublicDir>/<ArchiveFile>.
func (c *Config) ArchivePath() string {
	public := c.PublicDir
	if public == "" {
		public = c.RootDir
	}
	return filepath.Join(public, c.ArchiveFile)
}

// IsProducer reports whether any component is exposed.
func (c *Config) IsProducer() bool { return len(c.Exposes) > 0 }

// IsConsumer reports whether any remote is configured.
func (c *Config) IsConsumer() bool { return len(c.Remotes) > 0 }

// Validate checks the configuration for the roles it enables.
func (c *Config) Validate() error {
	if c.IsProducer() {
		if c.AppName == "" {
			return errors.New(errors.ErrCodeConfigMissing, "app_name is required when exposes is set")
		}
		if err := errors.ValidateAppName(c.AppName); err != nil {
			return err
		}
	}
	for name, spec := range c.Remotes {
		if _, err := specifier.Parse(spec); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSpecifier, err, "remote %q", name)
		}
	}
	for key, val := range map[string]string{
		"types_dir":    c.TypesDir,
		"types_file":   c.TypesFile,
		"archive_file": c.ArchiveFile,
	} {
		if err := errors.ValidateRelativePath(val); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", key)
		}
	}
	if c.RootDir == "" || c.InstallDir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "root_dir and install_dir must not be empty")
	}
	if err := oneOf("transport", c.Transport, typesync.TransportManifest, typesync.TransportArchive); err != nil {
		return err
	}
	if err := oneOf("installer", c.Installer, typesync.InstallerDownload, typesync.InstallerDirect); err != nil {
		return err
	}
	if err := oneOf("state.backend", c.State.Backend, cache.BackendFile, cache.BackendRedis, cache.BackendNone); err != nil {
		return err
	}
	if c.State.Backend == cache.BackendRedis && c.State.RedisURL == "" {
		return errors.New(errors.ErrCodeConfigMissing, "state.redis_url is required for the redis backend")
	}
	if c.Concurrency < 0 || c.Retries < 0 || c.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "numeric settings must not be negative")
	}
	return nil
}

func oneOf(key, val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidConfig, "%s must be one of %s, got %q",
		key, strings.Join(allowed, ", "), val)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
