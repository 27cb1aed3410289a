// Package config provides application configuration for the artvec pipelines.
package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultLogLevel       = "INFO"
	DefaultArtworkTable   = "artworks"
	DefaultBatchSize      = 10
	DefaultSelectLimit    = 1000
	DefaultFetchTimeout   = 10 * time.Second
	DefaultBatchPause     = 500 * time.Millisecond
	DefaultWorkers        = 1
	DefaultEncoderDevice  = "cpu"
	DefaultEncoderTimeout = 60 * time.Second
	DefaultPageSize       = 8192
	DefaultComponents     = 4
	DefaultBasisOutput    = "pca_basis.json"
)

// Configuration errors.
var (
	// ErrMissingDBURL indicates no storage connection URL was configured.
	ErrMissingDBURL = errors.New("DB_URL is required: set it in the environment or a .env file")

	// ErrEncoderNotConfigured indicates neither a local model nor a remote
	// endpoint was configured for the embedding pipeline.
	ErrEncoderNotConfigured = errors.New("encoder not configured: set ENCODER_MODEL_PATH or ENCODER_REMOTE_URL")
)

// EmbedConfig configures the embedding pipeline.
type EmbedConfig struct {
	batchSize    int
	selectLimit  int
	fetchTimeout time.Duration
	batchPause   time.Duration
	workers      int
}

// NewEmbedConfig creates an EmbedConfig with defaults.
func NewEmbedConfig() EmbedConfig {
	return EmbedConfig{
		batchSize:    DefaultBatchSize,
		selectLimit:  DefaultSelectLimit,
		fetchTimeout: DefaultFetchTimeout,
		batchPause:   DefaultBatchPause,
		workers:      DefaultWorkers,
	}
}

// BatchSize returns the number of records per commit batch.
func (e EmbedConfig) BatchSize() int { return e.batchSize }

// SelectLimit returns the maximum records selected per invocation.
func (e EmbedConfig) SelectLimit() int { return e.selectLimit }

// FetchTimeout returns the image download timeout.
func (e EmbedConfig) FetchTimeout() time.Duration { return e.fetchTimeout }

// BatchPause returns the pause between batches.
func (e EmbedConfig) BatchPause() time.Duration { return e.batchPause }

// Workers returns the bounded fan-out within a batch (1 = sequential).
func (e EmbedConfig) Workers() int { return e.workers }

// WithBatchSize returns a copy with the batch size set.
func (e EmbedConfig) WithBatchSize(n int) EmbedConfig {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

// WithSelectLimit returns a copy with the select limit set.
func (e EmbedConfig) WithSelectLimit(n int) EmbedConfig {
	if n > 0 {
		e.selectLimit = n
	}
	return e
}

// WithFetchTimeout returns a copy with the fetch timeout set.
func (e EmbedConfig) WithFetchTimeout(d time.Duration) EmbedConfig {
	if d > 0 {
		e.fetchTimeout = d
	}
	return e
}

// WithBatchPause returns a copy with the inter-batch pause set.
func (e EmbedConfig) WithBatchPause(d time.Duration) EmbedConfig {
	if d >= 0 {
		e.batchPause = d
	}
	return e
}

// WithWorkers returns a copy with the fan-out limit set.
func (e EmbedConfig) WithWorkers(n int) EmbedConfig {
	if n > 0 {
		e.workers = n
	}
	return e
}

// EncoderConfig configures the pretrained image encoder.
type EncoderConfig struct {
	modelPath string
	device    string
	remoteURL string
	timeout   time.Duration
}

// NewEncoderConfig creates an EncoderConfig with defaults.
func NewEncoderConfig() EncoderConfig {
	return EncoderConfig{
		device:  DefaultEncoderDevice,
		timeout: DefaultEncoderTimeout,
	}
}

// ModelPath returns the local ONNX model file path.
func (e EncoderConfig) ModelPath() string { return e.modelPath }

// Device returns the compute device (cpu, cuda, coreml).
func (e EncoderConfig) Device() string { return e.device }

// RemoteURL returns the remote encoder endpoint, if any.
func (e EncoderConfig) RemoteURL() string { return e.remoteURL }

// Timeout returns the remote encoder request timeout.
func (e EncoderConfig) Timeout() time.Duration { return e.timeout }

// IsRemote reports whether a remote endpoint is configured. The remote
// endpoint takes precedence over a local model when both are set.
func (e EncoderConfig) IsRemote() bool { return e.remoteURL != "" }

// Validate checks that some encoder is configured.
func (e EncoderConfig) Validate() error {
	if e.modelPath == "" && e.remoteURL == "" {
		return ErrEncoderNotConfigured
	}
	return nil
}

// WithModelPath returns a copy with the model path set.
func (e EncoderConfig) WithModelPath(path string) EncoderConfig {
	e.modelPath = path
	return e
}

// WithDevice returns a copy with the device set.
func (e EncoderConfig) WithDevice(device string) EncoderConfig {
	if device != "" {
		e.device = strings.ToLower(device)
	}
	return e
}

// WithRemoteURL returns a copy with the remote endpoint set.
func (e EncoderConfig) WithRemoteURL(url string) EncoderConfig {
	e.remoteURL = url
	return e
}

// WithTimeout returns a copy with the remote timeout set.
func (e EncoderConfig) WithTimeout(d time.Duration) EncoderConfig {
	if d > 0 {
		e.timeout = d
	}
	return e
}

// BasisConfig configures the basis-builder pipeline.
type BasisConfig struct {
	pageSize   int
	components int
	outputPath string
}

// NewBasisConfig creates a BasisConfig with defaults.
func NewBasisConfig() BasisConfig {
	return BasisConfig{
		pageSize:   DefaultPageSize,
		components: DefaultComponents,
		outputPath: DefaultBasisOutput,
	}
}

// PageSize returns the number of rows fetched per page.
func (b BasisConfig) PageSize() int { return b.pageSize }

// Components returns the number of basis components k.
func (b BasisConfig) Components() int { return b.components }

// OutputPath returns the basis artifact path.
func (b BasisConfig) OutputPath() string { return b.outputPath }

// WithPageSize returns a copy with the page size set.
func (b BasisConfig) WithPageSize(n int) BasisConfig {
	if n > 0 {
		b.pageSize = n
	}
	return b
}

// WithComponents returns a copy with the component count set.
func (b BasisConfig) WithComponents(n int) BasisConfig {
	if n > 0 {
		b.components = n
	}
	return b
}

// WithOutputPath returns a copy with the artifact path set.
func (b BasisConfig) WithOutputPath(path string) BasisConfig {
	if path != "" {
		b.outputPath = path
	}
	return b
}

// AppConfig holds the full application configuration.
type AppConfig struct {
	dbURL        string
	artworkTable string
	logLevel     string
	logFormat    string
	embed        EmbedConfig
	encoder      EncoderConfig
	basis        BasisConfig
}

// NewAppConfig creates an AppConfig with defaults. DBURL has no default
// and must be supplied.
func NewAppConfig() AppConfig {
	return AppConfig{
		artworkTable: DefaultArtworkTable,
		logLevel:     DefaultLogLevel,
		logFormat:    "pretty",
		embed:        NewEmbedConfig(),
		encoder:      NewEncoderConfig(),
		basis:        NewBasisConfig(),
	}
}

// DBURL returns the storage connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// ArtworkTable returns the artwork table name.
func (c AppConfig) ArtworkTable() string { return c.artworkTable }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format (pretty or json).
func (c AppConfig) LogFormat() string { return c.logFormat }

// Embed returns the embedding pipeline config.
func (c AppConfig) Embed() EmbedConfig { return c.embed }

// Encoder returns the encoder config.
func (c AppConfig) Encoder() EncoderConfig { return c.encoder }

// Basis returns the basis-builder config.
func (c AppConfig) Basis() BasisConfig { return c.basis }

// Validate checks preconditions shared by both pipelines.
func (c AppConfig) Validate() error {
	if c.dbURL == "" {
		return ErrMissingDBURL
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithDBURL sets the storage connection URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithArtworkTable sets the artwork table name.
func WithArtworkTable(table string) AppConfigOption {
	return func(c *AppConfig) {
		if table != "" {
			c.artworkTable = table
		}
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) {
		if level != "" {
			c.logLevel = level
		}
	}
}

// WithLogFormat sets the log format.
func WithLogFormat(format string) AppConfigOption {
	return func(c *AppConfig) {
		if format != "" {
			c.logFormat = format
		}
	}
}

// WithEmbedConfig sets the embedding pipeline config.
func WithEmbedConfig(e EmbedConfig) AppConfigOption {
	return func(c *AppConfig) { c.embed = e }
}

// WithEncoderConfig sets the encoder config.
func WithEncoderConfig(e EncoderConfig) AppConfigOption {
	return func(c *AppConfig) { c.encoder = e }
}

// WithBasisConfig sets the basis-builder config.
func WithBasisConfig(b BasisConfig) AppConfigOption {
	return func(c *AppConfig) { c.basis = b }
}

// NewAppConfigWithOptions creates an AppConfig with functional options applied.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a copy with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes describing the configuration.
// Credentials in the DB URL are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("db_url", c.maskedDBURL()),
		slog.String("artwork_table", c.artworkTable),
		slog.String("log_level", c.logLevel),
		slog.Int("batch_size", c.embed.batchSize),
		slog.Int("select_limit", c.embed.selectLimit),
		slog.Int("workers", c.embed.workers),
		slog.String("encoder_device", c.encoder.device),
		slog.String("encoder_model", c.encoder.modelPath),
		slog.Bool("encoder_remote", c.encoder.IsRemote()),
		slog.Int("basis_page_size", c.basis.pageSize),
		slog.Int("basis_components", c.basis.components),
		slog.String("basis_output", c.basis.outputPath),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(not set)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}
