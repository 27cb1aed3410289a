package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Field names map
// to environment variables with no prefix, matching the original
// scripts' use of a flat .env file.
type EnvConfig struct {
	// DBURL is the storage connection URL.
	// Env: DB_URL (required before a pipeline starts)
	DBURL string `envconfig:"DB_URL"`

	// ArtworkTable is the artwork table name.
	// Env: ARTWORK_TABLE (default: artworks)
	ArtworkTable string `envconfig:"ARTWORK_TABLE" default:"artworks"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Embed configures the embedding pipeline.
	Embed EmbedEnv `envconfig:"EMBED"`

	// Encoder configures the pretrained image encoder.
	Encoder EncoderEnv `envconfig:"ENCODER"`

	// Basis configures the basis-builder pipeline.
	Basis BasisEnv `envconfig:"BASIS"`
}

// EmbedEnv holds environment configuration for the embedding pipeline.
type EmbedEnv struct {
	// BatchSize is the number of records per commit batch.
	// Env: EMBED_BATCH_SIZE (default: 10)
	BatchSize int `envconfig:"BATCH_SIZE" default:"10"`

	// SelectLimit caps the records selected per invocation.
	// Env: EMBED_SELECT_LIMIT (default: 1000)
	SelectLimit int `envconfig:"SELECT_LIMIT" default:"1000"`

	// FetchTimeout is the image download timeout in seconds.
	// Env: EMBED_FETCH_TIMEOUT (default: 10)
	FetchTimeout float64 `envconfig:"FETCH_TIMEOUT" default:"10"`

	// Pause is the pause between batches in seconds.
	// Env: EMBED_PAUSE (default: 0.5)
	Pause float64 `envconfig:"PAUSE" default:"0.5"`

	// Workers bounds concurrent downloads within a batch.
	// Env: EMBED_WORKERS (default: 1)
	Workers int `envconfig:"WORKERS" default:"1"`
}

// EncoderEnv holds environment configuration for the encoder.
type EncoderEnv struct {
	// ModelPath is the local ONNX vision model file.
	// Env: ENCODER_MODEL_PATH
	ModelPath string `envconfig:"MODEL_PATH"`

	// Device selects the compute device: cpu, cuda, coreml.
	// Env: ENCODER_DEVICE (default: cpu)
	Device string `envconfig:"DEVICE" default:"cpu"`

	// RemoteURL is a remote encoder endpoint; overrides ModelPath.
	// Env: ENCODER_REMOTE_URL
	RemoteURL string `envconfig:"REMOTE_URL"`

	// Timeout is the remote encoder request timeout in seconds.
	// Env: ENCODER_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`
}

// BasisEnv holds environment configuration for the basis builder.
type BasisEnv struct {
	// PageSize is the number of rows fetched per page.
	// Env: BASIS_PAGE_SIZE (default: 8192)
	PageSize int `envconfig:"PAGE_SIZE" default:"8192"`

	// Components is the number of basis components k.
	// Env: BASIS_COMPONENTS (default: 4)
	Components int `envconfig:"COMPONENTS" default:"4"`

	// Output is the basis artifact path.
	// Env: BASIS_OUTPUT (default: pca_basis.json)
	Output string `envconfig:"OUTPUT" default:"pca_basis.json"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	embed := NewEmbedConfig().
		WithBatchSize(e.Embed.BatchSize).
		WithSelectLimit(e.Embed.SelectLimit).
		WithFetchTimeout(seconds(e.Embed.FetchTimeout)).
		WithBatchPause(seconds(e.Embed.Pause)).
		WithWorkers(e.Embed.Workers)

	encoder := NewEncoderConfig().
		WithModelPath(e.Encoder.ModelPath).
		WithDevice(e.Encoder.Device).
		WithRemoteURL(e.Encoder.RemoteURL).
		WithTimeout(seconds(e.Encoder.Timeout))

	basis := NewBasisConfig().
		WithPageSize(e.Basis.PageSize).
		WithComponents(e.Basis.Components).
		WithOutputPath(e.Basis.Output)

	return NewAppConfigWithOptions(
		WithDBURL(e.DBURL),
		WithArtworkTable(e.ArtworkTable),
		WithLogLevel(e.LogLevel),
		WithLogFormat(e.LogFormat),
		WithEmbedConfig(embed),
		WithEncoderConfig(encoder),
		WithBasisConfig(basis),
	)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
