package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	app := cfg.ToAppConfig()
	require.Equal(t, 10, app.Embed().BatchSize())
	require.Equal(t, 8192, app.Basis().PageSize())
	require.Equal(t, 4, app.Basis().Components())
	require.Equal(t, "pca_basis.json", app.Basis().OutputPath())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_URL", "sqlite:///art.db")
	t.Setenv("EMBED_BATCH_SIZE", "3")
	t.Setenv("EMBED_PAUSE", "0")
	t.Setenv("BASIS_COMPONENTS", "8")
	t.Setenv("ENCODER_DEVICE", "CUDA")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	app := cfg.ToAppConfig()
	require.Equal(t, "sqlite:///art.db", app.DBURL())
	require.Equal(t, 3, app.Embed().BatchSize())
	require.Zero(t, app.Embed().BatchPause())
	require.Equal(t, 8, app.Basis().Components())
	require.Equal(t, "cuda", app.Encoder().Device())
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	require.NoError(t, LoadDotEnv("does-not-exist.env"))
}
