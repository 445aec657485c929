package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `default:"8080"`

	DatasetPath  string `split_words:"true" default:"hybrid_knn_dataset.csv"`
	ScalerPath   string `split_words:"true" default:"scaler.json"`
	ModelDir     string `split_words:"true" default:"models"`
	DatabaseURL  string `split_words:"true"`
	DatasetTable string `split_words:"true" default:"songs"`

	SpotifyID     string `split_words:"true"`
	SpotifySecret string `split_words:"true"`

	MusicbrainzEnabled bool          `split_words:"true" default:"true"`
	ArtworkTimeout     time.Duration `split_words:"true" default:"5s"`

	LogLevel string `split_words:"true" default:"info"`
}

// ProvideConfig reads GEETYATRA_* environment variables.
func ProvideConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("geetyatra", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

var Options = ProvideConfig
