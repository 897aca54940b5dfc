// Package config loads geonet defaults from YAML, a .env file and GEONET_*
// environment variables, in that order of increasing priority.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/dd0wney/cluso-geonet/pkg/validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GEONET_"

// Config holds the defaults for every geonet operation.
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Cluster ClusterConfig `yaml:"cluster"`
	Rank    RankConfig    `yaml:"rank"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type NetworkConfig struct {
	MaxDistance float64 `yaml:"max_distance" validate:"gte=0"` // 0 means unbounded
	Geodesic    bool    `yaml:"geodesic"`
}

type ClusterConfig struct {
	DistBase       float64 `yaml:"dist_base" validate:"gt=0"`
	Phi            float64 `yaml:"phi" validate:"gte=0,lte=1"`
	NGroup         int     `yaml:"ngroup" validate:"gte=0"` // 0 builds the tree without cutting it
	TokenSeparator string  `yaml:"token_separator" validate:"required"`
	Workers        int     `yaml:"workers" validate:"gte=0"` // 0 means GOMAXPROCS
}

type RankConfig struct {
	NGroup int     `yaml:"ngroup" validate:"gte=1"`
	Ratio  float64 `yaml:"ratio" validate:"gt=0"`
}

type OutputConfig struct {
	Compress bool           `yaml:"compress"`
	SRID     int            `yaml:"srid" validate:"gt=0"`
	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type S3Config struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{Geodesic: true},
		Cluster: ClusterConfig{DistBase: 1000, Phi: 0.5, TokenSeparator: "-"},
		Rank:    RankConfig{NGroup: 5, Ratio: 1.5},
		Output:  OutputConfig{SRID: 4326},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then .env files (missing ones are ignored), then the
// process environment. The result is validated.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	for _, f := range envFiles {
		// godotenv never overrides variables already set in the process
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// decode overlays YAML onto cfg, rejecting unknown keys.
func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv applies GEONET_* overrides, e.g. GEONET_CLUSTER_PHI=0.3.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	floats := map[string]*float64{
		"NETWORK_MAX_DISTANCE": &c.Network.MaxDistance,
		"CLUSTER_DIST_BASE":    &c.Cluster.DistBase,
		"CLUSTER_PHI":          &c.Cluster.Phi,
		"RANK_RATIO":           &c.Rank.Ratio,
	}
	ints := map[string]*int{
		"CLUSTER_NGROUP":  &c.Cluster.NGroup,
		"CLUSTER_WORKERS": &c.Cluster.Workers,
		"RANK_NGROUP":     &c.Rank.NGroup,
		"OUTPUT_SRID":     &c.Output.SRID,
	}
	bools := map[string]*bool{
		"NETWORK_GEODESIC": &c.Network.Geodesic,
		"OUTPUT_COMPRESS":  &c.Output.Compress,
		"METRICS_ENABLED":  &c.Metrics.Enabled,
	}
	strs := map[string]*string{
		"CLUSTER_TOKEN_SEPARATOR": &c.Cluster.TokenSeparator,
		"OUTPUT_S3_REGION":        &c.Output.S3.Region,
		"OUTPUT_S3_ENDPOINT":      &c.Output.S3.Endpoint,
		"OUTPUT_POSTGRES_DSN":     &c.Output.Postgres.DSN,
		"LOG_LEVEL":               &c.Log.Level,
	}

	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}
	for name, dst := range bools {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	return validation.NewConfigValidator("geonet").
		When(c.Cluster.NGroup != 0, func(cv *validation.ConfigValidator) {
			cv.MinInt("cluster.ngroup", c.Cluster.NGroup, 2)
		}).
		When(c.Output.S3.Endpoint != "", func(cv *validation.ConfigValidator) {
			cv.Custom("output.s3.endpoint", func() error {
				if !strings.HasPrefix(c.Output.S3.Endpoint, "http://") && !strings.HasPrefix(c.Output.S3.Endpoint, "https://") {
					return errors.New("must be an http(s) URL")
				}
				return nil
			})
		}).
		Validate()
}

// OpenOptions returns the sink options for layer.Open.
func (c *Config) OpenOptions() layer.OpenOptions {
	return layer.OpenOptions{
		Compress:   c.Output.Compress,
		SRID:       c.Output.SRID,
		S3Region:   c.Output.S3.Region,
		S3Endpoint: c.Output.S3.Endpoint,
	}
}
