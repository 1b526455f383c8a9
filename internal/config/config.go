// SPDX-License-Identifier: EPL-2.0

// Package config loads audmix settings from defaults, an optional YAML
// file and AUDMIX_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ik5/audmix/gpu"
	"github.com/ik5/audmix/mix"
	"github.com/spf13/viper"
)

const (
	BackendCPU = "cpu"
	BackendGPU = "gpu"

	// DeviceNative opens a hardware adapter, DeviceSoftware the in-process
	// emulator.
	DeviceNative   = "native"
	DeviceSoftware = "software"

	EnvPrefix = "AUDMIX"
)

// Config holds every setting of the mixer.
type Config struct {
	Backend       string        `mapstructure:"backend"`
	SampleRate    int           `mapstructure:"sample_rate"`
	DecodeWorkers int           `mapstructure:"decode_workers"`
	Mix           MixConfig     `mapstructure:"mix"`
	GPU           GPUConfig     `mapstructure:"gpu"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// MixConfig tunes the CPU reducer. Zero means the library default.
type MixConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	Workers   int `mapstructure:"workers"`
}

// GPUConfig tunes the compute reducer.
type GPUConfig struct {
	Device        string `mapstructure:"device"`
	WorkgroupSize uint32 `mapstructure:"workgroup_size"`
	MaxGroupsX    uint32 `mapstructure:"max_groups_x"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendCPU)
	v.SetDefault("sample_rate", 44100)
	v.SetDefault("decode_workers", 0)
	v.SetDefault("mix.chunk_size", mix.DefaultChunkSize)
	v.SetDefault("mix.workers", 0)
	v.SetDefault("gpu.device", DeviceNative)
	v.SetDefault("gpu.workgroup_size", gpu.MixWorkgroupSize)
	v.SetDefault("gpu.max_groups_x", gpu.DefaultMaxGroupsX)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration into a Config. When file is empty the
// usual locations are searched for config.yaml and a missing file is not
// an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.audmix")
		v.AddConfigPath("/etc/audmix")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// ErrInvalid matches every *Error.
var ErrInvalid = errors.New("invalid configuration")

// Error reports one invalid setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

// Validate checks the values Load cannot.
func (c *Config) Validate() error {
	switch {
	case c.Backend != BackendCPU && c.Backend != BackendGPU:
		return &Error{Field: "backend", Message: fmt.Sprintf("unknown backend %q, want cpu or gpu", c.Backend)}
	case c.SampleRate <= 0:
		return &Error{Field: "sample_rate", Message: "must be positive"}
	case c.DecodeWorkers < 0:
		return &Error{Field: "decode_workers", Message: "must not be negative"}
	case c.Mix.ChunkSize < 0:
		return &Error{Field: "mix.chunk_size", Message: "must not be negative"}
	case c.Mix.Workers < 0:
		return &Error{Field: "mix.workers", Message: "must not be negative"}
	case c.GPU.Device != DeviceNative && c.GPU.Device != DeviceSoftware:
		return &Error{Field: "gpu.device", Message: fmt.Sprintf("unknown device %q, want native or software", c.GPU.Device)}
	case c.GPU.WorkgroupSize == 0 || c.GPU.WorkgroupSize > gpu.MaxWorkgroupSize:
		return &Error{Field: "gpu.workgroup_size", Message: fmt.Sprintf("must be between 1 and %d", gpu.MaxWorkgroupSize)}
	case c.GPU.MaxGroupsX == 0 || c.GPU.MaxGroupsX > gpu.DefaultMaxWorkgroupsPerDimension:
		return &Error{Field: "gpu.max_groups_x", Message: fmt.Sprintf("must be between 1 and %d", gpu.DefaultMaxWorkgroupsPerDimension)}
	}

	return nil
}
