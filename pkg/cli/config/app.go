package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model/config"
	"github.com/m2rads/lime/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppConfig holds the path of the optional product configuration file
type AppConfig struct {
	path string
}

// appFile is the TOML layout of the configuration file
type appFile struct {
	Runner     runnerSection     `toml:"runner"`
	Navigation navigationSection `toml:"navigation"`
}

type runnerSection struct {
	CPUSizes   []int `toml:"cpu_sizes"`
	DefaultCPU int   `toml:"default_cpu"`
}

type navigationSection struct {
	Titles map[string]string `toml:"titles"`
}

func (x *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Category:    "Application",
			Destination: &x.path,
			Sources:     cli.EnvVars("LIME_CONFIG"),
		},
	}
}

func (x AppConfig) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

// Configure loads the configuration file, or returns the defaults when no
// path is set
func (x *AppConfig) Configure() (*config.AppConfig, error) {
	if x.path == "" {
		return config.Default(), nil
	}
	return LoadAppConfig(x.path)
}

// LoadAppConfig reads and validates the TOML file at path
func LoadAppConfig(path string) (*config.AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file appFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	cfg, err := file.toDomain()
	if err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}
	return cfg, nil
}

func (f *appFile) toDomain() (*config.AppConfig, error) {
	cfg := config.Default()

	if len(f.Runner.CPUSizes) > 0 {
		for _, size := range f.Runner.CPUSizes {
			if size <= 0 {
				return nil, goerr.Wrap(ErrInvalidRunnerSize, "CPU size must be positive", goerr.V("cpu", size))
			}
		}
		cfg.Runner.CPUSizes = slices.Clone(f.Runner.CPUSizes)
		cfg.Runner.DefaultCPU = f.Runner.CPUSizes[0]
	}
	if f.Runner.DefaultCPU != 0 {
		if !slices.Contains(cfg.Runner.CPUSizes, f.Runner.DefaultCPU) {
			return nil, goerr.Wrap(ErrInvalidRunnerSize, "default CPU size is not one of cpu_sizes",
				goerr.V("default_cpu", f.Runner.DefaultCPU), goerr.V("cpu_sizes", cfg.Runner.CPUSizes))
		}
		cfg.Runner.DefaultCPU = f.Runner.DefaultCPU
	}

	if len(f.Navigation.Titles) > 0 {
		cfg.Navigation.Titles = make(map[types.NavItem]string, len(f.Navigation.Titles))
		for key, title := range f.Navigation.Titles {
			item, err := types.ParseNavItem(key)
			if err != nil {
				return nil, goerr.Wrap(ErrUnknownNavItem, "navigation title for unknown item", goerr.V("item", key))
			}
			cfg.Navigation.Titles[item] = title
		}
	}

	return cfg, nil
}
