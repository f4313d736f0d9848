package config

import "github.com/m2rads/lime/pkg/domain/types"

// DefaultCPUSizes are the runner sizes offered when no configuration is given
var DefaultCPUSizes = []int{2, 4, 8}

const DefaultCPU = 2

// RunnerConfig holds the runner sizes offered by the dashboard
type RunnerConfig struct {
	CPUSizes   []int
	DefaultCPU int
}

// NavigationConfig holds display overrides for sidebar entries
type NavigationConfig struct {
	Titles map[types.NavItem]string
}

// AppConfig holds all optional product configuration
type AppConfig struct {
	Runner     RunnerConfig
	Navigation NavigationConfig
}

// Default returns the configuration used without a config file
func Default() *AppConfig {
	return &AppConfig{
		Runner: RunnerConfig{
			CPUSizes:   append([]int(nil), DefaultCPUSizes...),
			DefaultCPU: DefaultCPU,
		},
	}
}
