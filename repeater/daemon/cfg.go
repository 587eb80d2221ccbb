package daemon

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/mlrepeater/common/go/logging"
	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/netdev"
)

// Config is the repeater daemon configuration.
type Config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// Repeater is the forwarding engine configuration.
	Repeater RepeaterConfig `yaml:"repeater"`
	// Bridge is the Linux bridge the repeater ports are attached to.
	Bridge BridgeConfig `yaml:"bridge"`
	// Metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
	// Management configuration.
	Management ManagementConfig `yaml:"management"`
	// Transmit configuration of the direct forwarding path.
	Transmit TransmitConfig `yaml:"transmit"`
}

// RepeaterConfig is the forwarding engine configuration together with the
// interface bindings.
type RepeaterConfig struct {
	repeater.Config `yaml:",inline"`
	// Interfaces binds interface names to radios and roles.
	Interfaces []netdev.Binding `yaml:"interfaces"`
}

// BridgeConfig describes the Linux bridge.
type BridgeConfig struct {
	// Name is the bridge interface name.
	Name string `yaml:"name"`
	// ResyncInterval is the period of full link and forwarding database
	// resyncs.
	ResyncInterval time.Duration `yaml:"resync_interval"`
}

// MetricsConfig describes the metrics endpoint.
type MetricsConfig struct {
	// Endpoint is the HTTP endpoint serving /metrics. Empty disables it.
	Endpoint string `yaml:"endpoint"`
}

// ManagementConfig describes the management gRPC API.
type ManagementConfig struct {
	// Endpoint is the gRPC endpoint. Empty disables the API.
	Endpoint string `yaml:"endpoint"`
}

// TransmitConfig describes the direct forwarding socket.
type TransmitConfig struct {
	// SendBuffer is the socket send buffer size.
	SendBuffer datasize.ByteSize `yaml:"send_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Repeater: RepeaterConfig{
			Config:     *repeater.DefaultConfig(),
			Interfaces: []netdev.Binding{},
		},
		Bridge: BridgeConfig{
			Name:           "br-lan",
			ResyncInterval: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Endpoint: "[::1]:9105",
		},
		Management: ManagementConfig{
			Endpoint: "[::1]:9106",
		},
		Transmit: TransmitConfig{
			SendBuffer: 256 * datasize.KB,
		},
	}
}

// LoadConfig loads configuration from a YAML file at the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with default configuration.
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (m *Config) Validate() error {
	if err := m.Repeater.Validate(); err != nil {
		return err
	}
	if _, err := netdev.NewMatcher(m.Repeater.Interfaces); err != nil {
		return err
	}
	if m.Bridge.Name == "" {
		return errors.New("bridge name is required")
	}
	if m.Bridge.ResyncInterval <= 0 {
		return fmt.Errorf("bridge resync interval must be positive, got %s", m.Bridge.ResyncInterval)
	}
	return nil
}
