package replay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
)

// Scenario describes a static repeater topology to replay captures
// against.
type Scenario struct {
	Repeater *repeater.Config `yaml:"repeater"`
	// Ports are bridge ports. Station ports are mapped to their radios
	// and counted as up.
	Ports []Port `yaml:"ports"`
	// FDB is the initial bridge forwarding database.
	FDB []FDBEntry `yaml:"fdb"`
}

// Port is a bridge port.
type Port struct {
	Name  string           `yaml:"name"`
	Radio repeater.RadioID `yaml:"radio"`
	Role  repeater.Role    `yaml:"role"`
	MAC   xnet.MAC         `yaml:"mac"`
}

// FDBEntry is a forwarding database entry.
type FDBEntry struct {
	MAC  xnet.MAC `yaml:"mac"`
	VLAN uint16   `yaml:"vlan"`
	// Port is the owner port name, empty for addresses behind unbound
	// ports.
	Port  string `yaml:"port"`
	Local bool   `yaml:"local"`
}

// DefaultScenario returns an empty scenario.
func DefaultScenario() *Scenario {
	return &Scenario{
		Repeater: repeater.DefaultConfig(),
	}
}

// LoadScenario loads the scenario from the specified path.
func LoadScenario(path string) (*Scenario, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario := DefaultScenario()
	if err := yaml.Unmarshal(buf, scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	return scenario, nil
}

// Path is the engine a capture is replayed through.
type Path uint8

const (
	PathAPReceive Path = iota
	PathSTAReceive
	PathSTATransmit
)

var pathNames = [...]string{
	PathAPReceive:   "ap-rx",
	PathSTAReceive:  "sta-rx",
	PathSTATransmit: "sta-tx",
}

func (m Path) String() string {
	if int(m) < len(pathNames) {
		return pathNames[m]
	}
	return fmt.Sprintf("Path(%d)", m)
}

// ParsePath parses the engine path name.
func ParsePath(name string) (Path, error) {
	for idx, n := range pathNames {
		if n == name {
			return Path(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown path %q: must be one of %v", name, pathNames)
}
