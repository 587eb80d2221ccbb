package netdev

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"

	"github.com/yanet-platform/mlrepeater/repeater"
)

// Binding assigns a radio and a role to interfaces whose names match the
// glob pattern.
type Binding struct {
	// Match is a glob pattern over interface names, for example "ath0*".
	Match string `yaml:"match"`
	// Radio is the radio hosting the matched interfaces. Must be empty for
	// wired ports.
	Radio repeater.RadioID `yaml:"radio"`
	// Role is the role of the matched interfaces.
	Role repeater.Role `yaml:"role"`
}

// Matcher resolves interface names to bindings.
//
// The first matching binding wins.
type Matcher struct {
	bindings []Binding
	globs    []glob.Glob
}

// NewMatcher compiles bindings into a matcher.
func NewMatcher(bindings []Binding) (*Matcher, error) {
	globs := make([]glob.Glob, 0, len(bindings))
	for idx, binding := range bindings {
		if err := binding.validate(); err != nil {
			return nil, fmt.Errorf("interface binding #%d: %w", idx, err)
		}

		g, err := glob.Compile(binding.Match)
		if err != nil {
			return nil, fmt.Errorf("failed to compile interface pattern %q: %w", binding.Match, err)
		}
		globs = append(globs, g)
	}

	return &Matcher{
		bindings: bindings,
		globs:    globs,
	}, nil
}

// Match returns the binding for the interface name.
func (m *Matcher) Match(name string) (Binding, bool) {
	for idx, g := range m.globs {
		if g.Match(name) {
			return m.bindings[idx], true
		}
	}
	return Binding{}, false
}

func (m *Binding) validate() error {
	if m.Match == "" {
		return errors.New("empty match pattern")
	}
	if m.Role.IsWireless() && m.Radio == "" {
		return fmt.Errorf("%s interfaces %q require a radio", m.Role, m.Match)
	}
	if !m.Role.IsWireless() && m.Radio != "" {
		return fmt.Errorf("%s interfaces %q cannot belong to a radio", m.Role, m.Match)
	}
	return nil
}
