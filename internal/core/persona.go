package core

import (
	"errors"
	"strings"
)

var ErrPersonaNotFound = errors.New("persona not found")

// Persona is a configured conversational agent. It is loaded once at
// startup and never mutated by the orchestrator.
type Persona struct {
	Name        string `yaml:"name" json:"name"`
	Emoji       string `yaml:"emoji,omitempty" json:"emoji,omitempty"`
	Avatar      string `yaml:"avatar,omitempty" json:"avatar,omitempty"`
	Personality string `yaml:"personality" json:"personality"`
	HomeChannel string `yaml:"home_channel" json:"home_channel"`
}

// DisplayName is the identity a persona speaks under on a transport.
func (p Persona) DisplayName() string {
	return strings.TrimSpace(p.Name + " " + p.Emoji)
}
