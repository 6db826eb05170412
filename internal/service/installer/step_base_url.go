package installer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// BaseURLStep asks for the endpoint of a self-hosted or OpenAI compatible
// provider. It is skipped unless that provider was chosen.
type BaseURLStep struct {
	provider string
	envKey   string
	title    string
	fallback string
	input    textinput.Model
	err      string
}

// NewBaseURLStep builds the step. A non-empty fallback is used when the
// operator confirms an empty field.
func NewBaseURLStep(provider, envKey, title, fallback string) Step {
	ti := textinput.New()
	ti.Focus()
	ti.Width = 50
	ti.Placeholder = fallback
	if fallback == "" {
		ti.Placeholder = "https://api.example.com/v1"
	}
	return &BaseURLStep{
		provider: provider,
		envKey:   envKey,
		title:    title,
		fallback: fallback,
		input:    ti,
	}
}

func NewCustomURLStep() Step {
	return NewBaseURLStep("custom", keyCustomBaseURL, "Enter the OpenAI compatible base URL", "")
}

func NewOllamaURLStep() Step {
	return NewBaseURLStep("ollama", keyOllamaBaseURL, "Enter the Ollama base URL", "http://localhost:11434")
}

func (s *BaseURLStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *BaseURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if state.Provider() != s.provider {
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	key, ok := msg.(tea.KeyMsg)
	if !ok || key.String() != "enter" {
		return s, cmd
	}

	val := strings.TrimSpace(s.input.Value())
	if val == "" {
		val = s.fallback
	}
	if err := checkBaseURL(val); err != nil {
		s.err = err.Error()
		return s, cmd
	}

	state.EnvVars[s.envKey] = val
	return nil, nil
}

func (s *BaseURLStep) View(state *InstallState) string {
	view := s.title + ":\n\n" + s.input.View() + "\n\n(press enter to confirm)\n"
	if s.err != "" {
		view += "\n" + s.err + "\n"
	}
	return view
}

func checkBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("a base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	return nil
}
