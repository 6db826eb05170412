package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type apiKeySpec struct {
	envKey      string
	title       string
	placeholder string
	optional    bool
}

var apiKeys = map[string]apiKeySpec{
	"openai":     {envKey: "CHORUS_OPENAI_API_KEY", title: "OpenAI API Key", placeholder: "sk-..."},
	"anthropic":  {envKey: "CHORUS_ANTHROPIC_API_KEY", title: "Anthropic API Key", placeholder: "sk-ant-..."},
	"openrouter": {envKey: "CHORUS_OPENROUTER_API_KEY", title: "OpenRouter API Key", placeholder: "sk-or-v1-..."},
	"gemini":     {envKey: "CHORUS_GEMINI_API_KEY", title: "Gemini API Key", placeholder: "AIza..."},
	"ollama":     {envKey: "CHORUS_OLLAMA_API_KEY", title: "Ollama API Key", optional: true},
	"custom":     {envKey: "CHORUS_CUSTOM_API_KEY", title: "API Key", optional: true},
}

// APIKeyStep collects the key of the selected provider.
type APIKeyStep struct {
	input textinput.Model
	spec  apiKeySpec
	ready bool
}

func NewAPIKeyStep() Step {
	return &APIKeyStep{}
}

func (s *APIKeyStep) Init() tea.Cmd {
	return nil
}

func (s *APIKeyStep) initProvider(state *InstallState) bool {
	spec, ok := apiKeys[state.Provider()]
	if !ok {
		return false
	}
	s.spec = spec

	s.input = textinput.New()
	s.input.Focus()
	s.input.CharLimit = 255
	s.input.Width = 40
	s.input.EchoMode = textinput.EchoPassword
	s.input.EchoCharacter = '•'
	s.input.Placeholder = spec.placeholder
	if spec.optional {
		s.input.Placeholder = "Optional - press Enter to skip"
		s.input.EchoMode = textinput.EchoNormal
	}
	s.ready = true
	return true
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		if !s.initProvider(state) {
			return nil, nil
		}
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if s.input.Value() == "" && !s.spec.optional {
			return s, cmd
		}
		state.EnvVars[s.spec.envKey] = s.input.Value()
		return nil, nil
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	if !s.ready {
		return "Loading...\n"
	}

	optionalHint := ""
	if s.spec.optional {
		optionalHint = " (optional - press Enter to skip)"
	}

	return fmt.Sprintf("Enter your %s%s:\n\n%s\n\n(press enter to confirm)\n",
		s.spec.title, optionalHint, s.input.View())
}
