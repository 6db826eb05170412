package installer

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ProviderStep picks the model provider shared by the chat and maintenance
// models.
type ProviderStep struct {
	list choiceList
}

func NewProviderStep() Step {
	return &ProviderStep{list: choiceList{
		title: "Select the model provider for your personas:",
		choices: []choice{
			{label: "OpenAI", hint: "api.openai.com"},
			{label: "Anthropic", hint: "Claude models"},
			{label: "OpenRouter", hint: "many vendors, one key"},
			{label: "Gemini", hint: "Google AI Studio key"},
			{label: "Ollama", hint: "local models"},
			{label: "Custom", hint: "any OpenAI compatible server"},
		},
	}}
}

func (s *ProviderStep) Init() tea.Cmd {
	return nil
}

func (s *ProviderStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.list.handle(msg) {
		return s, nil
	}
	state.EnvVars[keyProvider] = strings.ToLower(s.list.choices[s.list.cursor].label)
	return nil, nil
}

func (s *ProviderStep) View(state *InstallState) string {
	return s.list.view()
}
