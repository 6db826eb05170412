package installer

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep fills derived values before the configuration is saved.
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return nil
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if state.EnvVars[keyEnableTelegram] == "" {
		state.EnvVars[keyEnableTelegram] = strconv.FormatBool(state.EnvVars[keyTelegramToken] != "")
	}
	if state.EnvVars[keyDebug] == "" {
		state.EnvVars[keyDebug] = "false"
	}
	// The maintenance model falls back to the chat model.
	if state.EnvVars[keyMaintenanceModel] == "" {
		state.EnvVars[keyMaintenanceModel] = state.EnvVars[keyChatModel]
	}
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}
