package installer

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

type transports struct {
	cli      bool
	telegram bool
}

// ChannelStep selects the transports personas talk through.
type ChannelStep struct {
	list    choiceList
	enabled []transports
}

func NewChannelStep() Step {
	return &ChannelStep{
		list: choiceList{
			title: "Where should the personas talk?",
			choices: []choice{
				{label: "Console", hint: "#channel author: text"},
				{label: "Telegram", hint: "needs a bot token"},
				{label: "Console + Telegram"},
			},
		},
		enabled: []transports{
			{cli: true},
			{telegram: true},
			{cli: true, telegram: true},
		},
	}
}

func (s *ChannelStep) Init() tea.Cmd {
	return nil
}

func (s *ChannelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.list.handle(msg) {
		return s, nil
	}
	t := s.enabled[s.list.cursor]
	state.EnvVars[keyEnableCLI] = strconv.FormatBool(t.cli)
	state.EnvVars[keyEnableTelegram] = strconv.FormatBool(t.telegram)
	return nil, nil
}

func (s *ChannelStep) View(state *InstallState) string {
	return s.list.view()
}
