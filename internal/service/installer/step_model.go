package installer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/providers/llm"
)

var errNoModelList = errors.New("provider cannot list models")

// listModels asks the selected provider for its models. Replaced in tests.
var listModels = func(ctx context.Context, vars map[string]string) ([]string, error) {
	cfg := &config.AppConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, err
	}

	p, err := llm.NewProvider(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	lister, ok := p.(llm.ModelLister)
	if !ok {
		return nil, errNoModelList
	}
	return lister.Models(ctx)
}

type modelsMsg []list.Item
type modelsErrMsg struct{ err error }

// ModelStep picks a model from the provider's list, or takes it typed in
// when the provider cannot list its models.
type ModelStep struct {
	envKey   string
	title    string
	list     list.Model
	input    textinput.Model
	fetching bool
	loaded   bool
	manual   bool
	err      error
}

func NewModelStep(envKey, title string) Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	ti := textinput.New()
	ti.Focus()
	ti.Width = 50
	ti.Placeholder = "model id"

	return &ModelStep{
		envKey: envKey,
		title:  title,
		list:   l,
		input:  ti,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return nil
}

func (s *ModelStep) fetch(state *InstallState) tea.Cmd {
	provider := state.Provider()
	vars := make(map[string]string, len(state.EnvVars))
	for k, v := range state.EnvVars {
		vars[k] = v
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		models, err := listModels(ctx, vars)
		if err != nil {
			return modelsErrMsg{err: err}
		}

		items := make([]list.Item, 0, len(models))
		for _, id := range models {
			items = append(items, item{id: id, title: id, desc: provider})
		}
		return modelsMsg(items)
	}
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.fetching && !s.loaded {
		s.fetching = true
		return s, s.fetch(state)
	}

	s.list.SetSize(width, height-4)

	switch msg := msg.(type) {
	case modelsMsg:
		s.fetching, s.loaded = false, true
		if len(msg) == 0 {
			s.manual = true
			return s, textinput.Blink
		}
		s.list.SetItems(msg)
		return s, nil

	case modelsErrMsg:
		s.fetching, s.loaded = false, true
		s.manual = true
		if !errors.Is(msg.err, errNoModelList) {
			s.err = msg.err
		}
		return s, textinput.Blink
	}

	if s.manual {
		return s.updateManual(msg, state)
	}

	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && s.loaded {
		wasFiltering := s.list.FilterState() == list.Filtering
		s.list, cmd = s.list.Update(msg)
		if wasFiltering || s.list.FilterState() == list.Filtering {
			return s, cmd
		}
		if i, ok := s.list.SelectedItem().(item); ok {
			state.EnvVars[s.envKey] = i.id
			return nil, nil
		}
		return s, cmd
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) updateManual(msg tea.Msg, state *InstallState) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if val := strings.TrimSpace(s.input.Value()); val != "" {
			state.EnvVars[s.envKey] = val
			return nil, nil
		}
	}
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	switch {
	case s.manual:
		var b strings.Builder
		if s.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) + "\n\n")
		}
		b.WriteString(fmt.Sprintf("%s:\n\n%s\n\n(press enter to confirm)\n", s.title, s.input.View()))
		return b.String()
	case !s.loaded:
		return fmt.Sprintf("Fetching models from %s...\n", state.Provider())
	default:
		return s.list.View()
	}
}
