package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/storage/directory"
	chorusenv "github.com/sandevgo/chorus/pkg/env"
)

// SamplePersonas seed a fresh install.
var SamplePersonas = []core.Persona{
	{
		Name:        "Nova",
		Emoji:       "🦊",
		Personality: "A curious, quick-witted fox who loves puzzles and asks follow-up questions.",
		HomeChannel: "#general",
	},
	{
		Name:        "Orion",
		Emoji:       "🏹",
		Personality: "A calm, precise hunter of facts. Speaks briefly and corrects mistakes gently.",
		HomeChannel: "#lab",
	},
}

// BuildEnv validates the collected values as the application will read
// them and renders the .env content.
func BuildEnv(vars map[string]string) (string, error) {
	opts := env.Options{Environment: vars}

	app := &config.AppConfig{}
	if err := env.ParseWithOptions(app, opts); err != nil {
		return "", fmt.Errorf("parse app config: %w", err)
	}
	if err := app.Validate(); err != nil {
		return "", err
	}
	content, err := chorusenv.MarshalEnv(app)
	if err != nil {
		return "", err
	}

	if app.EnableTelegram {
		tg := &config.TelegramConfig{}
		if err := env.ParseWithOptions(tg, opts); err != nil {
			return "", fmt.Errorf("parse telegram config: %w", err)
		}
		tgContent, err := chorusenv.MarshalEnv(tg)
		if err != nil {
			return "", err
		}
		content += tgContent
	}
	return content, nil
}

// WriteSamplePersonas writes SamplePersonas to path unless a file is
// already there. It reports whether it wrote the file.
func WriteSamplePersonas(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	data, err := directory.Marshal(SamplePersonas)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, err
	}
	return true, nil
}

// SaveEnvStep writes the collected configuration to .env file
type SaveEnvStep struct {
	err   error
	saved bool
}

func NewSaveEnvStep() Step {
	return &SaveEnvStep{}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return nil
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	path := config.GetRuntimePath()
	if err := os.MkdirAll(path, 0755); err != nil {
		s.err = fmt.Errorf("failed to create runtime directory: %w", err)
		return s, nil
	}

	envPath := config.GetEnvPath()
	if _, err := os.Stat(envPath); err == nil {
		s.err = fmt.Errorf(".env file already exists at %s", envPath)
		return s, nil
	}

	content, err := BuildEnv(state.EnvVars)
	if err != nil {
		s.err = err
		return s, nil
	}

	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		s.err = err
		return s, nil
	}

	s.saved = true
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}

// PersonasFileStep writes a sample personas.yaml to the runtime directory.
type PersonasFileStep struct {
	err  error
	done bool
}

func NewPersonasFileStep() Step {
	return &PersonasFileStep{}
}

func (s *PersonasFileStep) Init() tea.Cmd {
	return nil
}

func (s *PersonasFileStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.done {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	path := filepath.Join(config.GetRuntimePath(), "personas.yaml")
	if _, err := WriteSamplePersonas(path); err != nil {
		s.err = fmt.Errorf("failed to write %s: %w", path, err)
		return s, nil
	}

	s.done = true
	return nil, nil
}

func (s *PersonasFileStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.done {
		return "Sample personas written.\n"
	}
	return "Writing sample personas...\n"
}
