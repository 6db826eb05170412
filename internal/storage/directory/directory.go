package directory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/pkg/log"
	"gopkg.in/yaml.v3"
)

// File is the layout of personas.yaml.
type File struct {
	Personas []core.Persona `yaml:"personas"`
}

// ReadFile parses a persona seed file. Names must be unique and every
// persona needs a home channel.
func ReadFile(path string) ([]core.Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) ([]core.Persona, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid personas file: %w", err)
	}

	seen := make(map[string]bool, len(f.Personas))
	for i := range f.Personas {
		p := &f.Personas[i]
		p.Name = strings.TrimSpace(p.Name)
		p.HomeChannel = strings.TrimSpace(p.HomeChannel)

		if p.Name == "" {
			return nil, fmt.Errorf("persona #%d has no name", i+1)
		}
		if p.HomeChannel == "" {
			return nil, fmt.Errorf("persona %q has no home_channel", p.Name)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate persona %q", p.Name)
		}
		seen[key] = true
	}
	return f.Personas, nil
}

func Marshal(personas []core.Persona) ([]byte, error) {
	return yaml.Marshal(File{Personas: personas})
}

// Seed upserts the personas of the seed file into repo and returns the
// full stored set. A missing seed file only leaves the store as it is.
func Seed(ctx context.Context, path string, repo core.PersonaRepository) ([]core.Persona, error) {
	logger := log.FromCtx(ctx)

	seed, err := ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn().Str("path", path).Msg("personas file not found, using stored personas")
	case err != nil:
		return nil, err
	}

	for _, p := range seed {
		if err := repo.UpsertPersona(ctx, p); err != nil {
			return nil, err
		}
	}

	personas, err := repo.LoadAllPersonas(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(personas))
	for i, p := range personas {
		names[i] = p.Name
	}
	logger.Info().Strs("personas", names).Msg("personas loaded")
	return personas, nil
}
