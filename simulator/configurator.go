package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/gammadia/schedeval/search"
	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Invocation is the part of a trial's run command that configurators may change.
type Invocation struct {
	Trial search.Trial
	Args  []string
	Env   []string
}

// Restore reverts what a configurator applied.
type Restore func() error

// Configurator applies a configuration to the simulator before it runs.
type Configurator interface {
	Apply(invocation *Invocation) (Restore, error)
}

// Parameters file formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FileConfigurator writes the configuration to a parameters file read by the simulator. The
// previous content of the file is put back on restore, or the file is removed if it did not
// exist.
type FileConfigurator struct {
	Path string
	// Format is FormatYAML or FormatJSON, guessed from the file extension when empty
	Format string
}

func (c FileConfigurator) format() string {
	if c.Format != "" {
		return c.Format
	}
	if strings.EqualFold(filepath.Ext(c.Path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

func (c FileConfigurator) Apply(invocation *Invocation) (Restore, error) {
	var buf []byte
	var err error
	switch format := c.format(); format {
	case FormatYAML:
		buf, err = yaml.Marshal(invocation.Trial.Configuration)
	case FormatJSON:
		buf, err = json.MarshalIndent(invocation.Trial.Configuration, "", "  ")
	default:
		return nil, fmt.Errorf("unknown parameters format '%s'", format)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}

	restore, err := c.save()
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(c.Path, buf, 0644); err != nil {
		return nil, multierr.Append(fmt.Errorf("write parameters file: %w", err), restore())
	}

	invocation.Env = append(invocation.Env, "SCHEDEVAL_PARAMETERS="+c.Path)
	return restore, nil
}

// save returns the function restoring the parameters file to its current state.
func (c FileConfigurator) save() (Restore, error) {
	info, err := os.Stat(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return func() error {
			if err := os.Remove(c.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove parameters file: %w", err)
			}
			return nil
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat parameters file: %w", err)
	}

	original, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("read parameters file: %w", err)
	}

	return func() error {
		if err := os.WriteFile(c.Path, original, info.Mode().Perm()); err != nil {
			return fmt.Errorf("restore parameters file: %w", err)
		}
		return nil
	}, nil
}

// TemplateData is available to run command arguments.
type TemplateData struct {
	Trial         string
	BoostInterval int
	Quantums      []int
}

// ArgsConfigurator renders every run command argument as a template, with the sprig
// functions available, e.g. `--quantums={{ .Quantums | join "," }}`.
type ArgsConfigurator struct{}

func (ArgsConfigurator) Apply(invocation *Invocation) (Restore, error) {
	data := TemplateData{
		Trial:         invocation.Trial.ID.String(),
		BoostInterval: invocation.Trial.Configuration.BoostInterval,
		Quantums:      invocation.Trial.Configuration.Quantums,
	}

	args := make([]string, len(invocation.Args))
	for i, arg := range invocation.Args {
		rendered, err := renderArg(arg, data)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = rendered
	}

	invocation.Args = args
	return nil, nil
}

func renderArg(arg string, data TemplateData) (string, error) {
	if !isTemplate(arg) {
		return arg, nil
	}

	tmpl, err := template.New("arg").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(arg)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var output strings.Builder
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return output.String(), nil
}

func isTemplate(arg string) bool {
	return strings.Contains(arg, "{{")
}
