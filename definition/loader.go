package definition

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/flowkit/flow"
)

// Loader loads definitions by name.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories
// for definition YAML files.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load searches for {name}.yaml and {name}.yml across the configured
// directories and decodes the first file that exists. The loaded
// definition is validated.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("definition: reading %s: %w", path, err)
			}
			return parse(path, data)
		}
	}
	return nil, fmt.Errorf("definition: %q not found in %v", name, l.dirs)
}

// LoadFile loads and validates a definition from an explicit path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition: reading %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("definition: parsing %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Resolve builds an executable pipeline from the named definition. Op
// steps are looked up in reg; pipeline steps are loaded through loader
// and resolved recursively, appended as nested pipelines. Circular
// references are detected and reported.
func Resolve(name string, loader Loader, reg *flow.Registry[flow.Operation]) (*flow.Pipeline, error) {
	return resolve(name, loader, reg, make(map[string]bool))
}

func resolve(name string, loader Loader, reg *flow.Registry[flow.Operation], stack map[string]bool) (*flow.Pipeline, error) {
	if stack[name] {
		return nil, fmt.Errorf("definition: circular reference detected for %q", name)
	}
	stack[name] = true
	defer delete(stack, name)

	def, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	p := flow.Named(def.Name)
	for i, s := range def.Steps {
		switch {
		case s.Op != "":
			op, ok := reg.Get(s.Op)
			if !ok {
				return nil, fmt.Errorf("definition %q: step %d: operation %q not found in registry", def.Name, i, s.Op)
			}
			p = p.Append(s.Label, op)
		case s.Pipeline != "":
			sub, err := resolve(s.Pipeline, loader, reg, stack)
			if err != nil {
				return nil, err
			}
			p = p.Append(s.Label, sub)
		}
	}
	return p, nil
}
