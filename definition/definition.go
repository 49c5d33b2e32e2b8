// Package definition loads pipeline definitions from YAML files and
// resolves them into executable pipelines against an operation
// registry.
package definition

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Definition describes a pipeline as data: a named, ordered list of
// steps resolved later against a registry.
type Definition struct {
	Name        string    `yaml:"name" validate:"required"`
	Description string    `yaml:"description,omitempty"`
	Steps       []StepDef `yaml:"steps" validate:"required,min=1"`
}

// StepDef is one pipeline step. Exactly one of Op (a registered
// operation name) or Pipeline (a nested definition reference) must be
// set. Label is optional; an unlabeled step reports its operation's
// name.
type StepDef struct {
	Label    string `yaml:"label,omitempty"`
	Op       string `yaml:"op,omitempty"`
	Pipeline string `yaml:"pipeline,omitempty"`
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use yaml tag names for field names in error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks the definition's shape. Struct tags cover presence;
// the op/pipeline exclusivity rule is checked explicitly because tags
// cannot express it.
func (d *Definition) Validate() error {
	if err := getValidator().Struct(d); err != nil {
		return fmt.Errorf("definition %q: %w", d.Name, err)
	}
	for i, s := range d.Steps {
		if (s.Op == "") == (s.Pipeline == "") {
			return fmt.Errorf("definition %q: step %d: exactly one of op or pipeline must be set", d.Name, i)
		}
	}
	return nil
}
