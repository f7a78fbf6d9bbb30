package harness

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.cue
var scenarioSchema string

// scenarioDefinition compiles the embedded schema on first use.
var scenarioDefinition = sync.OnceValues(func() (cue.Value, error) {
	schema := cuecontext.New().CompileString(scenarioSchema, cue.Filename("scenario.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile scenario schema: %w", err)
	}
	return schema.LookupPath(cue.ParsePath("#Scenario")), nil
})

// cueMu serialises use of the shared cue.Context.
var cueMu sync.Mutex

// ErrInvalidScenario is returned when a scenario fails validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is one mutate → query → compare-to-fixture check.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture names the expected result. Defaults to Name.
	Fixture string `yaml:"fixture,omitempty"`

	// Mutate lists the write statements, executed in order.
	Mutate []string `yaml:"mutate"`

	// Query selects the rows compared with the fixture.
	Query string `yaml:"query"`

	// Unordered compares rows as a multiset instead of a sequence.
	Unordered bool `yaml:"unordered,omitempty"`

	// Path is the file the scenario was loaded from, empty for literals.
	Path string `yaml:"-"`
}

// FixtureName returns the fixture compared against this scenario.
func (s *Scenario) FixtureName() string {
	if s.Fixture != "" {
		return s.Fixture
	}
	return s.Name
}

// toValue converts the scenario to the shape described by #Scenario.
func (s *Scenario) toValue() map[string]any {
	v := map[string]any{
		"name":        s.Name,
		"description": s.Description,
		"mutate":      s.Mutate,
		"query":       s.Query,
		"unordered":   s.Unordered,
	}
	if s.Mutate == nil {
		v["mutate"] = []string{}
	}
	if s.Fixture != "" {
		v["fixture"] = s.Fixture
	}
	return v
}

// Validate checks a scenario against the embedded CUE definition.
func Validate(s *Scenario) error {
	if s == nil {
		return fmt.Errorf("%w: nil scenario", ErrInvalidScenario)
	}

	def, err := scenarioDefinition()
	if err != nil {
		return err
	}

	cueMu.Lock()
	defer cueMu.Unlock()
	value := def.Unify(def.Context().Encode(s.toValue()))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidScenario, formatCUEError(err))
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line per problem.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// ParseScenario decodes and validates a scenario from YAML.
// Unknown fields are rejected to catch typos like "mutation:" vs "mutate:".
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scenario.Path = path
	return scenario, nil
}

// FindScenarioFiles returns the YAML files under dir, sorted.
// A non-empty filter is matched (filepath.Match) against the file name
// without its extension.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// LoadScenarios loads every scenario under dir that matches filter.
// Scenario names must be unique.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	files, err := FindScenarioFiles(dir, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(files))
	scenarios := make([]*Scenario, 0, len(files))
	for _, file := range files {
		scenario, err := LoadScenario(file)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[scenario.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate name %q in %s and %s", ErrInvalidScenario, scenario.Name, prev, file)
		}
		seen[scenario.Name] = file
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}
