package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("invalid scenario")

//go:embed scenario.schema.json
var schemaJSON []byte

const schemaURL = "scenario.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func scenarioSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Load reads and validates one scenario file. A scenario without a name is
// named after the file.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	out := make([]*Scenario, 0, len(names))
	for _, n := range names {
		sc, err := Load(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Parse validates a YAML document against the scenario schema and decodes
// it on top of Default.
func Parse(b []byte) (*Scenario, error) {
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}
	sc := Default()
	if err := yaml.Unmarshal(b, sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.check(); err != nil {
		return nil, err
	}
	return sc, nil
}

// validate runs the schema over the document. The YAML tree is re-encoded
// as JSON first so the validator sees JSON numbers and string-keyed objects.
func validate(raw any) error {
	s, err := scenarioSchema()
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidScenario)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return nil
}

// check covers what the schema cannot express: coordinates against the
// grid size and a population that fits.
func (s *Scenario) check() error {
	in := func(what string, p Point) error {
		if p[0] >= s.Grid.Width || p[1] >= s.Grid.Height {
			return fmt.Errorf("%w: %s %v outside %dx%d grid", ErrInvalidScenario, what, p, s.Grid.Width, s.Grid.Height)
		}
		return nil
	}
	if err := in("exit", s.Exit); err != nil {
		return err
	}
	for _, w := range s.Walls {
		if err := in("wall", w); err != nil {
			return err
		}
	}
	for _, r := range s.WallRects {
		if err := in("wall_rect corner", Point{r.X0, r.Y0}); err != nil {
			return err
		}
		if err := in("wall_rect corner", Point{r.X1, r.Y1}); err != nil {
			return err
		}
	}
	for _, a := range s.Agents {
		if err := in("agent", a); err != nil {
			return err
		}
	}
	if n := len(s.Agents) + s.RandomAgents; n > s.Grid.Width*s.Grid.Height {
		return fmt.Errorf("%w: %d agents do not fit a %dx%d grid", ErrInvalidScenario, n, s.Grid.Width, s.Grid.Height)
	}
	return nil
}
