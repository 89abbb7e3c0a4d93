package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing/fstest"

	"gopkg.in/yaml.v3"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/corpus"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// BuiltinCorpus selects the corpus shipped with edgy.
const BuiltinCorpus = "builtin"

// DefaultRunID is used when a scenario does not pin its own run ID.
const DefaultRunID = "scenario-run"

// Scenario defines an analysis test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Corpus is a corpus path, "builtin" (the default), or an inline
	// document with rules and flows.
	Corpus CorpusSource `yaml:"corpus,omitempty"`

	// Screens is a screens file path or an inline list of screens.
	Screens ScreenSource `yaml:"screens"`

	// FlowTypes, when set, replaces flow type detection.
	FlowTypes []FlowTypeBinding `yaml:"flow_types,omitempty"`

	// RunID pins the report's run ID. Defaults to DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the report.
	Assertions []Assertion `yaml:"assertions"`

	baseDir string
}

// FlowTypeBinding assigns a flow type to a flow group prefix.
type FlowTypeBinding struct {
	Prefix   string `yaml:"prefix"`
	FlowType string `yaml:"flow_type"`
}

// CorpusSource is either a path or an inline corpus document.
type CorpusSource struct {
	Path   string
	Inline []byte
}

// UnmarshalYAML accepts a scalar path or a mapping holding a document.
func (c *CorpusSource) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&c.Path)
	case yaml.MappingNode:
		data, err := yaml.Marshal(node)
		if err != nil {
			return err
		}
		c.Inline = data
		return nil
	default:
		return fmt.Errorf("line %d: corpus must be a path or an inline document", node.Line)
	}
}

// IsZero reports whether no corpus was given.
func (c CorpusSource) IsZero() bool {
	return c.Path == "" && len(c.Inline) == 0
}

// ScreenSource is either a path or inline screens.
type ScreenSource struct {
	Path   string
	Inline []ir.Screen
}

// UnmarshalYAML accepts a scalar path or a sequence of screens. Inline
// screens use the same field names as the JSON screens format.
func (s *ScreenSource) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.Path)
	case yaml.SequenceNode:
		var generic []any
		if err := node.Decode(&generic); err != nil {
			return err
		}
		data, err := json.Marshal(generic)
		if err != nil {
			return fmt.Errorf("line %d: screens: %w", node.Line, err)
		}
		screens, err := analysis.DecodeScreens(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		if screens == nil {
			screens = []ir.Screen{}
		}
		s.Inline = screens
		return nil
	default:
		return fmt.Errorf("line %d: screens must be a path or a list", node.Line)
	}
}

// IsZero reports whether no screens were given.
func (s ScreenSource) IsZero() bool {
	return s.Path == "" && s.Inline == nil
}

// Assertion validates one property of the report.
type Assertion struct {
	// Type selects the check; see the package documentation.
	Type string `yaml:"type"`

	// Finding filters.
	Rule     string `yaml:"rule,omitempty"`
	Category string `yaml:"category,omitempty"`
	Screen   string `yaml:"screen,omitempty"`
	Severity string `yaml:"severity,omitempty"`

	// Pattern is the pattern type (pattern_detected).
	Pattern string `yaml:"pattern,omitempty"`

	// FlowType filters missing screens and names detected flows.
	FlowType string `yaml:"flow_type,omitempty"`

	// ExpectedScreen is the expected screen ID (missing_screen).
	ExpectedScreen string `yaml:"expected_screen,omitempty"`

	// Count is the exact number expected by the *_count assertions.
	Count *int `yaml:"count,omitempty"`

	// Min is the minimum number of patterns (pattern_detected, default 1).
	Min int `yaml:"min,omitempty"`
}

// Assertion type constants.
const (
	AssertFindingCount       = "finding_count"
	AssertFindingPresent     = "finding_present"
	AssertNoFindings         = "no_findings"
	AssertMissingScreen      = "missing_screen"
	AssertMissingScreenCount = "missing_screen_count"
	AssertPatternDetected    = "pattern_detected"
	AssertFlowDetected       = "flow_detected"
	AssertWarningCount       = "warning_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.baseDir = filepath.Dir(path)

	if err := checkPaths(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative paths resolve against the
// working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// resolve makes p relative to the scenario file.
func (s *Scenario) resolve(p string) string {
	if filepath.IsAbs(p) || s.baseDir == "" {
		return p
	}
	return filepath.Join(s.baseDir, p)
}

// LoadCorpus loads the scenario's rule corpus.
func (s *Scenario) LoadCorpus() (*corpus.Corpus, error) {
	if len(s.Corpus.Inline) > 0 {
		fsys := fstest.MapFS{"scenario.yaml": &fstest.MapFile{Data: s.Corpus.Inline}}
		c, errs := corpus.LoadFS(fsys, s.Name, corpus.LoadModeFailFast)
		if len(errs) > 0 {
			return nil, errs[0]
		}
		return c, nil
	}
	if s.Corpus.Path == "" || s.Corpus.Path == BuiltinCorpus {
		return corpus.Builtin()
	}
	c, errs := corpus.Load(s.resolve(s.Corpus.Path), corpus.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return c, nil
}

// LoadScreens returns the scenario's screens.
func (s *Scenario) LoadScreens() ([]ir.Screen, error) {
	if s.Screens.Inline != nil {
		return s.Screens.Inline, nil
	}
	return analysis.LoadScreens(s.resolve(s.Screens.Path))
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Screens.IsZero() {
		return fmt.Errorf("screens is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, b := range s.FlowTypes {
		if b.Prefix == "" || b.FlowType == "" {
			return fmt.Errorf("flow_types[%d]: prefix and flow_type are required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// checkPaths verifies referenced files exist once the base directory is known.
func checkPaths(s *Scenario) error {
	if s.Screens.Path != "" {
		if _, err := os.Stat(s.resolve(s.Screens.Path)); os.IsNotExist(err) {
			return fmt.Errorf("screens file not found: %s", s.Screens.Path)
		}
	}
	if p := s.Corpus.Path; p != "" && p != BuiltinCorpus {
		if _, err := os.Stat(s.resolve(p)); os.IsNotExist(err) {
			return fmt.Errorf("corpus not found: %s", p)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Severity != "" && !ir.ValidSeverities[ir.Severity(a.Severity)] {
		return fmt.Errorf("assertions[%d]: unknown severity %q", index, a.Severity)
	}
	if a.Count != nil && *a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertFindingCount, AssertMissingScreenCount, AssertWarningCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	case AssertFindingPresent:
		if a.Rule == "" && a.Category == "" && a.Screen == "" && a.Severity == "" {
			return fmt.Errorf("assertions[%d]: finding_present needs at least one of rule, category, screen, severity", index)
		}
	case AssertNoFindings:
	case AssertMissingScreen:
		if a.ExpectedScreen == "" {
			return fmt.Errorf("assertions[%d]: expected_screen is required for missing_screen", index)
		}
	case AssertPatternDetected:
		if a.Screen == "" || a.Pattern == "" {
			return fmt.Errorf("assertions[%d]: screen and pattern are required for pattern_detected", index)
		}
		if a.Min < 0 {
			return fmt.Errorf("assertions[%d]: min must be non-negative", index)
		}
	case AssertFlowDetected:
		if a.FlowType == "" {
			return fmt.Errorf("assertions[%d]: flow_type is required for flow_detected", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
