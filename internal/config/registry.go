// Package config loads the SDK registry (sdks.yaml) and the process settings.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Source types understood by the fetcher.
const (
	SourceGitHub = "github"
	SourceURL    = "url"
)

// Operation names used as keys of tools.descriptions.
const (
	OpListFiles    = "list_files"
	OpGetSource    = "get_source"
	OpSearchCode   = "search_code"
	OpGetClass     = "get_class"
	OpFindExamples = "find_examples"
)

// Operations lists the per-SDK operations in the order tools are registered.
var Operations = []string{OpListFiles, OpGetSource, OpSearchCode, OpGetClass, OpFindExamples}

var defaultFilePatterns = []string{"**/*.py"}

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SDK is one configured SDK. It is immutable once the registry is loaded.
type SDK struct {
	// ID is the key under `sdks:`; it names the storage directory.
	ID string `yaml:"-"`

	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Source Source `yaml:"source"`

	// FilePatterns and ExcludePatterns are doublestar globs relative to
	// Source.Path.
	FilePatterns    []string `yaml:"file_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`

	Tools Tools `yaml:"tools"`

	// Concepts maps a concept name to the symbol names this SDK uses for it.
	Concepts map[string][]string `yaml:"concepts"`
}

// Source locates the SDK on a remote host.
type Source struct {
	Type   string `yaml:"type"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

// Tools configures the generated tool names and descriptions.
type Tools struct {
	Prefix       string            `yaml:"prefix"`
	Descriptions map[string]string `yaml:"descriptions"`
}

// ToolDescription returns the configured description for op, or a default
// derived from the SDK name.
func (s SDK) ToolDescription(op string) string {
	if d := s.Tools.Descriptions[op]; d != "" {
		return d
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	switch op {
	case OpListFiles:
		return fmt.Sprintf("List all %s source files", name)
	case OpGetSource:
		return fmt.Sprintf("Get %s source code", name)
	case OpSearchCode:
		return fmt.Sprintf("Search %s code", name)
	case OpGetClass:
		return fmt.Sprintf("Get %s class definition", name)
	case OpFindExamples:
		return fmt.Sprintf("Find %s examples", name)
	}
	return name
}

// Fingerprint identifies what the fetcher stores for this SDK: the source
// and the file patterns. It changes when either is edited in sdks.yaml.
func (s SDK) Fingerprint() string {
	b, err := yaml.Marshal(struct {
		Source  Source   `yaml:"source"`
		Include []string `yaml:"include"`
		Exclude []string `yaml:"exclude"`
	}{s.Source, s.FilePatterns, s.ExcludePatterns})
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:16])
}

// ToolName returns "<prefix>_<op>".
func (s SDK) ToolName(op string) string {
	return s.Tools.Prefix + "_" + op
}

// Registry holds all configured SDKs in declaration order.
type Registry struct {
	order []string
	sdks  map[string]SDK
}

type registryFile struct {
	SDKs yaml.Node `yaml:"sdks"`
}

// LoadRegistry reads and validates the registry file at path.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file %s not found", path)
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// ParseRegistry decodes registry YAML. SDK order follows the document.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if f.SDKs.Kind == 0 {
		return nil, errors.New("no sdks configured")
	}
	if f.SDKs.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: sdks must be a mapping of id to sdk", f.SDKs.Line)
	}

	reg := &Registry{sdks: make(map[string]SDK)}
	for i := 0; i+1 < len(f.SDKs.Content); i += 2 {
		key, val := f.SDKs.Content[i], f.SDKs.Content[i+1]
		id := key.Value
		if _, dup := reg.sdks[id]; dup {
			return nil, fmt.Errorf("line %d: sdk %q defined twice", key.Line, id)
		}
		var sdk SDK
		if err := val.Decode(&sdk); err != nil {
			return nil, fmt.Errorf("sdk %q: %w", id, err)
		}
		sdk.ID = id
		applyDefaults(&sdk)
		reg.order = append(reg.order, id)
		reg.sdks[id] = sdk
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewRegistry builds a registry from already-constructed SDKs. Defaults are
// applied and the result is validated.
func NewRegistry(sdks ...SDK) (*Registry, error) {
	reg := &Registry{sdks: make(map[string]SDK, len(sdks))}
	for _, s := range sdks {
		if _, dup := reg.sdks[s.ID]; dup {
			return nil, fmt.Errorf("sdk %q defined twice", s.ID)
		}
		applyDefaults(&s)
		reg.order = append(reg.order, s.ID)
		reg.sdks[s.ID] = s
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func applyDefaults(s *SDK) {
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Tools.Prefix == "" {
		s.Tools.Prefix = s.ID
	}
	if s.Source.Type == SourceGitHub && s.Source.Branch == "" {
		s.Source.Branch = "main"
	}
	if len(s.FilePatterns) == 0 {
		s.FilePatterns = defaultFilePatterns
	}
}

// Validate checks every SDK and the uniqueness of tool prefixes.
func (r *Registry) Validate() error {
	if len(r.order) == 0 {
		return errors.New("no sdks configured")
	}
	var errs []error
	prefixes := make(map[string]string)
	for _, id := range r.order {
		s := r.sdks[id]
		if err := validateSDK(s); err != nil {
			errs = append(errs, fmt.Errorf("sdk %q: %w", id, err))
			continue
		}
		if other, ok := prefixes[s.Tools.Prefix]; ok {
			errs = append(errs, fmt.Errorf("sdk %q: tool prefix %q already used by %q", id, s.Tools.Prefix, other))
			continue
		}
		prefixes[s.Tools.Prefix] = id
	}
	return errors.Join(errs...)
}

func validateSDK(s SDK) error {
	if !prefixPattern.MatchString(s.ID) {
		return errors.New("id may only contain letters, digits, '_' and '-'")
	}
	if !prefixPattern.MatchString(s.Tools.Prefix) {
		return fmt.Errorf("invalid tool prefix %q", s.Tools.Prefix)
	}
	switch s.Source.Type {
	case SourceGitHub:
		if s.Source.Repo == "" {
			return errors.New("source.repo is required for github sources")
		}
	case SourceURL:
		if s.Source.URL == "" {
			return errors.New("source.url is required for url sources")
		}
	case "":
		return errors.New("source.type is required")
	default:
		return fmt.Errorf("unknown source.type %q", s.Source.Type)
	}
	for op := range s.Tools.Descriptions {
		if !isOperation(op) {
			return fmt.Errorf("tools.descriptions: unknown operation %q", op)
		}
	}
	return nil
}

func isOperation(op string) bool {
	for _, o := range Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Lookup returns the SDK with the given id.
func (r *Registry) Lookup(id string) (SDK, bool) {
	s, ok := r.sdks[id]
	return s, ok
}

// IDs returns SDK ids in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every SDK in declaration order.
func (r *Registry) All() []SDK {
	out := make([]SDK, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sdks[id])
	}
	return out
}

// Len returns the number of configured SDKs.
func (r *Registry) Len() int { return len(r.order) }
