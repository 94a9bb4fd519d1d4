package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the dataset descriptor read by YOLO trainers.
const ManifestFile = "data.yaml"

// ClassNames maps class ids to names. In data.yaml it may be written either
// as a sequence or as an id-keyed mapping.
type ClassNames map[int]string

// UnmarshalYAML accepts both `names: [a, b]` and `names: {0: a, 1: b}`.
func (n *ClassNames) UnmarshalYAML(node *yaml.Node) error {
	names := make(ClassNames)
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		for i, name := range list {
			names[i] = name
		}
	case yaml.MappingNode:
		var byID map[int]string
		if err := node.Decode(&byID); err != nil {
			return err
		}
		for id, name := range byID {
			names[id] = name
		}
	default:
		return fmt.Errorf("names: unsupported yaml node at line %d", node.Line)
	}
	*n = names
	return nil
}

// Ordered returns the names sorted by class id.
func (n ClassNames) Ordered() []string {
	ids := make([]int, 0, len(n))
	for id := range n {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, n[id])
	}
	return out
}

// Manifest is the subset of data.yaml the curator reads.
type Manifest struct {
	Path  string     `yaml:"path,omitempty"`
	Train string     `yaml:"train,omitempty"`
	Val   string     `yaml:"val,omitempty"`
	Test  string     `yaml:"test,omitempty"`
	NC    int        `yaml:"nc"`
	Names ClassNames `yaml:"names"`
}

// Validate checks that nc agrees with the number of names.
func (m *Manifest) Validate() error {
	if m.NC != len(m.Names) {
		return fmt.Errorf("manifest declares nc=%d but lists %d names", m.NC, len(m.Names))
	}
	return nil
}

// ClassName resolves a class id using the manifest names.
func (m *Manifest) ClassName(id int) (string, bool) {
	name, ok := m.Names[id]
	return name, ok
}

// ReadManifest parses <root>/data.yaml. It returns nil, nil when the file does
// not exist.
func ReadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ManifestFile, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// WriteManifest writes a data.yaml for the given vocabulary with the
// standard split directories.
func WriteManifest(root string, vocabulary []string) error {
	names := make(ClassNames, len(vocabulary))
	for i, name := range vocabulary {
		names[i] = name
	}

	m := struct {
		Path  string   `yaml:"path"`
		Train string   `yaml:"train"`
		Val   string   `yaml:"val"`
		Test  string   `yaml:"test"`
		NC    int      `yaml:"nc"`
		Names []string `yaml:"names"`
	}{
		Path:  root,
		Train: "images/train",
		Val:   "images/val",
		Test:  "images/test",
		NC:    len(vocabulary),
		Names: names.Ordered(),
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(root, ManifestFile), data, 0644)
}
