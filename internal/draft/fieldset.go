package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FieldSet is a map-backed Form. The CLI keeps one per project as a JSON
// field file standing in for the browser's form.
type FieldSet struct {
	values map[string]any
}

// NewFieldSet returns an empty FieldSet.
func NewFieldSet() *FieldSet {
	return &FieldSet{values: make(map[string]any)}
}

// LoadFieldSet reads a field file. A missing file yields an empty set.
func LoadFieldSet(path string) (*FieldSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewFieldSet(), nil
		}
		return nil, fmt.Errorf("read field file: %w", err)
	}
	set := NewFieldSet()
	if err := json.Unmarshal(data, &set.values); err != nil {
		return nil, fmt.Errorf("parse field file %s: %w", path, err)
	}
	if set.values == nil {
		set.values = make(map[string]any)
	}
	return set, nil
}

// Save writes the field file atomically.
func (f *FieldSet) Save(path string) error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode field file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create field file directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write field file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace field file: %w", err)
	}
	return nil
}

func (f *FieldSet) Text(name string) (string, bool) {
	v, ok := f.values[name].(string)
	return v, ok
}

func (f *FieldSet) Flag(name string) (bool, bool) {
	v, ok := f.values[name].(bool)
	return v, ok
}

func (f *FieldSet) SetText(name, value string) {
	f.values[name] = value
}

func (f *FieldSet) SetFlag(name string, value bool) {
	f.values[name] = value
}

// Names returns the field names present, sorted.
func (f *FieldSet) Names() []string {
	names := make([]string, 0, len(f.values))
	for name := range f.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
