package query

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var defaultDictionary []byte

// Entry maps a canonical term to its variants.
type Entry struct {
	Term     string   `yaml:"term"`
	Variants []string `yaml:"variants"`
}

// Dictionary holds the typo and synonym tables used for query expansion.
// Entry order is preserved so expansion is deterministic.
type Dictionary struct {
	Typos    []Entry `yaml:"typos"`
	Synonyms []Entry `yaml:"synonyms"`
}

// DefaultDictionary returns the built-in dictionary.
func DefaultDictionary() *Dictionary {
	d, err := ParseDictionary(defaultDictionary)
	if err != nil {
		panic(fmt.Sprintf("query: invalid embedded dictionary: %v", err))
	}
	return d
}

// LoadDictionary reads a dictionary from a YAML file.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	d, err := ParseDictionary(data)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	return d, nil
}

// ParseDictionary decodes and normalizes a YAML dictionary.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	if err := normalizeEntries("typos", d.Typos); err != nil {
		return nil, err
	}
	if err := normalizeEntries("synonyms", d.Synonyms); err != nil {
		return nil, err
	}
	return &d, nil
}

func normalizeEntries(table string, entries []Entry) error {
	for i := range entries {
		e := &entries[i]
		e.Term = normalize(e.Term)
		if e.Term == "" {
			return fmt.Errorf("%s entry %d: empty term", table, i)
		}
		variants := e.Variants[:0]
		for _, v := range e.Variants {
			if v = normalize(v); v != "" {
				variants = append(variants, v)
			}
		}
		e.Variants = variants
	}
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
