package taxonomy

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrTaxonomyRead    = errors.New("taxonomy: read file")
	ErrTaxonomyDecode  = errors.New("taxonomy: decode file")
	ErrTaxonomyInvalid = errors.New("taxonomy: file does not match schema")
)

// Load reads a YAML taxonomy file, checks it against the embedded schema and
// decodes it. Missing defaults fall back to the built-in ones.
func Load(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("%w %s: %v", ErrTaxonomyRead, path, err)
	}
	return Parse(data)
}

// Parse decodes taxonomy YAML already held in memory.
func Parse(data []byte) (Taxonomy, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Taxonomy{}, fmt.Errorf("%w: %v", ErrTaxonomyDecode, err)
	}

	if err := checkSchema(raw); err != nil {
		return Taxonomy{}, fmt.Errorf("%w: %w", ErrTaxonomyInvalid, err)
	}

	var tax Taxonomy
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&tax); err != nil {
		return Taxonomy{}, fmt.Errorf("%w: %v", ErrTaxonomyDecode, err)
	}

	if tax.DefaultCategory == "" {
		tax.DefaultCategory = DefaultCategory
	}
	if tax.DefaultTag == "" {
		tax.DefaultTag = DefaultTag
	}
	mode, err := ParseMatchMode(string(tax.Match))
	if err != nil {
		return Taxonomy{}, err
	}
	tax.Match = mode

	if err := tax.Validate(); err != nil {
		return Taxonomy{}, err
	}
	return tax, nil
}
