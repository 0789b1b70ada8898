package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaDocument string

const schemaURL = "fmnorm://taxonomy.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func fileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaDocument)); err != nil {
			schemaErr = fmt.Errorf("taxonomy: load schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Violation is one schema failure inside a taxonomy file. Field uses YAML
// style paths such as rules[2].keyword; the document root is ".".
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// SchemaError lists every violation found in a taxonomy file.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Violations returns the schema violations carried by err, if any.
func Violations(err error) []Violation {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr.Violations
	}
	return nil
}

// checkSchema validates the generic YAML decoding of a taxonomy file.
func checkSchema(raw any) error {
	compiled, err := fileSchema()
	if err != nil {
		return err
	}
	err = compiled.Validate(raw)
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return err
	}

	out := &SchemaError{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			out.Violations = append(out.Violations, Violation{
				Field:   yamlPath(node.InstanceLocation),
				Message: node.Message,
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return out
}

// yamlPath turns a JSON pointer like /rules/2/keyword into rules[2].keyword.
func yamlPath(pointer string) string {
	var b strings.Builder
	for _, part := range strings.Split(strings.Trim(pointer, "/"), "/") {
		switch {
		case part == "":
		case isIndex(part):
			b.WriteString("[" + part + "]")
		default:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			part = strings.NewReplacer("~1", "/", "~0", "~").Replace(part)
			b.WriteString(part)
		}
	}
	if b.Len() == 0 {
		return "."
	}
	return b.String()
}

func isIndex(part string) bool {
	for _, r := range part {
		if r < '0' || r > '9' {
			return false
		}
	}
	return part != ""
}
