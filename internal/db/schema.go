package db

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identRegex = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)

// FieldKind is the FT type of an indexed hash field.
type FieldKind string

// Supported field kinds.
const (
	KindTag     FieldKind = "TAG"
	KindNumeric FieldKind = "NUMERIC"
	KindText    FieldKind = "TEXT"
)

// Field is one SCHEMA entry of an FT index.
type Field struct {
	Name     string
	Kind     FieldKind
	Sortable bool

	// TAG only.
	Separator     string
	CaseSensitive bool
}

// Schema is an FT index over the hashes stored under Prefixes.
type Schema struct {
	Name     string
	Prefixes []string
	Fields   []Field
}

// FieldOption tunes a field added through SchemaBuilder.
type FieldOption func(*Field)

// Sortable makes the field usable in SORTBY.
func Sortable() FieldOption { return func(f *Field) { f.Sortable = true } }

// Separator sets the TAG value separator (server default is a comma).
func Separator(sep string) FieldOption { return func(f *Field) { f.Separator = sep } }

// CaseSensitive keeps TAG values as written instead of lowercasing them.
func CaseSensitive() FieldOption { return func(f *Field) { f.CaseSensitive = true } }

// SchemaBuilder assembles a Schema field by field.
type SchemaBuilder struct {
	schema Schema
}

// NewSchema starts a schema for the named index over the given key prefixes.
func NewSchema(name string, prefixes ...string) *SchemaBuilder {
	return &SchemaBuilder{schema: Schema{Name: name, Prefixes: prefixes}}
}

// Tag adds a TAG field.
func (b *SchemaBuilder) Tag(name string, opts ...FieldOption) *SchemaBuilder {
	return b.add(KindTag, name, opts)
}

// Numeric adds a NUMERIC field.
func (b *SchemaBuilder) Numeric(name string, opts ...FieldOption) *SchemaBuilder {
	return b.add(KindNumeric, name, opts)
}

// Text adds a TEXT field.
func (b *SchemaBuilder) Text(name string, opts ...FieldOption) *SchemaBuilder {
	return b.add(KindText, name, opts)
}

func (b *SchemaBuilder) add(kind FieldKind, name string, opts []FieldOption) *SchemaBuilder {
	f := Field{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(&f)
	}
	b.schema.Fields = append(b.schema.Fields, f)
	return b
}

// Build validates and returns the schema.
func (b *SchemaBuilder) Build() (*Schema, error) {
	s := b.schema
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the index name and that every field is well-formed and unique.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(s.Name) {
		return fmt.Errorf("index name %q contains invalid characters", s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("index %s has no fields", s.Name)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field %s", f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Kind {
		case KindTag:
		case KindNumeric, KindText:
			if f.Separator != "" || f.CaseSensitive {
				return fmt.Errorf("field %s: tag options on a %s field", f.Name, f.Kind)
			}
		default:
			return fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
		}
	}
	return nil
}

// Args renders the FT.CREATE arguments that follow the command name.
func (s *Schema) Args() ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	args := []string{s.Name, "ON", "HASH"}
	if len(s.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(s.Prefixes)))
		args = append(args, s.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for _, f := range s.Fields {
		args = append(args, f.Name, string(f.Kind))
		if f.Separator != "" {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
		if f.Sortable {
			args = append(args, "SORTABLE")
		}
	}
	return args, nil
}

// String renders the schema as the FT.CREATE command, for logs.
func (s *Schema) String() string {
	args, err := s.Args()
	if err != nil {
		return fmt.Sprintf("invalid schema %s: %v", s.Name, err)
	}
	return "FT.CREATE " + strings.Join(args, " ")
}

// IsValidIdentifier reports whether s is usable as an index name.
func IsValidIdentifier(s string) bool { return identRegex.MatchString(s) }
