package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/transform"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

type document struct {
	Format      map[string]string `yaml:"format"`
	Before      []opSpec          `yaml:"before"`
	After       []opSpec          `yaml:"after"`
	BeforeFirst []opSpec          `yaml:"beforeFirst"`
	AfterLast   []opSpec          `yaml:"afterLast"`
	Fields      []fieldSpec       `yaml:"fields"`
	FieldLists  []fieldListSpec   `yaml:"fieldLists"`
}

type fieldListSpec struct {
	Name       string            `yaml:"name"`
	Classifier map[string]string `yaml:"classifier"`
	Fields     []fieldSpec       `yaml:"fields"`
}

type fieldSpec struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Operations []opSpec `yaml:"operations"`
}

// opSpec is either a bare operation name or a mapping with an "op" key and
// scalar parameters.
type opSpec struct {
	Name   string
	Params transform.Params
	line   int
}

func (o *opSpec) UnmarshalYAML(n *yaml.Node) error {
	o.line = n.Line
	switch n.Kind {
	case yaml.ScalarNode:
		o.Name = n.Value
		return nil
	case yaml.MappingNode:
		o.Params = transform.Params{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: operation parameter %q must be a scalar", v.Line, k.Value)
			}
			if k.Value == "op" {
				o.Name = v.Value
				continue
			}
			o.Params[k.Value] = v.Value
		}
		if o.Name == "" {
			return fmt.Errorf("line %d: operation mapping needs an \"op\" key", n.Line)
		}
		return nil
	}
	return fmt.Errorf("line %d: operation must be a name or a mapping", n.Line)
}

// Load reads a schema Definition from YAML, resolving operations against
// catalog (transform.Builtins() when nil). Duplicate mapping keys are rejected.
func Load(r io.Reader, catalog *transform.Catalog) (*Definition, error) {
	if catalog == nil {
		catalog = transform.Builtins()
	}
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, rerrors.NewSchemaError("empty schema document", nil)
		}
		return nil, rerrors.NewSchemaError("invalid schema YAML", err)
	}
	if err := checkDuplicateKeys(&root); err != nil {
		return nil, rerrors.NewSchemaError("invalid schema YAML", err)
	}
	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, rerrors.NewSchemaError("invalid schema YAML", err)
	}
	return doc.build(catalog)
}

// LoadBytes is Load over an in-memory document.
func LoadBytes(b []byte, catalog *transform.Catalog) (*Definition, error) {
	return Load(bytes.NewReader(b), catalog)
}

// LoadFile reads a schema Definition from the YAML file at path.
func LoadFile(path string, catalog *transform.Catalog) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rerrors.NewSchemaError("open schema", err)
	}
	defer f.Close()
	return Load(f, catalog)
}

func (doc *document) build(catalog *transform.Catalog) (*Definition, error) {
	d := New()
	for k, v := range doc.Format {
		d.format[k] = v
	}
	var err error
	if d.before, err = resolveOps(catalog, doc.Before); err != nil {
		return nil, err
	}
	if d.after, err = resolveOps(catalog, doc.After); err != nil {
		return nil, err
	}
	if d.beforeFirst, err = resolveOps(catalog, doc.BeforeFirst); err != nil {
		return nil, err
	}
	if d.afterLast, err = resolveOps(catalog, doc.AfterLast); err != nil {
		return nil, err
	}

	lists := doc.FieldLists
	if len(doc.Fields) > 0 {
		lists = append([]fieldListSpec{{Name: "default", Fields: doc.Fields}}, lists...)
	}
	if len(lists) == 0 {
		return nil, rerrors.NewSchemaError("schema declares no fields", nil)
	}
	for i, ls := range lists {
		name := ls.Name
		if name == "" {
			name = fmt.Sprintf("list%d", i+1)
		}
		if len(ls.Fields) == 0 {
			return nil, rerrors.NewSchemaError(fmt.Sprintf("field list %q declares no fields", name), nil)
		}
		fields := make([]Field, 0, len(ls.Fields))
		seen := map[string]struct{}{}
		for _, fs := range ls.Fields {
			if fs.Name == "" {
				return nil, rerrors.NewSchemaError(fmt.Sprintf("field list %q: field without a name", name), nil)
			}
			if _, dup := seen[fs.Name]; dup {
				return nil, rerrors.NewSchemaError(fmt.Sprintf("field list %q: field %q declared twice", name, fs.Name), nil)
			}
			seen[fs.Name] = struct{}{}
			typ, err := ParseDataType(fs.Type)
			if err != nil {
				return nil, err
			}
			ops, err := resolveOps(catalog, fs.Operations)
			if err != nil {
				return nil, err
			}
			fields = append(fields, NewField(fs.Name, typ, ops...))
		}
		if err := d.AddFieldList(name, ls.Classifier, fields...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func resolveOps(catalog *transform.Catalog, specs []opSpec) ([]transform.Operation, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	ops := make([]transform.Operation, 0, len(specs))
	for _, s := range specs {
		op, err := catalog.Lookup(s.Name, s.Params)
		if err != nil {
			var re *rerrors.Error
			if errors.As(err, &re) {
				c := *re
				c.Message = fmt.Sprintf("line %d: %s", s.line, re.Message)
				return nil, &c
			}
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func checkDuplicateKeys(n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, c := range n.Content {
			if err := checkDuplicateKeys(c); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if pos, dup := first[k.Value]; dup {
				return &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			first[k.Value] = [2]int{k.Line, k.Column}
			if err := checkDuplicateKeys(n.Content[i+1]); err != nil {
				return err
			}
		}
	}
	return nil
}
