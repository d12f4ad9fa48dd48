// Package schema declares the record schema contract used by readers and
// writers, and provides Definition, a YAML-backed implementation.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/record"
	"github.com/reoring/recjson/transform"
	"github.com/reoring/recjson/value"
)

// Field is a classified destination field.
type Field = transform.Field

// Schema classifies records into field lists and supplies the operation
// batches run around them.
type Schema interface {
	// Classify returns the ordered fields that apply to r.
	Classify(r *record.Record) ([]Field, error)
	BeforeOperations() []transform.Operation
	AfterOperations() []transform.Operation
	BeforeFirstOperations() []transform.Operation
	AfterLastOperations() []transform.Operation
	// Format returns format attributes declared by the schema, such as "pretty".
	Format() map[string]string
}

type field struct {
	name string
	typ  DataType
	ops  []transform.Operation
}

// NewField returns a Field of type typ.
func NewField(name string, typ DataType, ops ...transform.Operation) Field {
	return &field{name: name, typ: typ, ops: ops}
}

func (f *field) Name() string { return f.name }

func (f *field) Operations() []transform.Operation { return f.ops }

// Type returns the declared type.
func (f *field) Type() DataType { return f.typ }

func (f *field) Coerce(v value.Value) (value.Value, error) {
	out, err := f.typ.Coerce(v)
	if err != nil {
		var re *rerrors.Error
		if errors.As(err, &re) && re.Path == "" {
			c := *re
			c.Path = f.name
			return nil, &c
		}
		return nil, err
	}
	return out, nil
}

type rule struct {
	field string
	re    *regexp.Regexp
}

// FieldList is an ordered set of fields selected when all classifier rules match.
type FieldList struct {
	Name   string
	rules  []rule
	fields []Field
}

// Classified reports whether the list carries classifier rules.
func (l *FieldList) Classified() bool { return len(l.rules) > 0 }

// Fields returns the fields in declaration order.
func (l *FieldList) Fields() []Field { return l.fields }

func (l *FieldList) matches(r *record.Record) bool {
	for _, ru := range l.rules {
		v, ok := r.Lookup(ru.field)
		if !ok {
			return false
		}
		s, ok := value.ScalarText(v)
		if !ok || !ru.re.MatchString(s) {
			return false
		}
	}
	return true
}

// Definition is a Schema built from field lists and operation batches.
type Definition struct {
	format      map[string]string
	before      []transform.Operation
	after       []transform.Operation
	beforeFirst []transform.Operation
	afterLast   []transform.Operation
	lists       []*FieldList
}

// New returns a Definition with a single unclassified field list.
func New(fields ...Field) *Definition {
	d := &Definition{format: map[string]string{}}
	if len(fields) > 0 {
		d.lists = append(d.lists, &FieldList{Name: "default", fields: fields})
	}
	return d
}

// AddFieldList appends a field list. classifier maps field names to regular
// expressions that the field's scalar text must match; nil means unclassified.
func (d *Definition) AddFieldList(name string, classifier map[string]string, fields ...Field) error {
	l := &FieldList{Name: name, fields: fields}
	for _, k := range sortedKeys(classifier) {
		re, err := regexp.Compile(classifier[k])
		if err != nil {
			return rerrors.NewSchemaError(fmt.Sprintf("field list %q: classifier for %q", name, k), err)
		}
		l.rules = append(l.rules, rule{field: k, re: re})
	}
	d.lists = append(d.lists, l)
	return nil
}

// WithBefore sets operations run before every field's own operations.
func (d *Definition) WithBefore(ops ...transform.Operation) *Definition {
	d.before = ops
	return d
}

// WithAfter sets operations run after every field's own operations.
func (d *Definition) WithAfter(ops ...transform.Operation) *Definition {
	d.after = ops
	return d
}

// WithBeforeFirst sets operations run once before the first record.
func (d *Definition) WithBeforeFirst(ops ...transform.Operation) *Definition {
	d.beforeFirst = ops
	return d
}

// WithAfterLast sets operations run once after the last record.
func (d *Definition) WithAfterLast(ops ...transform.Operation) *Definition {
	d.afterLast = ops
	return d
}

// WithFormat sets a format attribute.
func (d *Definition) WithFormat(name, val string) *Definition {
	d.format[name] = val
	return d
}

// FieldLists returns the field lists in declaration order.
func (d *Definition) FieldLists() []*FieldList { return d.lists }

// Classify returns the fields of the first classified list whose rules all
// match r, falling back to the first unclassified list.
func (d *Definition) Classify(r *record.Record) ([]Field, error) {
	var fallback *FieldList
	for _, l := range d.lists {
		if !l.Classified() {
			if fallback == nil {
				fallback = l
			}
			continue
		}
		if l.matches(r) {
			return l.fields, nil
		}
	}
	if fallback != nil {
		return fallback.fields, nil
	}
	return nil, rerrors.NewSchemaError(fmt.Sprintf("no field list matches record with keys %v", r.Keys()), nil)
}

func (d *Definition) BeforeOperations() []transform.Operation      { return d.before }
func (d *Definition) AfterOperations() []transform.Operation       { return d.after }
func (d *Definition) BeforeFirstOperations() []transform.Operation { return d.beforeFirst }
func (d *Definition) AfterLastOperations() []transform.Operation   { return d.afterLast }

// Format returns a copy of the format attributes.
func (d *Definition) Format() map[string]string {
	out := make(map[string]string, len(d.format))
	for k, v := range d.format {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
