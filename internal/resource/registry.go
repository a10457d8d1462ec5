package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var Registry = map[string]*Resource{}

// InitRegistry loads every *.yml descriptor from dir, validates it and
// links cross-reference targets.
func InitRegistry(dir string) error {
	if err := loadResourcesFromDir(dir); err != nil {
		return fmt.Errorf("load error: %w", err)
	}
	if err := linkRefs(); err != nil {
		return fmt.Errorf("link error: %w", err)
	}
	if err := validateAll(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func Get(name string) *Resource {
	return Registry[name]
}

func loadResourcesFromDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	loaded := map[string]*Resource{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		res := &Resource{}
		if err := yaml.Unmarshal(raw, res); err != nil {
			return fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		res.Name = strings.TrimSuffix(e.Name(), ext)
		loaded[res.Name] = res
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no resource descriptors found in %s", dir)
	}
	Registry = loaded
	return nil
}

func linkRefs() error {
	for name, res := range Registry {
		for field, ref := range res.Refs {
			target, ok := Registry[ref.Resource]
			if !ok {
				return fmt.Errorf("resource %q: ref field %q points to unknown resource %q", name, field, ref.Resource)
			}
			ref.SetResourceRef(target)
		}
	}
	return nil
}

// identRe guards every name that ends up inside a SQL expression.
var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func validateAll() error {
	for name, res := range Registry {
		if err := res.validate(); err != nil {
			return fmt.Errorf("resource %q: %w", name, err)
		}
	}
	return nil
}

func (r *Resource) validate() error {
	if r.Table == "" {
		return fmt.Errorf("missing table")
	}
	if !identRe.MatchString(r.Table) {
		return fmt.Errorf("invalid table name %q", r.Table)
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("no fields declared")
	}
	for field, rule := range r.Fields {
		if !identRe.MatchString(field) {
			return fmt.Errorf("invalid field name %q", field)
		}
		switch rule.Type {
		case "string", "bool", "number", "array":
		default:
			return fmt.Errorf("field %q: unknown type %q", field, rule.Type)
		}
		if len(rule.Enum) > 0 && rule.Type != "string" {
			return fmt.Errorf("field %q: enum only applies to string fields", field)
		}
	}
	for param, kind := range r.Filters {
		if !identRe.MatchString(param) {
			return fmt.Errorf("invalid filter name %q", param)
		}
		if kind != FilterExact && kind != FilterSubstring {
			return fmt.Errorf("filter %q: unknown kind %q", param, kind)
		}
		if _, ok := r.Fields[param]; !ok {
			return fmt.Errorf("filter %q: no such field", param)
		}
	}
	for _, field := range r.Search {
		rule, ok := r.Fields[field]
		if !ok {
			return fmt.Errorf("search field %q: no such field", field)
		}
		if rule.Type != "string" {
			return fmt.Errorf("search field %q: must be a string field", field)
		}
	}
	if len(r.Sort) == 0 {
		return fmt.Errorf("no default sort declared")
	}
	for i, key := range r.Sort {
		if key.Column == "" && key.Expr == "" {
			return fmt.Errorf("sort key %d: column or expr required", i)
		}
		if key.Column != "" && !identRe.MatchString(key.Column) {
			return fmt.Errorf("sort key %d: invalid column %q", i, key.Column)
		}
	}
	for field, ref := range r.Refs {
		if _, ok := r.Fields[field]; !ok {
			return fmt.Errorf("ref field %q: no such field", field)
		}
		if r.Fields[field].Type != "array" {
			return fmt.Errorf("ref field %q: must be an array field", field)
		}
		for _, projected := range ref.Fields {
			if !identRe.MatchString(projected) {
				return fmt.Errorf("ref field %q: invalid projection field %q", field, projected)
			}
		}
	}
	return nil
}
