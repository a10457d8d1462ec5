package resource

// Resource describes one content collection in the configuration:
// its table, filterable fields, search fields, default sort order,
// cross-references and validation rules.
type Resource struct {
	Name           string                `yaml:"-"` // logical name, taken from the file name
	Table          string                `yaml:"table"`
	PublishDefault bool                  `yaml:"publish_default"` // isPublished when the client omits it
	ViewCounted    bool                  `yaml:"view_counted"`    // detail fetch increments views
	Downloads      bool                  `yaml:"downloads"`       // collection carries a download counter
	Filters        map[string]FilterKind `yaml:"filters"`
	Search         []string              `yaml:"search"` // document fields behind the fts vector
	Sort           []SortKey             `yaml:"sort"`
	Refs           map[string]*RefSpec   `yaml:"refs"`
	Fields         map[string]*FieldRule `yaml:"fields"`
}

// FilterKind selects how a query parameter compiles into SQL.
type FilterKind string

const (
	FilterExact     FilterKind = "exact"
	FilterSubstring FilterKind = "substring"
)

// SortKey is one member of a collection's default ORDER BY. Either a
// promoted column name or a raw SQL expression over the document.
type SortKey struct {
	Column string `yaml:"column"`
	Expr   string `yaml:"expr"`
	Desc   bool   `yaml:"desc"`
}

// RefSpec describes a cross-reference field: a list of ids into another
// collection, expanded on detail fetch to a shallow projection.
type RefSpec struct {
	Resource string   `yaml:"resource"`
	Fields   []string `yaml:"fields"`

	// runtime link, set by the registry after all resources are loaded
	_ResourceRef *Resource `yaml:"-"`
}

func (r *RefSpec) GetResourceRef() *Resource {
	return r._ResourceRef
}

func (r *RefSpec) SetResourceRef(res *Resource) {
	r._ResourceRef = res
}

// FieldRule is the declarative validation rule for one document field.
type FieldRule struct {
	Type      string   `yaml:"type"` // "string", "bool", "number", "array"
	Required  bool     `yaml:"required"`
	Enum      []string `yaml:"enum"`
	Max       int      `yaml:"max"`       // max string length, 0 = unbounded
	Uppercase bool     `yaml:"uppercase"` // normalize to upper case before persisting
	Default   any      `yaml:"default"`   // injected on create when the field is absent
}

func (r *Resource) GetFieldRule(name string) *FieldRule {
	if r == nil || r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}
