package spec

// Normalized document model consumed by the generators.
//
// SchemaNode is a closed tagged variant: every downstream consumer switches
// over Kind instead of probing optional fields on the raw parsed tree.

// Kind tags the shape of one schema fragment.
type Kind int

const (
	KindAny Kind = iota // unconstrained/empty schema
	KindRef
	KindEnum
	KindConst
	KindPrimitive
	KindArray
	KindObject
	KindAllOf
	KindOneOf
	KindAnyOf
)

func (k Kind) String() string {
	switch k {
	case KindRef:
		return "ref"
	case KindEnum:
		return "enum"
	case KindConst:
		return "const"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindAllOf:
		return "allOf"
	case KindOneOf:
		return "oneOf"
	case KindAnyOf:
		return "anyOf"
	default:
		return "any"
	}
}

// SchemaNode is one OpenAPI schema fragment. Which fields are meaningful
// depends on Kind.
type SchemaNode struct {
	Kind Kind

	// KindRef: bare schema name the $ref points to (already resolved from
	// "#/components/schemas/Name" form).
	Ref string

	// KindEnum / KindConst.
	Enum  []any
	Const any

	// KindPrimitive.
	Type   string // string|number|integer|boolean
	Format string

	// KindArray.
	Items *SchemaNode

	// KindObject. Properties keeps a stable (sorted) order.
	Properties           []Property
	Required             map[string]bool
	AdditionalProperties *bool

	// Compositions (KindAllOf/KindOneOf/KindAnyOf).
	Branches []*SchemaNode
	// Discriminator is the declared discriminator propertyName, if any.
	Discriminator string

	// Nullable is tri-state: nil means the document did not annotate the
	// fragment at all, which matters for the defaultNullable policy.
	Nullable *bool

	Description string
	ReadOnly    bool
	WriteOnly   bool

	// Validation constraints. Pointers distinguish absent from zero.
	MinLength    *uint64
	MaxLength    *uint64
	Pattern      string
	Minimum      *float64
	Maximum      *float64
	ExclusiveMin bool
	ExclusiveMax bool
	MinItems     *uint64
	MaxItems     *uint64
}

// HasConstraints reports whether the node carries any validation constraint
// beyond its base type. Used for generation statistics.
func (n *SchemaNode) HasConstraints() bool {
	return n.MinLength != nil || n.MaxLength != nil || n.Pattern != "" ||
		n.Minimum != nil || n.Maximum != nil || n.MinItems != nil || n.MaxItems != nil ||
		(n.Kind == KindPrimitive && n.Format != "")
}

// Property is one named member of an object schema.
type Property struct {
	Name   string
	Schema *SchemaNode
}

// Parameter is one operation parameter (query, header, path, or cookie).
type Parameter struct {
	Name     string
	In       string
	Required bool
	Schema   *SchemaNode
}

// Media pairs a MIME type with its schema.
type Media struct {
	MIME   string
	Schema *SchemaNode
}

// Operation is one path+method entry from the spec's path table.
type Operation struct {
	ID         string // operationId; may be empty
	Method     string
	Path       string
	Tags       []string
	Deprecated bool
	Parameters []Parameter
	// RequestBody holds the request content variants, sorted by MIME type.
	RequestBody []Media
	// Responses holds every status code's content variants, sorted by
	// status then MIME type.
	Responses []Media
}

// Document is the normalized, immutable input to one generation run.
type Document struct {
	// SchemaNames lists components.schemas keys in sorted order; Schemas is
	// the corresponding lookup table. Iterating SchemaNames keeps every pass
	// deterministic.
	SchemaNames []string
	Schemas     map[string]*SchemaNode
	Operations  []Operation
}

// Schema returns the named component schema, or nil.
func (d *Document) Schema(name string) *SchemaNode {
	if d == nil || d.Schemas == nil {
		return nil
	}
	return d.Schemas[name]
}
