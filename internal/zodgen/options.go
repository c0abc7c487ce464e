package zodgen

import (
	"fmt"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
)

// Mode selects the representation a generated declaration uses.
type Mode string

const (
	// ModeInferred emits full validators with z.infer'd types.
	ModeInferred Mode = "inferred"
	// ModeNative prefers native TypeScript constructs where they exist
	// (currently native enum declarations wrapped by z.nativeEnum).
	ModeNative Mode = "native"
)

// EmptyObjectPolicy controls the shape emitted for an object schema with no
// declared properties.
type EmptyObjectPolicy string

const (
	EmptyObjectStrict EmptyObjectPolicy = "strict" // no extra keys allowed
	EmptyObjectLoose  EmptyObjectPolicy = "loose"  // extra keys pass through
	EmptyObjectRecord EmptyObjectPolicy = "record" // generic string-keyed map
)

// ContextOverrides optionally overrides shared options for one usage context.
type ContextOverrides struct {
	Mode                *Mode
	Strict              *bool
	DefaultNullable     *bool
	UseDescribe         *bool
	EmptyObjectBehavior *EmptyObjectPolicy
}

// Options is the flat configuration for one generation run, as supplied by
// the CLI/config collaborator after its own validation and default merging.
type Options struct {
	// Input is the OpenAPI document path. Required.
	Input string
	// Output is the destination file for the rendered schemas. Optional;
	// when empty, Generate returns the string and Write is an error.
	Output string

	Mode                Mode
	Strict              bool
	IncludeDescriptions bool // emit JSDoc comments above declarations
	UseDescribe         bool // chain .describe(...) onto shapes
	DefaultNullable     bool
	EmptyObjectBehavior EmptyObjectPolicy
	SchemaPrefix        string
	SchemaSuffix        string

	// Request/Response override shared options per usage context.
	Request  *ContextOverrides
	Response *ContextOverrides

	Filter        FilterConfig
	IgnoreHeaders []string

	ShowStats bool
	Verbose   bool
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Mode == "" {
		out.Mode = ModeInferred
	}
	if out.EmptyObjectBehavior == "" {
		out.EmptyObjectBehavior = EmptyObjectStrict
	}
	return out
}

func (o *Options) validate() error {
	switch o.Mode {
	case "", ModeInferred, ModeNative:
	default:
		return spec.NewError(spec.ConfigurationError, "options: unsupported mode %q", o.Mode)
	}
	switch o.EmptyObjectBehavior {
	case "", EmptyObjectStrict, EmptyObjectLoose, EmptyObjectRecord:
	default:
		return spec.NewError(spec.ConfigurationError, "options: unsupported emptyObjectBehavior %q", o.EmptyObjectBehavior)
	}
	return nil
}

// ResolvedOptions is the fully-defaulted snapshot a generation pass works
// from. Two snapshots exist per run, one per usage context; neither changes
// after resolution.
type ResolvedOptions struct {
	Mode                Mode
	Strict              bool
	IncludeDescriptions bool
	UseDescribe         bool
	DefaultNullable     bool
	EmptyObjectBehavior EmptyObjectPolicy
	Prefix              string
	Suffix              string
}

// resolveContext computes the snapshot for one context. Response-context
// representation is forced to ModeInferred regardless of user input: response
// validation is mandatory, so responses always get full validators.
func resolveContext(o Options, overrides *ContextOverrides, response bool) ResolvedOptions {
	r := ResolvedOptions{
		Mode:                o.Mode,
		Strict:              o.Strict,
		IncludeDescriptions: o.IncludeDescriptions,
		UseDescribe:         o.UseDescribe,
		DefaultNullable:     o.DefaultNullable,
		EmptyObjectBehavior: o.EmptyObjectBehavior,
		Prefix:              o.SchemaPrefix,
		Suffix:              o.SchemaSuffix,
	}
	if overrides != nil {
		if overrides.Mode != nil {
			r.Mode = *overrides.Mode
		}
		if overrides.Strict != nil {
			r.Strict = *overrides.Strict
		}
		if overrides.DefaultNullable != nil {
			r.DefaultNullable = *overrides.DefaultNullable
		}
		if overrides.UseDescribe != nil {
			r.UseDescribe = *overrides.UseDescribe
		}
		if overrides.EmptyObjectBehavior != nil {
			r.EmptyObjectBehavior = *overrides.EmptyObjectBehavior
		}
	}
	if response {
		r.Mode = ModeInferred
	}
	return r
}

func (r ResolvedOptions) String() string {
	return fmt.Sprintf("mode=%s strict=%t nullable=%t", r.Mode, r.Strict, r.DefaultNullable)
}
