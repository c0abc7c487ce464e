package spec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Load reads and parses an OpenAPI document from a local file. Swagger 2.0
// input is converted to v3 via kin-openapi openapi2conv. The raw document
// bytes are returned alongside the parsed tree so normalization can recover
// detail kin-openapi collapses (notably explicit `nullable: false`).
//
// Parse failures embed the parse engine's message so the error is actionable
// without re-running in verbose mode.
func Load(ctx context.Context, path string) (*openapi3.T, []byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, NewError(ConfigurationError, "spec: input path is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, &Error{Code: FileOperationError, Message: fmt.Sprintf("resolve path: %v", err), Location: path, Cause: err}
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, nil, &Error{Code: FileOperationError, Message: fmt.Sprintf("spec: input file %s does not exist", abs), Location: abs, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, &Error{Code: FileOperationError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}

	version, err := detectSpecVersion(raw)
	if err != nil {
		return nil, nil, &Error{Code: SpecValidationError, Message: err.Error(), Location: abs, Cause: err}
	}

	switch version {
	case 3:
		loader := openapi3.NewLoader()
		loader.IsExternalRefsAllowed = true
		doc, err := loader.LoadFromData(raw)
		if err != nil {
			return nil, nil, mapValidateOrParseErr(err, abs)
		}
		if err := doc.Validate(ctx); err != nil {
			if !canProceedDespiteValidation(err) {
				return nil, nil, mapValidateOrParseErr(err, abs)
			}
			// proceed in permissive mode
		}
		return doc, raw, nil
	case 2:
		v3doc, err := convertV2ToV3(raw)
		if err != nil {
			return nil, nil, &Error{Code: SpecValidationError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: abs, Cause: err}
		}
		if err := v3doc.Validate(ctx); err != nil {
			if !canProceedDespiteValidation(err) {
				return nil, nil, mapValidateOrParseErr(err, abs)
			}
		}
		// After conversion the raw bytes no longer mirror the v3 tree, so the
		// raw-assisted nullable recovery is skipped for v2 input.
		return v3doc, nil, nil
	default:
		return nil, nil, &Error{Code: SpecValidationError, Message: "spec: unknown or unsupported OpenAPI/Swagger version", Location: abs}
	}
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var v2 openapi2.T
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func mapValidateOrParseErr(err error, location string) error {
	return &Error{
		Code:     SpecValidationError,
		Message:  fmt.Sprintf("spec: %v", err),
		Location: location,
		Ref:      extractJSONPointer(err),
		Cause:    err,
	}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	// Unwrap MultiError and take the first for brevity.
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors where a
// best-effort generation can still proceed (e.g., unresolved external refs
// that our own eager reference check reports more precisely later).
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}
