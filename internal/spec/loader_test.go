package spec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleV3 = `openapi: 3.0.3
info:
  title: sample
  version: "1.0"
paths:
  /users:
    get:
      operationId: listUsers
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/User'
components:
  schemas:
    User:
      type: object
      required: [id]
      properties:
        id:
          type: string
        nickname:
          type: string
          nullable: true
        middleName:
          type: string
          nullable: false
        age:
          type: integer
        role:
          $ref: '#/components/schemas/Role'
    Role:
      type: string
      enum: [admin, editor]
`

const sampleV2 = `swagger: "2.0"
info:
  title: sample
  version: "1.0"
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
          schema:
            $ref: '#/definitions/Pet'
definitions:
  Pet:
    type: object
    properties:
      name:
        type: string
`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoad_V3(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "api.yaml", sampleV3)
	doc, raw, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc == nil || doc.Components == nil || doc.Components.Schemas["User"] == nil {
		t.Fatal("parsed document missing User schema")
	}
	if len(raw) == 0 {
		t.Fatal("v3 input must return the raw bytes for recovery")
	}
}

func TestLoad_V2Converts(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "api.yaml", sampleV2)
	doc, raw, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Components == nil || doc.Components.Schemas["Pet"] == nil {
		t.Fatal("converted document missing Pet schema")
	}
	if raw != nil {
		t.Fatal("converted input must not return raw bytes")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Parallel()
	_, _, err := Load(context.Background(), "  ")
	if CodeOf(err) != ConfigurationError {
		t.Fatalf("code = %v, want ConfigurationError", CodeOf(err))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	if CodeOf(err) != FileOperationError {
		t.Fatalf("code = %v, want FileOperationError", CodeOf(err))
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestLoad_UnparsableDocument(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "bad.yaml", "openapi: 3.0.0\n\t- broken")
	_, _, err := Load(context.Background(), path)
	if CodeOf(err) != SpecValidationError {
		t.Fatalf("code = %v, want SpecValidationError", CodeOf(err))
	}
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "odd.yaml", "title: not a spec\n")
	_, _, err := Load(context.Background(), path)
	if CodeOf(err) != SpecValidationError {
		t.Fatalf("code = %v, want SpecValidationError", CodeOf(err))
	}
	if !strings.Contains(err.Error(), "version") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestDetectSpecVersion(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want int
	}{
		{"openapi: 3.0.0", 3},
		{"openapi: 3.1.0", 3},
		{`swagger: "2.0"`, 2},
	}
	for _, tc := range cases {
		got, err := detectSpecVersion([]byte(tc.in))
		if err != nil || got != tc.want {
			t.Fatalf("detectSpecVersion(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
	if _, err := detectSpecVersion([]byte("openapi: 4.0")); err == nil {
		t.Fatal("unknown version must error")
	}
}
