package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CeriosTesting/openapi-to-zod/internal/spec"
	"github.com/CeriosTesting/openapi-to-zod/internal/zodgen"
)

const sampleSpec = `openapi: 3.0.3
info:
  title: sample
  version: "1.0"
paths:
  /users:
    get:
      operationId: listUsers
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
`

func writeSampleSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.yaml")
	if err := os.WriteFile(path, []byte(sampleSpec), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseClient(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want Client
		ok   bool
	}{
		{"", ClientNone, true},
		{"none", ClientNone, true},
		{"fetch", ClientFetch, true},
		{"K6", ClientK6, true},
		{"playwright", ClientPlaywright, true},
		{"axios", ClientNone, false},
	}
	for _, tc := range cases {
		got, err := ParseClient(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseClient(%q) = %v, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseClient(%q) must fail", tc.in)
		}
	}
}

func TestRun_AllSucceed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	jobs := []Job{
		{Options: zodgen.Options{Input: writeSampleSpec(t), Output: filepath.Join(dir, "a.ts")}},
		{Options: zodgen.Options{Input: writeSampleSpec(t), Output: filepath.Join(dir, "b.ts")}},
	}
	results, err := Run(context.Background(), jobs, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("job %d failed: %v", i, r.Err)
		}
	}
	for _, name := range []string{"a.ts", "b.ts"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(data), "export const userSchema") {
			t.Fatalf("%s missing schema:\n%s", name, data)
		}
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.yaml")
	jobs := []Job{
		{Options: zodgen.Options{Input: missing, Output: filepath.Join(dir, "bad.ts")}},
		{Options: zodgen.Options{Input: writeSampleSpec(t), Output: filepath.Join(dir, "good.ts")}},
	}
	results, err := Run(context.Background(), jobs, 1)
	if err == nil {
		t.Fatal("expected an aggregate error")
	}
	if !strings.Contains(err.Error(), "1 of 2") || !strings.Contains(err.Error(), missing) {
		t.Fatalf("aggregate error = %q", err)
	}
	if results[0].Err == nil {
		t.Fatal("failed job must carry its error")
	}
	if results[1].Err != nil {
		t.Fatalf("sibling job must not be aborted: %v", results[1].Err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "good.ts")); statErr != nil {
		t.Fatalf("sibling output missing: %v", statErr)
	}
}

func TestRun_ClientEmission(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clientOut := filepath.Join(dir, "client.ts")
	jobs := []Job{{
		Options:      zodgen.Options{Input: writeSampleSpec(t), Output: filepath.Join(dir, "schemas.ts")},
		Client:       ClientFetch,
		ClientOutput: clientOut,
	}}
	if _, err := Run(context.Background(), jobs, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(clientOut)
	if err != nil {
		t.Fatalf("read client: %v", err)
	}
	if !strings.Contains(string(data), "async listUsers(") {
		t.Fatalf("client missing method:\n%s", data)
	}
}

func TestRun_ClientRequiresOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	jobs := []Job{{
		Options: zodgen.Options{Input: writeSampleSpec(t), Output: filepath.Join(dir, "schemas.ts")},
		Client:  ClientFetch,
	}}
	results, err := Run(context.Background(), jobs, 1)
	if err == nil {
		t.Fatal("expected an aggregate error")
	}
	if spec.CodeOf(results[0].Err) != spec.ConfigurationError {
		t.Fatalf("code = %v, want ConfigurationError", spec.CodeOf(results[0].Err))
	}
}
