package zodgen

import "testing"

func TestToIdentifier(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		raw   string
		style Style
		opts  IdentOptions
		want  string
	}{
		{"dotted", "com.example.User", PascalCase, IdentOptions{}, "ComExampleUser"},
		{"dotted camel", "com.example.User", CamelCase, IdentOptions{}, "comExampleUser"},
		{"kebab", "user-profile", PascalCase, IdentOptions{}, "UserProfile"},
		{"snake", "user_profile", CamelCase, IdentOptions{}, "userProfile"},
		{"repeated separators", "..user..name..", PascalCase, IdentOptions{}, "UserName"},
		{"leading trailing dots", ".User.", CamelCase, IdentOptions{}, "user"},
		{"whitespace runs", "user   profile", PascalCase, IdentOptions{}, "UserProfile"},
		{"special chars", "user@name!", CamelCase, IdentOptions{}, "userName"},
		{"leading digit", "2faToken", PascalCase, IdentOptions{}, "_2faToken"},
		{"empty", "", PascalCase, IdentOptions{}, "Value"},
		{"all underscores", "___", CamelCase, IdentOptions{}, "Value"},
		{"prefix camel", "user", CamelCase, IdentOptions{Prefix: "Api"}, "apiUser"},
		{"prefix pascal", "user", PascalCase, IdentOptions{Prefix: "api"}, "ApiUser"},
		{"suffix", "user", CamelCase, IdentOptions{Suffix: "schema"}, "userSchema"},
		{"prefix and suffix", "order-item", CamelCase, IdentOptions{Prefix: "My", Suffix: "Dto"}, "myOrderItemDto"},
		{"acronym preserved", "APIKey", PascalCase, IdentOptions{}, "APIKey"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ToIdentifier(tc.raw, tc.style, tc.opts)
			if got != tc.want {
				t.Fatalf("ToIdentifier(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestToIdentifier_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{"com.example.User", "user-profile", "2fa", "already_valid", "PascalName", "camelName"}
	for _, raw := range inputs {
		for _, style := range []Style{CamelCase, PascalCase} {
			once := ToIdentifier(raw, style, IdentOptions{})
			twice := ToIdentifier(once, style, IdentOptions{})
			if once != twice {
				t.Fatalf("not idempotent for %q: first %q, second %q", raw, once, twice)
			}
		}
	}
}

func TestToEnumKey(t *testing.T) {
	t.Parallel()
	cases := []struct{ raw, want string }{
		{"admin", "Admin"},
		{"read-only", "ReadOnly"},
		{"1", "N1"},
		{"42", "N42"},
		{"2fa", "N2fa"},
	}
	for _, tc := range cases {
		if got := ToEnumKey(tc.raw); got != tc.want {
			t.Fatalf("ToEnumKey(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolveRef(t *testing.T) {
	t.Parallel()
	if got := ResolveRef("#/components/schemas/Foo"); got != "Foo" {
		t.Fatalf("ResolveRef = %q, want Foo", got)
	}
	if got := ResolveRef("Bare"); got != "Bare" {
		t.Fatalf("ResolveRef = %q, want Bare", got)
	}
}

func TestSchemaConstName(t *testing.T) {
	t.Parallel()
	if got := SchemaConstName("User", "", ""); got != "userSchema" {
		t.Fatalf("SchemaConstName = %q", got)
	}
	if got := SchemaConstName("order.item", "api", ""); got != "apiOrderItemSchema" {
		t.Fatalf("SchemaConstName with prefix = %q", got)
	}
	if got := TypeName("order.item", "", "Dto"); got != "OrderItemDto" {
		t.Fatalf("TypeName = %q", got)
	}
}
