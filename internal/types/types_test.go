package types

import "testing"

func TestTypeString(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{Number, "number"},
		{String | Null, "string | null"},
		{Never, "never"},
		{Any | Number, "any"},
		{Unknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestNullability(t *testing.T) {
	if Number.IsNullable() {
		t.Error("number must not be nullable")
	}
	if !(Number | Undefined).IsNullable() {
		t.Error("number | undefined must be nullable")
	}
	if !Any.IsNullable() || !Unknown.IsNullable() {
		t.Error("opaque types are treated as nullable")
	}
	if got := (String | Null | Undefined).NonNullable(); got != String {
		t.Errorf("NonNullable = %s", got)
	}
	if got := Any.NonNullable(); got != Any {
		t.Errorf("any.NonNullable = %s", got)
	}
}

func TestUnionAndIs(t *testing.T) {
	if got := Number.Union(String); got != Number|String {
		t.Errorf("Union = %s", got)
	}
	if got := Number.Union(Any); got != Any {
		t.Errorf("Union with any = %s", got)
	}
	if got := Number.Union(Unknown); got != Unknown {
		t.Errorf("Union with unknown = %s", got)
	}
	if !String.Is(String) || (String | Null).Is(String) || Never.Is(String) || Any.Is(String) {
		t.Error("Is misbehaves")
	}
}

func TestFromKeyword(t *testing.T) {
	for kw, want := range map[string]Type{"number": Number, "string": String, "any": Any, "void": Void} {
		got, ok := FromKeyword(kw)
		if !ok || got != want {
			t.Errorf("FromKeyword(%q) = %s,%v", kw, got, ok)
		}
	}
	if _, ok := FromKeyword("Promise"); ok {
		t.Error("unexpected keyword match")
	}
}
