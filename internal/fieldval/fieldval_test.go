package fieldval

import "testing"

// TestDecodeScalars covers the scalar shapes custom fields arrive in.
func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{name: "string", raw: "hello", want: "hello"},
		{name: "bool", raw: true, want: "true"},
		{name: "float int-valued", raw: float64(2019), want: "2019"},
		{name: "float fractional", raw: 3.5, want: "3.5"},
		{name: "int", raw: 42, want: "42"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Decode(tc.raw)
			if v.Kind != Scalar {
				t.Fatalf("kind = %v, want Scalar", v.Kind)
			}
			if v.Str != tc.want {
				t.Errorf("Str = %q, want %q", v.Str, tc.want)
			}
		})
	}
}

// TestDecodeAbsent covers values that decode to nothing.
func TestDecodeAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{name: "nil", raw: nil},
		{name: "empty string", raw: ""},
		{name: "whitespace", raw: "   "},
		{name: "unknown type", raw: struct{}{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if v := Decode(tc.raw); !v.IsAbsent() {
				t.Errorf("Decode(%v).Kind = %v, want Absent", tc.raw, v.Kind)
			}
		})
	}
}

// TestDecodeEncodedString ensures JSON-encoded strings are decoded into
// their nested shape, while JSON-looking garbage stays a scalar.
func TestDecodeEncodedString(t *testing.T) {
	v := Decode(`["a.jpg", "b.jpg"]`)
	if v.Kind != List {
		t.Fatalf("kind = %v, want List", v.Kind)
	}
	if len(v.Items) != 2 || v.Items[0].Str != "a.jpg" {
		t.Errorf("items = %v", v.Items)
	}

	v = Decode(`{"url": "/img/c.png"}`)
	if v.Kind != Object {
		t.Fatalf("kind = %v, want Object", v.Kind)
	}
	if loc, ok := v.Location(); !ok || loc != "/img/c.png" {
		t.Errorf("Location() = %q, %v", loc, ok)
	}

	// Unparseable but JSON-looking input stays a scalar.
	v = Decode(`{not json at all`)
	if v.Kind != Scalar {
		t.Errorf("kind = %v, want Scalar for unparseable input", v.Kind)
	}
}

// TestLocationObjectKeys checks the url/src/path lookup order.
func TestLocationObjectKeys(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
		ok   bool
	}{
		{name: "url wins", raw: map[string]any{"url": "u", "src": "s", "path": "p"}, want: "u", ok: true},
		{name: "src fallback", raw: map[string]any{"src": "s", "path": "p"}, want: "s", ok: true},
		{name: "path fallback", raw: map[string]any{"path": "p"}, want: "p", ok: true},
		{name: "no location keys", raw: map[string]any{"name": "x"}, ok: false},
		{name: "empty url skipped", raw: map[string]any{"url": "", "src": "s"}, want: "s", ok: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loc, ok := Decode(tc.raw).Location()
			if ok != tc.ok || loc != tc.want {
				t.Errorf("Location() = %q, %v; want %q, %v", loc, ok, tc.want, tc.ok)
			}
		})
	}
}

// TestLocationsMixedList extracts one location per usable list element,
// preserving order across scalars and embedded objects.
func TestLocationsMixedList(t *testing.T) {
	raw := []any{
		"first.jpg",
		map[string]any{"src": "second.png"},
		map[string]any{"name": "no location"},
		float64(7),
	}

	got := Decode(raw).Locations()
	want := []string{"first.jpg", "second.png", "7"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("locations[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
