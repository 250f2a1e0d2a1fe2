package ledger

import "testing"

func TestCanonicalJSONSortsKeys(t *testing.T) {
	in := map[string]any{
		"zeta":  1,
		"alpha": "first",
		"mid":   map[string]any{"b": 2, "a": 1},
	}
	got, err := canonicalJSON(in)
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	want := `{"alpha":"first","mid":{"a":1,"b":2},"zeta":1}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestCanonicalJSONDeterministic(t *testing.T) {
	in := map[string]string{"c": "3", "a": "1", "b": "2"}
	first, err := canonicalJSON(in)
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := canonicalJSON(in)
		if err != nil {
			t.Fatalf("canonicalJSON: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("non-deterministic encoding: %s vs %s", again, first)
		}
	}
}

func TestCanonicalJSONNoWhitespace(t *testing.T) {
	in := map[string]any{"a": []any{1, 2, 3}}
	got, err := canonicalJSON(in)
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	want := `{"a":[1,2,3]}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
