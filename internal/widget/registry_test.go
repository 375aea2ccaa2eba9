package widget

import "testing"

type stub struct{ id string }

func (s stub) ID() string { return s.id }
func (s stub) Render(any, map[string]any) (string, CachePolicy, error) {
	return "<p>" + s.id + "</p>", CacheDefault, nil
}

func TestRegisterLookup(t *testing.T) {
	Register(stub{"test/b"})
	Register(stub{"test/a"})

	if w := Lookup("test/a"); w == nil || w.ID() != "test/a" {
		t.Fatalf("Lookup = %v", w)
	}
	if Lookup("test/missing") != nil {
		t.Fatal("Lookup of unknown key returned a widget")
	}

	var ids []string
	for _, w := range All() {
		if len(w.ID()) > 5 && w.ID()[:5] == "test/" {
			ids = append(ids, w.ID())
		}
	}
	if len(ids) != 2 || ids[0] != "test/a" {
		t.Fatalf("All not sorted: %v", ids)
	}
}
