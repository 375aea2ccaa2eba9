package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/agencysite/internal/routing"
)

//go:embed data/site.yaml
var defaultDoc []byte

// Default returns the embedded catalogue.  It panics if the embedded file
// is malformed, which the package tests rule out.
func Default() *Catalog {
	c, err := Parse(defaultDoc)
	if err != nil {
		panic(fmt.Sprintf("content: embedded catalogue: %v", err))
	}
	return c
}

// Load reads a catalogue from path, or returns the embedded one when path
// is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultDoc)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("content: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalogue, fills in missing slugs, and checks
// cross-references.  Unknown keys are rejected.
func Parse(b []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	normalise(&doc)
	if err := check(&doc); err != nil {
		return nil, err
	}
	return &Catalog{doc: doc}, nil
}

func normalise(doc *document) {
	for i := range doc.Categories {
		cat := &doc.Categories[i]
		if cat.Slug == "" {
			cat.Slug = routing.MakeSlug(cat.Name)
		}
		for j := range cat.Services {
			if cat.Services[j].Slug == "" {
				cat.Services[j].Slug = routing.MakeSlug(cat.Services[j].Name)
			}
		}
	}
	for i := range doc.ProjectCategories {
		if doc.ProjectCategories[i].Slug == "" {
			doc.ProjectCategories[i].Slug = routing.MakeSlug(doc.ProjectCategories[i].Name)
		}
	}
	for i := range doc.Projects {
		if doc.Projects[i].Slug == "" {
			doc.Projects[i].Slug = routing.MakeSlug(doc.Projects[i].Title)
		}
	}
}

// check enforces the invariants the selector and portfolio filter rely on.
func check(doc *document) error {
	var errs []error

	if len(doc.Categories) == 0 {
		errs = append(errs, errors.New("no service categories"))
	}
	seen := make(map[string]bool)
	for _, cat := range doc.Categories {
		if cat.Name == "" {
			errs = append(errs, errors.New("service category without a name"))
		}
		if len(cat.Services) == 0 {
			errs = append(errs, fmt.Errorf("category %q has no services", cat.Name))
		}
		for _, s := range cat.Services {
			if s.Name == "" {
				errs = append(errs, fmt.Errorf("category %q: service without a name", cat.Name))
				continue
			}
			if seen[s.Name] {
				errs = append(errs, fmt.Errorf("duplicate service %q", s.Name))
			}
			seen[s.Name] = true
		}
	}

	tabs := make(map[string]bool)
	for _, pc := range doc.ProjectCategories {
		tabs[pc.Slug] = true
	}
	for _, p := range doc.Projects {
		if p.Category == AllProjects || !tabs[p.Category] {
			errs = append(errs, fmt.Errorf("project %q: unknown category %q", p.Title, p.Category))
		}
	}
	return errors.Join(errs...)
}
