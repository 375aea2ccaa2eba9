package theme

import (
	"fmt"
	"html/template"
	"io/fs"
	"path"

	"go.uber.org/zap"
)

// Manager discovers and loads themes from an fs.FS, normally the embedded
// web tree.
type Manager struct {
	FS      fs.FS
	BaseDir string // e.g., "themes"
}

// Load parses the shared templates of theme name.
//
// Template precedence (high → low):
//  1. <name>/partials/**   (partials may redefine blocks from layout)
//  2. <name>/layout.html   (root "layout" template)
//
// funcs must list every function the templates call, including request-bound
// ones the view engine replaces per render; html/template rejects unknown
// names at parse time.
func (m *Manager) Load(name string, funcs template.FuncMap) (*Theme, error) {
	root := path.Join(m.BaseDir, name)
	sub, err := fs.Sub(m.FS, root)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	if _, err := fs.Stat(sub, "layout.html"); err != nil {
		return nil, fmt.Errorf("theme %s not found at %s: %w", name, root, err)
	}

	th := New(name, sub, nil)

	fm := FuncMap(th.AssetFunc)
	for k, v := range funcs {
		fm[k] = v
	}
	tpl := template.New("layout.html").Funcs(fm)

	// 1. Layout first (lowest precedence).
	if _, err := tpl.ParseFS(sub, "layout.html"); err != nil {
		return nil, fmt.Errorf("parse %s layout: %w", name, err)
	}

	// 2. Partials.
	files, err := CollectHTML(sub, "partials")
	if err != nil {
		return nil, fmt.Errorf("walk %s partials: %w", name, err)
	}
	if len(files) > 0 {
		if _, err := tpl.ParseFS(sub, files...); err != nil {
			return nil, fmt.Errorf("parse %s partials: %w", name, err)
		}
	}

	th.Base = tpl
	zap.S().Debugw("theme loaded", "theme", name, "partials", len(files))
	return th, nil
}
