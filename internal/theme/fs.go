// fs.go holds tiny helpers for walking a theme tree when template glob
// patterns such as “**/*.html” are not available in the Go standard library.
// The key export is CollectHTML, which returns every .html path under the
// supplied directory of an fs.FS.
package theme

import (
	"errors"
	"io/fs"
	"sort"
	"strings"
)

// CollectHTML walks dir recursively inside fsys and returns a sorted list
// of *.html paths, ready for template.ParseFS.  A missing dir yields an
// empty list.
//
// Callers typically pass:
//
//	files, _ := CollectHTML(themeFS, "partials")
//	tpl.ParseFS(themeFS, files...)
func CollectHTML(fsys fs.FS, dir string) ([]string, error) {
	var files []string

	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil { // propagate filesystem errors immediately
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
