// Package templates holds the agent instructions as embedded text/template
// files. Besides the usual {{.Field}} actions, instructions reference session
// state through ADK placeholders ({key} or {key?}) which the agent runtime
// fills in at request time.
package templates

import (
	"bytes"
	"embed"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"text/template"

	"stockresearch/pkg/errors"
)

//go:embed assets/agents/*.tmpl
var embeddedFS embed.FS

var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)(\?)?\}`)

// funcs are available to every instruction
var funcs = template.FuncMap{
	// state emits a required session state placeholder
	"state": func(key string) string { return "{" + key + "}" },
	// optionalState emits a placeholder that renders empty when key is unset
	"optionalState": func(key string) string { return "{" + key + "?}" },
	"upper":         strings.ToUpper,
}

// Template is one parsed instruction
type Template struct {
	ID     string
	parsed *template.Template
}

// Render executes the template with data
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.parsed.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render template %s", t.ID)
	}
	return buf.String(), nil
}

// Registry resolves instructions by ID, for example "agents/strategy_agent"
type Registry struct {
	templates map[string]*Template
}

// New parses every .tmpl file under fsys. IDs are slash separated paths
// without the extension.
func New(fsys fs.FS) (*Registry, error) {
	r := &Registry{templates: map[string]*Template{}}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return errors.Wrapf(err, "read template %s", p)
		}
		id := strings.TrimSuffix(p, ".tmpl")
		parsed, err := template.New(id).Funcs(funcs).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return errors.Wrapf(err, "parse template %s", id)
		}
		r.templates[id] = &Template{ID: id, parsed: parsed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Get returns the registry over the embedded instructions
func Get() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedFS, "assets")
		if err != nil {
			defaultErr = errors.Wrap(err, "prepare embedded templates")
			return
		}
		defaultRegistry, defaultErr = New(sub)
	})

	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultRegistry
}

// GetTemplate retrieves a template by ID
func (r *Registry) GetTemplate(id string) (*Template, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "template %s", id)
	}
	return tmpl, nil
}

// Render executes the template id with data
func (r *Registry) Render(id string, data any) (string, error) {
	tmpl, err := r.GetTemplate(id)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// List returns all template IDs in sorted order
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Placeholders reports the session state keys a rendered instruction reads,
// split into required and optional keys, each in order of first appearance.
func Placeholders(instruction string) (required, optional []string) {
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(instruction, -1) {
		key := m[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		if m[2] == "?" {
			optional = append(optional, key)
		} else {
			required = append(required, key)
		}
	}
	return required, optional
}
