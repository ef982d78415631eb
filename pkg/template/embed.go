package template

import (
	"embed"
	"fmt"
	"path"
	"sync"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

// DefaultFormatID identifies the embedded bilingual Ejar template.
const DefaultFormatID = "ejar-bilingual"

var (
	defaultOnce     sync.Once
	defaultTemplate *Template
	defaultErr      error
)

// Default returns the compiled embedded Ejar template. The result is shared
// and must not be modified.
func Default() (*Template, error) {
	defaultOnce.Do(func() {
		data, err := templatesFS.ReadFile("templates/ejar.yaml")
		if err != nil {
			defaultErr = fmt.Errorf("reading embedded template: %w", err)
			return
		}
		t, err := Parse(data)
		if err != nil {
			defaultErr = err
			return
		}
		if err := t.Validate(); err != nil {
			defaultErr = fmt.Errorf("invalid embedded template: %w", err)
			return
		}
		if err := t.Compile(); err != nil {
			defaultErr = fmt.Errorf("compiling embedded template: %w", err)
			return
		}
		defaultTemplate = t
	})
	return defaultTemplate, defaultErr
}

// MustDefault is like Default but panics on error.
func MustDefault() *Template {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// loadEmbedded registers every embedded template whose format ID is not
// registered yet.
func (r *DefaultRegistry) loadEmbedded() error {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("reading embedded templates: %w", err)
	}
	for _, entry := range entries {
		data, err := templatesFS.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return fmt.Errorf("reading embedded template %s: %w", entry.Name(), err)
		}
		t, err := Parse(data)
		if err != nil {
			return fmt.Errorf("embedded template %s: %w", entry.Name(), err)
		}
		if _, ok := r.Get(t.FormatID); ok {
			continue
		}
		if err := r.Register(t); err != nil {
			return fmt.Errorf("embedded template %s: %w", entry.Name(), err)
		}
		r.mu.Lock()
		r.embedded[t.FormatID] = true
		r.mu.Unlock()
	}
	return nil
}
