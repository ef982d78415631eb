package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

// Registry manages a collection of templates.
type Registry interface {
	// Register adds a template to the registry
	Register(t *Template) error

	// Unregister removes a template from the registry
	Unregister(formatID string) error

	// Get returns a template by its format ID
	Get(formatID string) (*Template, bool)

	// List returns all registered templates ordered by format ID
	List() []*Template

	// Reload reloads all templates from the configured directory
	Reload() error

	// Watch starts watching the template directory for changes
	Watch() error

	// StopWatch stops watching the template directory
	StopWatch()

	// LoadDirectory loads all templates from a directory
	LoadDirectory(dir string) error

	// LoadFile loads a single template file
	LoadFile(path string) error
}

// DefaultRegistry is the default implementation of Registry.
type DefaultRegistry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	files     map[string]string // path -> format ID
	embedded  map[string]bool
	dir       string
	watcher   *fsnotify.Watcher
	stopChan  chan struct{}
	onChange  func(event string, t *Template)
	logger    zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		templates: make(map[string]*Template),
		files:     make(map[string]string),
		embedded:  make(map[string]bool),
		logger:    zerolog.Nop(),
	}
}

// NewDefaultRegistry creates a registry holding the embedded templates.
func NewDefaultRegistry() (*DefaultRegistry, error) {
	r := NewRegistry()
	if err := r.loadEmbedded(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRegistryWithDirectory creates a registry holding the embedded templates
// plus those found in dir. Templates from dir replace embedded ones with the
// same format ID.
func NewRegistryWithDirectory(dir string) (*DefaultRegistry, error) {
	r, err := NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	if err := r.LoadDirectory(dir); err != nil {
		return nil, err
	}
	return r, nil
}

// SetLogger sets the logger used for background reload errors.
func (r *DefaultRegistry) SetLogger(logger zerolog.Logger) {
	r.logger = logger
}

// Register validates, compiles and adds a template.
func (r *DefaultRegistry) Register(t *Template) error {
	return r.register(t, false)
}

func (r *DefaultRegistry) register(t *Template, replace bool) error {
	if t == nil {
		return fmt.Errorf("template cannot be nil")
	}

	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if !t.IsCompiled() {
		if err := t.Compile(); err != nil {
			return fmt.Errorf("compiling template %q: %w", t.FormatID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Same version twice is a mistake unless the file was edited in place
	if existing, ok := r.templates[t.FormatID]; ok && !replace {
		if existing.Version == t.Version {
			return fmt.Errorf("template %q version %s already registered", t.FormatID, t.Version)
		}
	}

	r.templates[t.FormatID] = t
	return nil
}

// Unregister removes a template.
func (r *DefaultRegistry) Unregister(formatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[formatID]; !ok {
		return fmt.Errorf("template %q not found", formatID)
	}

	delete(r.templates, formatID)
	return nil
}

// Get returns a template by its format ID.
func (r *DefaultRegistry) Get(formatID string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[formatID]
	return t, ok
}

// List returns all registered templates ordered by format ID.
func (r *DefaultRegistry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FormatID < list[j].FormatID })
	return list
}

// Count returns the number of registered templates.
func (r *DefaultRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// LoadDirectory loads all YAML template files from a directory. A missing
// directory is not an error.
func (r *DefaultRegistry) LoadDirectory(dir string) error {
	r.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := r.LoadFile(path); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", entry.Name(), err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading templates: %s", strings.Join(loadErrors, "; "))
	}

	return nil
}

// LoadFile loads a single template file. Loading a file again replaces the
// template it defined before.
func (r *DefaultRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return err
	}

	// a file may replace an embedded template or its own earlier version
	r.mu.RLock()
	replace := r.files[path] == t.FormatID || r.embedded[t.FormatID]
	r.mu.RUnlock()

	if err := r.register(t, replace); err != nil {
		return fmt.Errorf("registering template: %w", err)
	}

	r.mu.Lock()
	r.files[path] = t.FormatID
	delete(r.embedded, t.FormatID)
	r.mu.Unlock()
	return nil
}

// Parse decodes a YAML template without registering it.
func Parse(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &t, nil
}

// Reload clears the registry and loads the embedded templates and the
// configured directory again.
func (r *DefaultRegistry) Reload() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}

	r.mu.Lock()
	r.templates = make(map[string]*Template)
	r.files = make(map[string]string)
	r.embedded = make(map[string]bool)
	r.mu.Unlock()

	if err := r.loadEmbedded(); err != nil {
		return err
	}
	return r.LoadDirectory(r.dir)
}

// SetOnChange sets a callback invoked after a watched file changes.
func (r *DefaultRegistry) SetOnChange(fn func(event string, t *Template)) {
	r.onChange = fn
}

// Watch starts watching the template directory for changes.
func (r *DefaultRegistry) Watch() error {
	if r.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})

	go r.watchLoop(watcher, r.stopChan)

	if err := watcher.Add(r.dir); err != nil {
		r.watcher.Close()
		return fmt.Errorf("watching directory %s: %w", r.dir, err)
	}

	return nil
}

func (r *DefaultRegistry) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isYAML(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, "create")
			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, "modify")
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn().Err(err).Str("dir", r.dir).Msg("template watcher error")
		}
	}
}

func (r *DefaultRegistry) handleFileChange(path string, eventType string) {
	if err := r.LoadFile(path); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("template reload failed")
		return
	}

	r.logger.Info().Str("path", path).Str("event", eventType).Msg("template reloaded")
	if r.onChange != nil {
		if t, ok := r.templateByFile(path); ok {
			r.onChange(eventType, t)
		}
	}
}

func (r *DefaultRegistry) handleFileRemove(path string) {
	r.mu.Lock()
	formatID, ok := r.files[path]
	delete(r.files, path)
	var removed *Template
	if ok {
		removed = r.templates[formatID]
		delete(r.templates, formatID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.logger.Info().Str("path", path).Str("format_id", formatID).Msg("template removed")

	// an embedded template of the same ID comes back
	if err := r.loadEmbedded(); err != nil {
		r.logger.Warn().Err(err).Msg("restoring embedded templates failed")
	}

	if r.onChange != nil {
		r.onChange("remove", removed)
	}
}

func (r *DefaultRegistry) templateByFile(path string) (*Template, bool) {
	r.mu.RLock()
	formatID, ok := r.files[path]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.Get(formatID)
}

// StopWatch stops watching the template directory.
func (r *DefaultRegistry) StopWatch() {
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
