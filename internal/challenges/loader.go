package challenges

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hireloop/interview-engine/internal/models"
)

// Library manages loading and caching of challenge templates
type Library struct {
	mu        sync.RWMutex
	templates map[string]*models.Template
}

// NewLibrary creates an empty challenge library
func NewLibrary() *Library {
	return &Library{
		templates: make(map[string]*models.Template),
	}
}

// LoadFromDir loads all YAML templates from a directory and its immediate
// subdirectories. A file that fails to parse is logged and skipped.
func (l *Library) LoadFromDir(dir string) error {
	slog.Info("loading challenge templates", "dir", dir)

	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)

		subMatches, err := filepath.Glob(filepath.Join(dir, "*", pattern))
		if err != nil {
			continue
		}
		files = append(files, subMatches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load template", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("challenge templates loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single template from a YAML file
func (l *Library) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var tmpl models.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if tmpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if tmpl.Title == "" {
		return fmt.Errorf("template title is required")
	}
	if tmpl.TimeLimit < 0 {
		return fmt.Errorf("time_limit must not be negative")
	}

	l.mu.Lock()
	l.templates[tmpl.Name] = &tmpl
	l.mu.Unlock()

	slog.Info("template loaded", "name", tmpl.Name, "language", tmpl.Language)
	return nil
}

// Get retrieves a template by name, or nil if not loaded
func (l *Library) Get(name string) *models.Template {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.templates[name]
}

// List returns all loaded templates sorted by name
func (l *Library) List() []*models.Template {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Template, 0, len(l.templates))
	for _, tmpl := range l.templates {
		result = append(result, tmpl)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Add programmatically adds a template
func (l *Library) Add(tmpl *models.Template) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[tmpl.Name] = tmpl
}

// Remove removes a template by name
func (l *Library) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.templates, name)
}
