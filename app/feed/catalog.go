package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog holds the source and list definitions read from
// <dir>/sources/*.yml and <dir>/lists/*.yml.
type Catalog struct {
	dir     string
	sources map[string]*SourceConfig
	lists   map[string]*ListConfig
	mu      sync.RWMutex
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{
		dir:     dir,
		sources: make(map[string]*SourceConfig),
		lists:   make(map[string]*ListConfig),
	}
}

func (c *Catalog) Run() error {
	sources := make(map[string]*SourceConfig)
	lists := make(map[string]*ListConfig)

	sourceFiles, err := c.findFiles("sources")
	if err != nil {
		return err
	}

	for _, file := range sourceFiles {
		name := fileStem(file)

		var sourceConfig SourceConfig
		if err := parseYAML(file, &sourceConfig); err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
		sourceConfig.Name = name

		if err := validateSourceConfig(&sourceConfig); err != nil {
			return fmt.Errorf("invalid source %s: %w", file, err)
		}

		sources[name] = &sourceConfig
		slog.Debug("Source definition loaded", "source", name, "url", sourceConfig.URL)
	}

	listFiles, err := c.findFiles("lists")
	if err != nil {
		return err
	}

	for _, file := range listFiles {
		var listConfig ListConfig
		if err := parseYAML(file, &listConfig); err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
		listConfig.Slug = Slugify(fileStem(file))

		if err := validateListConfig(&listConfig, sources); err != nil {
			return fmt.Errorf("invalid list %s: %w", file, err)
		}
		if _, exists := lists[listConfig.Slug]; exists {
			return fmt.Errorf("duplicate list slug '%s' in %s", listConfig.Slug, file)
		}

		lists[listConfig.Slug] = &listConfig
		slog.Debug("List definition loaded", "list", listConfig.Slug, "sources", len(listConfig.Sources))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = sources
	c.lists = lists

	return nil
}

func (c *Catalog) GetSource(name string) (*SourceConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sourceConfig, ok := c.sources[name]
	if !ok {
		return nil, fmt.Errorf("source definition with name '%s' not found", name)
	}
	return sourceConfig, nil
}

// GetSources returns all source definitions ordered by name.
func (c *Catalog) GetSources() []*SourceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sources := make([]*SourceConfig, 0, len(c.sources))
	for _, s := range c.sources {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources
}

// GetLists returns all list definitions ordered by slug.
func (c *Catalog) GetLists() []*ListConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lists := make([]*ListConfig, 0, len(c.lists))
	for _, l := range c.lists {
		lists = append(lists, l)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Slug < lists[j].Slug })
	return lists
}

func (c *Catalog) GetSourceCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

func (c *Catalog) GetListCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lists)
}

func (c *Catalog) findFiles(kind string) ([]string, error) {
	dir := filepath.Join(c.dir, kind)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func parseYAML(file string, out any) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func validateSourceConfig(sourceConfig *SourceConfig) error {
	if sourceConfig.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	u, err := url.Parse(sourceConfig.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source URL must be an absolute http(s) URL: %s", sourceConfig.URL)
	}

	return nil
}

func validateListConfig(listConfig *ListConfig, sources map[string]*SourceConfig) error {
	if listConfig.Slug == "" {
		return fmt.Errorf("list slug is empty")
	}
	if strings.TrimSpace(listConfig.Name) == "" {
		return fmt.Errorf("list name is required")
	}
	if listConfig.UserID <= 0 {
		return fmt.Errorf("list user_id must be positive")
	}

	seen := make(map[string]bool, len(listConfig.Sources))
	for i, binding := range listConfig.Sources {
		if _, ok := sources[binding.Source]; !ok {
			return fmt.Errorf("unknown source '%s' at index %d", binding.Source, i)
		}
		if seen[binding.Source] {
			return fmt.Errorf("source '%s' bound more than once", binding.Source)
		}
		seen[binding.Source] = true
	}

	return nil
}

func fileStem(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}
