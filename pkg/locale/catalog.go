// Package locale resolves the culture of a turn and looks up its strings.
package locale

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
)

//go:embed resources/*.yaml
var resources embed.FS

// DefaultTag is the culture used when a turn carries no locale.
const DefaultTag = "en-US"

// Catalog holds the string tables of every supported culture.
// It is safe for concurrent use; Reload swaps the tables atomically.
type Catalog struct {
	mu       sync.RWMutex
	tags     []language.Tag
	tables   []map[string]string
	matcher  language.Matcher
	fallback string
	logger   *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFallback sets the culture used for empty or unmatched tags.
func WithFallback(tag string) Option {
	return func(c *Catalog) {
		if tag != "" {
			c.fallback = tag
		}
	}
}

// Default returns the catalog built from the embedded resources.
func Default(opts ...Option) (*Catalog, error) {
	return Load(resources, "resources", opts...)
}

// MustDefault is like Default but panics on error.
func MustDefault(opts ...Option) *Catalog {
	c, err := Default(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads every <tag>.yaml file of dir in fsys.
func Load(fsys fs.FS, dir string, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		fallback: DefaultTag,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.load(fsys, dir); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the tables from dir in fsys. The new tables replace the
// current ones only when every culture has all the keys of the fallback;
// otherwise the current tables stay in use.
func (c *Catalog) Reload(fsys fs.FS, dir string) error {
	tags, tables, err := c.read(fsys, dir)
	if err != nil {
		return err
	}
	if err := missingKeys(tags, tables); err != nil {
		return err
	}
	c.swap(tags, tables)
	c.logger.Debug("locale catalog loaded", "dir", dir, "locales", len(tags))
	return nil
}

func (c *Catalog) load(fsys fs.FS, dir string) error {
	tags, tables, err := c.read(fsys, dir)
	if err != nil {
		return err
	}
	c.swap(tags, tables)
	c.logger.Debug("locale catalog loaded", "dir", dir, "locales", len(tags))
	return nil
}

func (c *Catalog) swap(tags []language.Tag, tables []map[string]string) {
	c.mu.Lock()
	c.tags = tags
	c.tables = tables
	c.matcher = language.NewMatcher(tags)
	c.mu.Unlock()
}

func (c *Catalog) read(fsys fs.FS, dir string) ([]language.Tag, []map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read locale dir %s: %w", dir, err)
	}

	fallback, err := language.Parse(c.fallback)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid fallback locale %q: %w", c.fallback, err)
	}

	var (
		tags   []language.Tag
		tables []map[string]string
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			return nil, nil, fmt.Errorf("locale file %s: %w", name, err)
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, nil, fmt.Errorf("parse locale file %s: %w", name, err)
		}

		// The fallback culture goes first: the matcher falls back to index 0.
		if tag == fallback {
			tags = append([]language.Tag{tag}, tags...)
			tables = append([]map[string]string{table}, tables...)
		} else {
			tags = append(tags, tag)
			tables = append(tables, table)
		}
	}
	if len(tags) == 0 || tags[0] != fallback {
		return nil, nil, fmt.Errorf("no resources for fallback locale %s in %s", c.fallback, dir)
	}
	return tags, tables, nil
}

// Resolve returns the localizer that best matches tag.
// Empty, malformed and unsupported tags resolve to the fallback culture.
func (c *Catalog) Resolve(tag string) ports.Localizer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := 0
	if tag != "" {
		desired, _, err := language.ParseAcceptLanguage(tag)
		if err != nil {
			c.logger.Warn("invalid locale tag, using fallback", "locale", tag, "error", err)
		} else if len(desired) > 0 {
			var conf language.Confidence
			_, idx, conf = c.matcher.Match(desired...)
			if conf == language.No {
				idx = 0
			}
		}
	}
	return &Localizer{tag: c.tags[idx].String(), strings: c.tables[idx]}
}

// Tags lists the supported cultures, fallback first.
func (c *Catalog) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Validate reports every key of the fallback culture missing in another culture.
func (c *Catalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return missingKeys(c.tags, c.tables)
}

// missingKeys checks every culture against the fallback table at index 0.
func missingKeys(tags []language.Tag, tables []map[string]string) error {
	var missing []string
	for i := 1; i < len(tables); i++ {
		for key := range tables[0] {
			if _, ok := tables[i][key]; !ok {
				missing = append(missing, tags[i].String()+":"+key)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", domain.ErrMissingResourceKey, strings.Join(missing, ", "))
	}
	return nil
}

var _ ports.LocalizerResolver = (*Catalog)(nil)

// Localizer is the string table of one culture.
type Localizer struct {
	tag     string
	strings map[string]string
}

// Get returns the string stored under key.
func (l *Localizer) Get(key string) (string, error) {
	s, ok := l.strings[key]
	if !ok {
		return "", fmt.Errorf("%w: %s (locale %s)", domain.ErrMissingResourceKey, key, l.tag)
	}
	return s, nil
}

// Tag returns the culture of the table.
func (l *Localizer) Tag() string {
	return l.tag
}
