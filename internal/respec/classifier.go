package respec

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/redefine-mcp/pkg/types"
)

// Classifier repairs single lines of re-rendered source
type Classifier struct {
	registry *Registry

	mu      sync.Mutex
	cache   *lru.Cache[string, string]
	version uint64 // Registry version the cache was filled against
}

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier) error

// WithCache memoizes reconstructed lines in an LRU of the given size.
// The cache is purged whenever the registry changes.
func WithCache(size int) ClassifierOption {
	return func(c *Classifier) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[string, string](size)
		if err != nil {
			return fmt.Errorf("failed to create classifier cache: %w", err)
		}
		c.cache = cache
		return nil
	}
}

// NewClassifier creates a Classifier dispatching to registry
func NewClassifier(registry *Registry, opts ...ClassifierOption) (*Classifier, error) {
	c := &Classifier{registry: registry, version: registry.Version()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Registry returns the registry the classifier dispatches to
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// ParseEntry splits a marked line into a special-form entry. It returns false
// for lines that do not carry the corruption marker.
func ParseEntry(line string) (types.SpecialFormEntry, bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	if trimmed == "" || rune(trimmed[0]) != Marker {
		return types.SpecialFormEntry{}, false
	}

	segments := strings.Split(trimmed, fieldSeparator)
	raw := segments[1:]

	// The first clean token names the form; the handler gets the raw rest
	nameIdx := -1
	var name string
	for i, seg := range raw {
		if tok := CleanToken(seg); tok != "" {
			name, nameIdx = tok, i
			break
		}
	}
	if nameIdx < 0 {
		return types.SpecialFormEntry{RawTokens: raw}, true
	}

	return types.SpecialFormEntry{
		FormName:  name,
		RawTokens: raw[nameIdx+1:],
	}, true
}

// Classify returns line unchanged unless it encodes a corrupted special form,
// in which case the reconstructed statement is returned. An unregistered form
// yields an *types.UnknownFormError.
func (c *Classifier) Classify(line string) (string, error) {
	entry, marked := ParseEntry(line)
	if !marked {
		return line, nil
	}

	if cached, ok := c.cached(line); ok {
		return cached, nil
	}

	if entry.FormName == "" {
		return "", &types.UnknownFormError{Line: line}
	}

	text, err := c.registry.Reconstruct(entry)
	if err != nil {
		var unknown *types.UnknownFormError
		if errors.As(err, &unknown) && unknown.Line == "" {
			unknown.Line = line
		}
		return "", err
	}

	c.store(line, text)
	return text, nil
}

func (c *Classifier) cached(line string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := c.registry.Version(); v != c.version {
		c.cache.Purge()
		c.version = v
		return "", false
	}
	return c.cache.Get(line)
}

func (c *Classifier) store(line, text string) {
	if c.cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registry.Version() == c.version {
		c.cache.Add(line, text)
	}
}
