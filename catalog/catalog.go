// SPDX-License-Identifier: EPL-2.0

// Package catalog tracks the audio assets of a session and whether each
// one has a decoded WAV next to it.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	clone "github.com/huandu/go-clone/generic"
)

var ErrUnknownAsset = errors.New("unknown asset")

// Descriptor describes one asset. Name is the file's base name without
// its extension.
type Descriptor struct {
	Path    string
	Name    string
	Decoded bool
}

// Catalog is safe for concurrent use.
type Catalog struct {
	decodedPath func(string) string

	mu     sync.RWMutex
	assets map[string]Descriptor
}

// New returns an empty catalog. decodedPath maps an asset path to the path
// of its decoded WAV.
func New(decodedPath func(string) string) *Catalog {
	if decodedPath == nil {
		decodedPath = func(p string) string { return p }
	}
	return &Catalog{
		decodedPath: decodedPath,
		assets:      make(map[string]Descriptor),
	}
}

// NameOf derives the catalog name of path.
func NameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Add records path, replacing an asset with the same name. Decoded is set
// when the decoded file already exists.
func (c *Catalog) Add(path string) Descriptor {
	d := Descriptor{
		Path:    path,
		Name:    NameOf(path),
		Decoded: isFile(c.decodedPath(path)),
	}

	c.mu.Lock()
	c.assets[d.Name] = d
	c.mu.Unlock()

	return d
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func (c *Catalog) Get(name string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.assets[name]
	return d, ok
}

// List returns the assets sorted by name.
func (c *Catalog) List() []Descriptor {
	c.mu.RLock()
	list := make([]Descriptor, 0, len(c.assets))
	for _, d := range c.assets {
		list = append(list, d)
	}
	c.mu.RUnlock()

	slices.SortFunc(list, func(a, b Descriptor) int { return strings.Compare(a.Name, b.Name) })
	return list
}

// Snapshot returns a deep copy of the catalog keyed by name.
func (c *Catalog) Snapshot() map[string]Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return clone.Clone(c.assets)
}

func (c *Catalog) MarkDecoded(name string, decoded bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.assets[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, name)
	}
	d.Decoded = decoded
	c.assets[name] = d

	return nil
}

// DecodedPath is where the decoded WAV of name lives.
func (c *Catalog) DecodedPath(name string) (string, error) {
	d, ok := c.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAsset, name)
	}
	return c.decodedPath(d.Path), nil
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.assets)
}
