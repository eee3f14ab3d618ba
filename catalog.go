package synlex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrUnknownFormat is returned when a grammar file's extension does not
// map to any of the registered Grammar Decoders.
var ErrUnknownFormat = errors.New("synlex: unknown grammar file format")

// ErrScopeMismatch is attached to the warning Watch logs when a reloaded
// file's scope name no longer matches the scope it was originally indexed
// under. It is not returned: the stale entry is dropped and the file is
// re-indexed under its new scope.
var ErrScopeMismatch = errors.New("synlex: grammar scope changed on reload")

// CatalogEntry is one indexed-but-not-yet-compiled grammar: its scope
// name, file extensions and first-line-match template, and the decoded
// document it came from. Grounded in the teacher's Loader, which indexes
// *GrammarJSON the same way before CompileGrammar ever runs.
type CatalogEntry struct {
	Path           string
	Scope          string
	FileExtensions []string
	FirstLineMatch string
	Doc            GrammarDocument
}

// Catalog indexes many decoded grammars by scope name and file extension
// across one or more directories, compiling a *Grammar from a
// GrammarDocument lazily, on first request, and caching the result.
type Catalog struct {
	mu        sync.RWMutex
	scopes    map[string]*CatalogEntry
	filetypes map[string][]*CatalogEntry
	compiled  map[string]*Grammar // keyed by scope; invalidated on reload

	dirs   []string
	logger *zap.Logger
}

// CatalogOption configures NewCatalog.
type CatalogOption func(*Catalog)

// WithLogger sets the *zap.Logger used for decode failures and watch
// events. The default is zap.NewNop(), matching a library that should
// never force a logging configuration on its caller.
func WithLogger(logger *zap.Logger) CatalogOption {
	return func(c *Catalog) { c.logger = logger }
}

// NewCatalog decodes every grammar file yielded by paths and indexes it by
// scope name and file extension. A file that fails to decode is logged
// and skipped rather than aborting the whole catalog - mirroring the
// teacher's loadFile behavior in NewLoader, just with a real logger
// instead of a commented-out Fprintf.
func NewCatalog(paths iter.Seq[string], opts ...CatalogOption) *Catalog {
	c := &Catalog{
		scopes:    make(map[string]*CatalogEntry),
		filetypes: make(map[string][]*CatalogEntry),
		compiled:  make(map[string]*Grammar),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for pathname := range paths {
		c.indexFile(pathname)
	}
	return c
}

// NewCatalogFromDir walks dir (recursively if walk is true) and indexes
// every file NewCatalog can decode, additionally remembering dir so
// Watch can later re-index it.
func NewCatalogFromDir(dir string, walk bool, opts ...CatalogOption) *Catalog {
	c := NewCatalog(dirEntries(dir, walk), opts...)
	c.dirs = append(c.dirs, dir)
	return c
}

func dirEntries(dir string, walk bool) iter.Seq[string] {
	if walk {
		return func(yield func(string) bool) {
			filepath.WalkDir(dir, func(pathname string, d fs.DirEntry, err error) error {
				if err == nil && !d.IsDir() {
					if !yield(pathname) {
						return filepath.SkipAll
					}
				}
				return nil
			})
		}
	}
	return func(yield func(string) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				if !yield(filepath.Join(dir, entry.Name())) {
					return
				}
			}
		}
	}
}

func (c *Catalog) indexFile(pathname string) {
	doc, err := decodeGrammarFile(pathname)
	if err != nil {
		c.logger.Warn("grammar decode failed", zap.String("path", pathname), zap.Error(err))
		return
	}

	entry := &CatalogEntry{
		Path:           pathname,
		Scope:          doc.Scope,
		FileExtensions: doc.FileExtensions,
		FirstLineMatch: doc.FirstLineMatch,
		Doc:            doc,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes[entry.Scope] = entry
	for _, ext := range entry.FileExtensions {
		ext = strings.TrimPrefix(ext, ".")
		c.filetypes[ext] = append(c.filetypes[ext], entry)
	}
}

// decodeGrammarFile reads pathname and picks a Grammar Decoder by
// extension.
func decodeGrammarFile(pathname string) (GrammarDocument, error) {
	content, err := os.ReadFile(pathname)
	if err != nil {
		return GrammarDocument{}, err
	}
	switch ext := strings.ToLower(filepath.Ext(pathname)); ext {
	case ".yaml", ".yml", ".sublime-syntax":
		return DecodeYAML(content)
	case ".json":
		return DecodeJSON(content)
	case ".plist", ".tmlanguage":
		return DecodePlist(content)
	default:
		return GrammarDocument{}, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// FromScope compiles (or returns the cached compile of) the grammar
// registered under scope.
func (c *Catalog) FromScope(scope string) (*Grammar, error) {
	c.mu.RLock()
	if g, ok := c.compiled[scope]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	entry, ok := c.scopes[scope]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("synlex: %w: scope %q", os.ErrNotExist, scope)
	}
	return c.compileEntry(entry)
}

// FromFileType compiles (or returns the cached compile of) the index-th
// grammar registered under file extension ext.
func (c *Catalog) FromFileType(ext string, index int) (*Grammar, error) {
	ext = strings.TrimPrefix(ext, ".")
	c.mu.RLock()
	entries, ok := c.filetypes[ext]
	if !ok || index >= len(entries) {
		c.mu.RUnlock()
		return nil, fmt.Errorf("synlex: %w: file type %q[%d]", os.ErrNotExist, ext, index)
	}
	entry := entries[index]
	if g, ok := c.compiled[entry.Scope]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()
	return c.compileEntry(entry)
}

func (c *Catalog) compileEntry(entry *CatalogEntry) (*Grammar, error) {
	g, err := Compile(entry.Doc)
	if err != nil {
		return nil, fmt.Errorf("synlex: compile %q: %w", entry.Path, err)
	}
	c.mu.Lock()
	c.compiled[entry.Scope] = g
	c.mu.Unlock()
	return g, nil
}

// Scopes iterates every indexed scope name.
func (c *Catalog) Scopes() iter.Seq[string] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Keys(maps.Clone(c.scopes))
}

// FileTypes iterates every indexed file extension.
func (c *Catalog) FileTypes() iter.Seq[string] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Keys(maps.Clone(c.filetypes))
}

// Watch starts an fsnotify watch on every directory this catalog was
// built from (NewCatalogFromDir) and re-indexes a file whenever it is
// created, written, or removed, invalidating any already-compiled Grammar
// for the affected scope. It blocks until ctx is canceled or the watcher
// errors unrecoverably; a single file that fails to decode during a
// reload is logged and otherwise ignored, matching NewCatalog's own
// load-time tolerance.
func (c *Catalog) Watch(ctx context.Context) error {
	if len(c.dirs) == 0 {
		return fmt.Errorf("synlex: Watch requires a catalog built with NewCatalogFromDir")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("synlex: watch: %w", err)
	}
	defer watcher.Close()

	for _, dir := range c.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("synlex: watch %q: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleWatchEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("grammar watch error", zap.Error(err))
		}
	}
}

func (c *Catalog) handleWatchEvent(event fsnotify.Event) {
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		c.logger.Info("grammar file changed, reloading", zap.String("path", event.Name))
		c.reindexFile(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		c.logger.Info("grammar file removed", zap.String("path", event.Name))
		c.removeFile(event.Name)
	}
}

func (c *Catalog) reindexFile(pathname string) {
	doc, err := decodeGrammarFile(pathname)
	if err != nil {
		c.logger.Warn("grammar decode failed on reload", zap.String("path", pathname), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.findByPathLocked(pathname); ok && old.Scope != doc.Scope {
		c.logger.Warn("grammar scope changed on reload, dropping stale entry",
			zap.String("path", pathname), zap.Error(ErrScopeMismatch))
		c.removeEntryLocked(old)
	}

	entry := &CatalogEntry{
		Path:           pathname,
		Scope:          doc.Scope,
		FileExtensions: doc.FileExtensions,
		FirstLineMatch: doc.FirstLineMatch,
		Doc:            doc,
	}
	c.scopes[entry.Scope] = entry
	for _, ext := range entry.FileExtensions {
		ext = strings.TrimPrefix(ext, ".")
		c.filetypes[ext] = appendUniqueEntry(c.filetypes[ext], entry)
	}
	delete(c.compiled, entry.Scope)
}

func (c *Catalog) removeFile(pathname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.findByPathLocked(pathname); ok {
		c.removeEntryLocked(entry)
	}
}

func (c *Catalog) findByPathLocked(pathname string) (*CatalogEntry, bool) {
	for _, entry := range c.scopes {
		if entry.Path == pathname {
			return entry, true
		}
	}
	return nil, false
}

func (c *Catalog) removeEntryLocked(entry *CatalogEntry) {
	delete(c.scopes, entry.Scope)
	delete(c.compiled, entry.Scope)
	for _, ext := range entry.FileExtensions {
		ext = strings.TrimPrefix(ext, ".")
		c.filetypes[ext] = removeEntry(c.filetypes[ext], entry)
	}
}

func appendUniqueEntry(entries []*CatalogEntry, entry *CatalogEntry) []*CatalogEntry {
	for i, e := range entries {
		if e.Scope == entry.Scope {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

func removeEntry(entries []*CatalogEntry, entry *CatalogEntry) []*CatalogEntry {
	out := entries[:0]
	for _, e := range entries {
		if e != entry {
			out = append(out, e)
		}
	}
	return out
}
