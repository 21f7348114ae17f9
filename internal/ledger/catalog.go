// Package ledger keeps imported documents together with their bookkeeping
// status. Decoded documents are never modified; each status change replaces
// the previous LedgerStatus value.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fiscal/internal/logger"
	"fiscal/internal/summary"
	"fiscal/pkg/models"
)

var (
	// ErrNotFound is returned when no entry has the requested ID.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateDocument is returned when a document with the same access
	// key, or the same content, was already imported.
	ErrDuplicateDocument = errors.New("document already imported")

	// ErrInvalidDocument is returned for a nil or empty document.
	ErrInvalidDocument = errors.New("invalid document")
)

// Entry is an imported document joined with its current status.
type Entry struct {
	ID         string              `json:"id"`
	Document   *models.Document    `json:"document"`
	Status     models.LedgerStatus `json:"status"`
	ImportedAt time.Time           `json:"imported_at"`
	Source     string              `json:"source,omitempty"`
	Hash       string              `json:"hash,omitempty"` // sha256 of the raw XML
}

// Summary projects the entry, joining the ledger status at read time.
func (e Entry) Summary() models.Summary {
	s := summary.ProjectWithStatus(e.Document, e.Status)
	s.ID = e.ID
	imported := e.ImportedAt
	s.EnteredAt = &imported
	return s
}

// Catalog is an in-memory, concurrency-safe document store.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
	byKey   map[string]string
	byHash  map[string]string

	now func() time.Time
	log zerolog.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[string]*Entry),
		byKey:   make(map[string]string),
		byHash:  make(map[string]string),
		now:     time.Now,
		log:     logger.WithComponent("ledger"),
	}
}

// WithClock replaces the time source. Used by tests.
func (c *Catalog) WithClock(now func() time.Time) *Catalog {
	c.now = now
	return c
}

// Add stores a decoded document. raw is the source XML and may be nil.
func (c *Catalog) Add(doc *models.Document, source string, raw []byte) (Entry, error) {
	const op = "Add"

	if doc == nil || (doc.Invoice == nil && doc.Waybill == nil) {
		return Entry{}, fmt.Errorf("%s: %w", op, ErrInvalidDocument)
	}

	hash := ""
	if len(raw) > 0 {
		sum := sha256.Sum256(raw)
		hash = hex.EncodeToString(sum[:])
	}
	key := doc.AccessKey()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byKey[key]; ok && key != "" {
		return Entry{}, fmt.Errorf("%s: %w: access key %s (id %s)", op, ErrDuplicateDocument, key, existing)
	}
	if existing, ok := c.byHash[hash]; ok && hash != "" {
		return Entry{}, fmt.Errorf("%s: %w: same content as id %s", op, ErrDuplicateDocument, existing)
	}

	now := c.now()
	entry := &Entry{
		ID:         uuid.NewString(),
		Document:   doc,
		Status:     models.NewLedgerStatus(doc.Family, now),
		ImportedAt: now,
		Source:     source,
		Hash:       hash,
	}
	c.entries[entry.ID] = entry
	c.order = append(c.order, entry.ID)
	if key != "" {
		c.byKey[key] = entry.ID
	}
	if hash != "" {
		c.byHash[hash] = entry.ID
	}

	c.log.Debug().
		Str("id", entry.ID).
		Str("family", string(doc.Family)).
		Str("access_key", key).
		Str("source", source).
		Msg("Document added to catalog")

	return *entry, nil
}

// Get returns the entry with the given ID.
func (c *Catalog) Get(id string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("Get: %w: %s", ErrNotFound, id)
	}
	return *entry, nil
}

// FindByAccessKey returns the entry holding the given access key.
func (c *Catalog) FindByAccessKey(key string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byKey[key]
	if !ok {
		return Entry{}, fmt.Errorf("FindByAccessKey: %w: %s", ErrNotFound, key)
	}
	return *c.entries[id], nil
}

// List returns every entry in import order.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.entries[id])
	}
	return out
}

// Summaries projects every entry in import order.
func (c *Catalog) Summaries() []models.Summary {
	entries := c.List()
	out := make([]models.Summary, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Summary())
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// UpdateStatus applies patch to the entry's status and stores the result as a
// new value. The stock flag is dropped for waybills.
func (c *Catalog) UpdateStatus(id string, patch models.LedgerPatch, by string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("UpdateStatus: %w: %s", ErrNotFound, id)
	}

	next := *entry
	next.Status = entry.Status.Apply(patch, entry.Document.Family, by, c.now())
	c.entries[id] = &next

	c.log.Info().
		Str("id", id).
		Bool("accounted", next.Status.Accounted).
		Bool("payables_posted", next.Status.PayablesPosted).
		Str("updated_by", by).
		Msg("Ledger status updated")

	return next, nil
}
