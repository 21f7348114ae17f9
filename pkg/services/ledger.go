package services

import (
	"bytes"
	"context"
	"fmt"

	"fiscal/internal/fiscal"
	"fiscal/internal/ledger"
	"fiscal/pkg/models"
)

// DocumentStore holds imported documents and their ledger status.
// ledger.Catalog is the in-memory implementation.
type DocumentStore interface {
	// Add stores a decoded document; raw is its source XML and may be nil
	Add(doc *models.Document, source string, raw []byte) (ledger.Entry, error)

	// Get returns the entry with the given ID
	Get(id string) (ledger.Entry, error)

	// Summaries projects every entry, status joined, in import order
	Summaries() []models.Summary

	// UpdateStatus replaces the entry's ledger status with patch applied
	UpdateStatus(id string, patch models.LedgerPatch, by string) (ledger.Entry, error)

	// Len returns the number of stored entries
	Len() int
}

// ImportObserver is notified about catalog changes.
type ImportObserver interface {
	SetCatalogSize(n int)
	IncrementStatusUpdates()
}

// Imported is the outcome of a successful import.
type Imported struct {
	Entry         ledger.Entry         `json:"entry"`
	Summary       models.Summary       `json:"summary"`
	Discrepancies []fiscal.Discrepancy `json:"discrepancies,omitempty"`
}

// LedgerService decodes documents into a store and maintains their status.
type LedgerService struct {
	decoder  fiscal.DocumentDecoder
	store    DocumentStore
	observer ImportObserver
}

// NewLedgerService wires a decoder to a store. observer may be nil.
func NewLedgerService(decoder fiscal.DocumentDecoder, store DocumentStore, observer ImportObserver) *LedgerService {
	return &LedgerService{decoder: decoder, store: store, observer: observer}
}

// Decoder returns the decoder Import uses, so batch imports share its limits.
func (s *LedgerService) Decoder() fiscal.DocumentDecoder {
	return s.decoder
}

// Import decodes raw and stores the document under source.
func (s *LedgerService) Import(ctx context.Context, source string, raw []byte) (*Imported, error) {
	const op = "Import"

	result, err := s.decoder.Process(ctx, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.Store(source, raw, result)
}

// Store adds an already decoded document.
func (s *LedgerService) Store(source string, raw []byte, result *fiscal.Result) (*Imported, error) {
	const op = "Store"

	entry, err := s.store.Add(result.Document, source, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.observer != nil {
		s.observer.SetCatalogSize(s.store.Len())
	}

	return &Imported{
		Entry:         entry,
		Summary:       entry.Summary(),
		Discrepancies: result.Discrepancies,
	}, nil
}

// UpdateStatus applies patch to the ledger status of id.
func (s *LedgerService) UpdateStatus(id string, patch models.LedgerPatch, by string) (ledger.Entry, error) {
	entry, err := s.store.UpdateStatus(id, patch, by)
	if err != nil {
		return ledger.Entry{}, err
	}
	if s.observer != nil {
		s.observer.IncrementStatusUpdates()
	}
	return entry, nil
}

// Get returns one entry.
func (s *LedgerService) Get(id string) (ledger.Entry, error) {
	return s.store.Get(id)
}

// Summaries returns every stored document as a summary.
func (s *LedgerService) Summaries() []models.Summary {
	return s.store.Summaries()
}
