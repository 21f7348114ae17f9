// Package fiscal decodes Brazilian electronic fiscal documents.
//
// Two document families are supported: goods invoices (NFe, model 55/65) and
// transport waybills (CTe, model 57). Both the bare document and the form
// wrapped with the authority's authorization protocol (nfeProc, cteProc) are
// accepted.
//
// Decoding is pure and safe for concurrent use:
//   - Decode classifies the XML and dispatches to DecodeInvoice or DecodeWaybill
//   - Monetary values and quantities keep their source text (models.Decimal)
//   - Optional sections decode to nil, missing required ones fail with
//     ErrMissingRequiredSection
//   - No XSD validation, no signature verification, no tax recomputation
//
// Service adds the operational layer around it: size limits, logging,
// metrics and the optional totals consistency check.
package fiscal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"fiscal/internal/logger"
	"fiscal/pkg/models"
)

// MaxDocumentSizeBytes is the largest document accepted by Service.
// Authorized documents rarely exceed a few hundred kilobytes.
const MaxDocumentSizeBytes int64 = 10 * 1024 * 1024

// DocumentDecoder defines the interface for fiscal document decoding services.
type DocumentDecoder interface {
	// Process reads one XML document and returns its decoded record.
	Process(ctx context.Context, r io.Reader) (*Result, error)
}

// Observer receives decode outcomes. internal/metrics implements it.
type Observer interface {
	ObserveDecoded(family models.Family, elapsed time.Duration)
	ObserveFailed(reason string)
}

// Result is a decoded document plus the outcome of the optional totals check.
type Result struct {
	Document      *models.Document `json:"document"`
	Discrepancies []Discrepancy    `json:"discrepancies,omitempty"`
}

// Consistent reports whether no discrepancy was found.
func (r *Result) Consistent() bool {
	return len(r.Discrepancies) == 0
}

// Options configures a Service.
type Options struct {
	// CheckTotals enables the totals consistency check.
	CheckTotals bool

	// MaxSize overrides MaxDocumentSizeBytes when positive.
	MaxSize int64

	// Observer is notified of every outcome. Optional.
	Observer Observer
}

// Service decodes documents read from an io.Reader.
type Service struct {
	opts  Options
	check *ConsistencyCheck
	log   zerolog.Logger
}

// NewService creates a decoding service.
func NewService(opts Options) *Service {
	if opts.MaxSize <= 0 {
		opts.MaxSize = MaxDocumentSizeBytes
	}
	return &Service{
		opts:  opts,
		check: NewConsistencyCheck(),
		log:   logger.WithComponent("fiscal"),
	}
}

// Process implements DocumentDecoder.
func (s *Service) Process(ctx context.Context, r io.Reader) (*Result, error) {
	const op = "Process"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxSize+1))
	if err != nil {
		s.fail(err)
		return nil, WrapDecodeError(op, err, "failed to read document")
	}
	if int64(len(data)) > s.opts.MaxSize {
		s.fail(ErrDocumentTooLarge)
		return nil, NewDecodeError(op, ErrDocumentTooLarge, fmt.Sprintf("limit %d bytes", s.opts.MaxSize))
	}

	doc, err := Decode(string(data))
	if err != nil {
		s.fail(err)
		return nil, WrapDecodeError(op, err, "")
	}

	result := &Result{Document: doc}
	if s.opts.CheckTotals {
		result.Discrepancies = s.check.Check(doc)
	}

	elapsed := time.Since(start)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveDecoded(doc.Family, elapsed)
	}

	s.log.Debug().
		Str("family", string(doc.Family)).
		Str("access_key", doc.AccessKey()).
		Int("bytes", len(data)).
		Dur("duration", elapsed).
		Msg("Document decoded")

	return result, nil
}

func (s *Service) fail(err error) {
	reason := FailureReason(err)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveFailed(reason)
	}
	s.log.Debug().Err(err).Str("reason", reason).Msg("Document decode failed")
}
