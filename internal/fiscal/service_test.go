package fiscal_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal/internal/fiscal"
	"fiscal/internal/fiscal/fiscaltest"
	"fiscal/pkg/models"
)

type recordingObserver struct {
	mu      sync.Mutex
	decoded []models.Family
	failed  []string
}

func (o *recordingObserver) ObserveDecoded(family models.Family, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decoded = append(o.decoded, family)
}

func (o *recordingObserver) ObserveFailed(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, reason)
}

func TestServiceProcess(t *testing.T) {
	obs := &recordingObserver{}
	svc := fiscal.NewService(fiscal.Options{CheckTotals: true, Observer: obs})
	ctx := context.Background()

	result, err := svc.Process(ctx, strings.NewReader(fiscaltest.Invoice(fiscaltest.Options{Total: "400.00"})))
	require.NoError(t, err)
	assert.False(t, result.Consistent())
	assert.Equal(t, models.FamilyInvoice, result.Document.Family)

	_, err = svc.Process(ctx, strings.NewReader("<nada/>"))
	assert.ErrorIs(t, err, fiscal.ErrUnrecognizedDocumentType)

	assert.Equal(t, []models.Family{models.FamilyInvoice}, obs.decoded)
	assert.Equal(t, []string{"unrecognized"}, obs.failed)
}

func TestServiceSkipsTotalsByDefault(t *testing.T) {
	svc := fiscal.NewService(fiscal.Options{})

	result, err := svc.Process(context.Background(), strings.NewReader(fiscaltest.Invoice(fiscaltest.Options{Total: "400.00"})))
	require.NoError(t, err)
	assert.True(t, result.Consistent())
}

func TestServiceSizeLimit(t *testing.T) {
	obs := &recordingObserver{}
	svc := fiscal.NewService(fiscal.Options{MaxSize: 64, Observer: obs})

	_, err := svc.Process(context.Background(), strings.NewReader(fiscaltest.Waybill(fiscaltest.Options{})))
	assert.ErrorIs(t, err, fiscal.ErrDocumentTooLarge)
	assert.Equal(t, []string{"too_large"}, obs.failed)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestServiceReadFailureIsDecodeError(t *testing.T) {
	obs := &recordingObserver{}
	readErr := errors.New("connection reset")
	svc := fiscal.NewService(fiscal.Options{Observer: obs})

	_, err := svc.Process(context.Background(), failingReader{err: readErr})
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)

	var decodeErr *fiscal.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "Process", decodeErr.Op)
	assert.Equal(t, "failed to read document", decodeErr.Details)
	assert.Equal(t, []string{"other"}, obs.failed)
}

func TestServiceKeepsDecoderErrorOp(t *testing.T) {
	_, err := fiscal.NewService(fiscal.Options{}).Process(context.Background(), strings.NewReader("<nfeProc><NFe/></nfeProc>"))
	assert.ErrorIs(t, err, fiscal.ErrMissingRequiredSection)

	var decodeErr *fiscal.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "DecodeInvoice", decodeErr.Op)
}

func TestServiceCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fiscal.NewService(fiscal.Options{}).Process(ctx, strings.NewReader(fiscaltest.Waybill(fiscaltest.Options{})))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeIsSafeForConcurrentUse(t *testing.T) {
	raw := fiscaltest.Invoice(fiscaltest.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := fiscal.Decode(raw)
			assert.NoError(t, err)
			assert.Equal(t, fiscaltest.InvoiceTotal, doc.Invoice.Totals.Invoice.String())
		}()
	}
	wg.Wait()
}
