package batch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal/internal/batch"
	"fiscal/internal/fiscal"
	"fiscal/internal/fiscal/fiscaltest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 12; i++ {
		key := fmt.Sprintf("352401123456780001905500100000%04d1000012345", i)
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("nfe-%02d.xml", i),
			fiscaltest.Invoice(fiscaltest.Options{AccessKey: key})))
	}
	paths = append(paths, writeFile(t, dir, "broken.xml", "<nfeProc><NFe attr=></NFe></nfeProc>"))
	paths = append(paths, filepath.Join(dir, "missing.xml"))

	var calls atomic.Int32
	results, err := batch.NewProcessor(fiscal.NewService(fiscal.Options{}), 3).
		OnProgress(func(done, total int, r batch.Result) {
			calls.Add(1)
			assert.Equal(t, 14, total)
		}).
		Run(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 14)
	assert.Equal(t, int32(14), calls.Load())

	for i := 0; i < 12; i++ {
		assert.Equal(t, i, results[i].Index)
		assert.Equal(t, paths[i], results[i].Path)
		assert.Equal(t, batch.StatusSuccess, results[i].Status)
		require.NotNil(t, results[i].Result)
		assert.Contains(t, results[i].Result.Document.AccessKey(), fmt.Sprintf("%04d", i))
		assert.NotEmpty(t, results[i].Raw)
	}

	assert.Equal(t, batch.StatusError, results[12].Status)
	assert.ErrorIs(t, results[12].Err, fiscal.ErrMalformedDocument)
	assert.Equal(t, batch.StatusError, results[13].Status)
	assert.ErrorIs(t, results[13].Err, os.ErrNotExist)

	assert.Equal(t, batch.Counts{Success: 12, Error: 2}, batch.Count(results))
}

func TestInconsistentTotalsAreWarnings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nfe.xml", fiscaltest.Invoice(fiscaltest.Options{Total: "999.99"}))

	results, err := batch.NewProcessor(fiscal.NewService(fiscal.Options{CheckTotals: true}), 1).
		Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, batch.StatusWarning, results[0].Status)
	assert.NotEmpty(t, results[0].Result.Discrepancies)
	assert.Equal(t, "nfe.xml", results[0].Filename())
}

func TestRunHonorsCanceledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cte.xml", fiscaltest.Waybill(fiscaltest.Options{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := batch.NewProcessor(fiscal.NewService(fiscal.Options{}), 0).Run(ctx, []string{path, path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindXMLFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.xml", "")
	writeFile(t, dir, "a.XML", "")
	writeFile(t, dir, "sub/c.xml", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := batch.FindXMLFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		rel, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"a.XML", "b.xml", "sub/c.xml"}, names)

	single, err := batch.FindXMLFiles(filepath.Join(dir, "b.xml"))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = batch.FindXMLFiles(filepath.Join(dir, "nope"))
	assert.True(t, strings.Contains(err.Error(), "nope"))
}
