package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal/internal/fiscal"
	"fiscal/internal/fiscal/fiscaltest"
	"fiscal/internal/ledger"
	"fiscal/pkg/models"
	"fiscal/pkg/services"
)

func newCriteriaCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addCriteriaFlags(c)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestCriteriaFromFlags(t *testing.T) {
	criteria, err := criteriaFromFlags(newCriteriaCommand(t, "--family", "cte", "--min-value", "10,5", "--accounted", "false"))
	require.NoError(t, err)
	assert.Equal(t, models.FamilyWaybill, criteria.Family)
	require.NotNil(t, criteria.MinValue)
	assert.Equal(t, "10.5", criteria.MinValue.String())
	require.NotNil(t, criteria.Accounted)
	assert.False(t, *criteria.Accounted)

	criteria, err = criteriaFromFlags(newCriteriaCommand(t))
	require.NoError(t, err)
	assert.True(t, criteria.IsEmpty())

	_, err = criteriaFromFlags(newCriteriaCommand(t, "--start-date", "31/01/2024"))
	assert.Error(t, err)
}

func TestImportFolderSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.xml":     fiscaltest.Invoice(fiscaltest.Options{}),
		"b.xml":     fiscaltest.Invoice(fiscaltest.Options{NoProtocol: true}),
		"c.xml":     fiscaltest.Waybill(fiscaltest.Options{}),
		"d.xml":     "<pedido/>",
		"notes.txt": "ignored",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	svc := services.NewLedgerService(fiscal.NewService(fiscal.Options{}), ledger.NewCatalog(), nil)
	var lines []string
	counts, err := importFolder(context.Background(), dir, svc, 2, zerolog.Nop(), func(l string) {
		lines = append(lines, l)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, counts.Success)
	assert.Equal(t, 1, counts.Error)
	assert.Equal(t, 1, counts.Duplicates)
	assert.Len(t, lines, 4)
	assert.Len(t, svc.Summaries(), 2)
}

func TestImportFolderHonorsDocumentSizeLimit(t *testing.T) {
	dir := t.TempDir()
	invoice := fiscaltest.Invoice(fiscaltest.Options{})
	require.Greater(t, len(invoice), 1024)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.xml"), []byte(invoice), 0o644))

	svc := services.NewLedgerService(fiscal.NewService(fiscal.Options{MaxSize: 1024}), ledger.NewCatalog(), nil)
	var lines []string
	counts, err := importFolder(context.Background(), dir, svc, 1, zerolog.Nop(), func(l string) {
		lines = append(lines, l)
	})
	require.NoError(t, err)

	assert.Equal(t, 0, counts.Success)
	assert.Equal(t, 1, counts.Error)
	assert.Empty(t, svc.Summaries())
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], fiscal.ErrDocumentTooLarge.Error())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "Metalú…", truncate("Metalúrgica", 7))
}
