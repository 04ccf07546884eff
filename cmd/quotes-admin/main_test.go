package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersJobs(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "export-quotations", "renumber-check", "import-products"}, names)
}

func TestParseDateFlag(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "America/Lima")
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("from", "", "")

	got, err := parseDateFlag(cmd, "from")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cmd.Flags().Set("from", "2025-06-01"))
	got, err = parseDateFlag(cmd, "from")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2025-06-01T00:00:00-05:00", got.Format("2006-01-02T15:04:05Z07:00"))

	require.NoError(t, cmd.Flags().Set("from", "June 1"))
	_, err = parseDateFlag(cmd, "from")
	assert.ErrorContains(t, err, "--from")
}

func TestImportProductsRequiresFile(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"import-products"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "file" not set`)
}

func TestExportRejectsBadDates(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"export-quotations", "--from", "01/06/2025"})

	err := root.Execute()
	assert.ErrorContains(t, err, "--from")
}

func TestWriteExportRemovesFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotations.xlsx")

	_, err := writeExport(path, func(w io.Writer) (int, error) {
		_, _ = w.Write([]byte("PK"))
		return 0, errors.New("connection reset")
	})
	assert.EqualError(t, err, "connection reset")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	n, err := writeExport(path, func(w io.Writer) (int, error) {
		_, err := w.Write([]byte("PK-workbook"))
		return 3, err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK-workbook", string(got))
}
