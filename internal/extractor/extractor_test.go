package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZayedShahcode/ChatPDF/internal/testpdf"
)

func TestExtractSinglePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, testpdf.WriteFile(path, "The sky is blue. Grass is green."))

	text, err := Extract(path)
	require.NoError(t, err)
	assert.Contains(t, text, "The sky is blue")
	assert.Contains(t, text, "Grass is green")
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-pdf.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a pdf"), 0o644))

	_, err := Extract(path)
	assert.ErrorIs(t, err, ErrExtraction)
}
