package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	input := "# Title\n## Subtitle\nContent here"
	result := CleanText(input)

	assert.Contains(t, result, "# Title")
	assert.Contains(t, result, "## Subtitle")
	assert.Contains(t, result, "Content here")
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	input := "- Item 1\n- Item 2\n* Item 3"
	result := CleanText(input)

	assert.Contains(t, result, "- Item 1")
	assert.Contains(t, result, "- Item 2")
	assert.Contains(t, result, "* Item 3")
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	input := "Line    with    multiple    spaces"
	result := CleanText(input)

	assert.Contains(t, result, "Line with multiple spaces")
	assert.NotContains(t, result, "    ") // Should not have 4 spaces
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	input := "Line 1\n\n\n\n\nLine 2"
	result := CleanText(input)

	// Should have max 2 consecutive newlines
	assert.NotContains(t, result, "\n\n\n\n")
	// But should preserve up to 2
	assert.Contains(t, result, "\n\n")
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	input := "Line 1\r\nLine 2\rLine 3\nLine 4"
	result := CleanText(input)

	// All should be normalized to LF
	assert.NotContains(t, result, "\r\n")
	assert.NotContains(t, result, "\r")
	assert.Contains(t, result, "\n")
}

func TestCleanText_DeterministicOutput(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	result1 := CleanText(input)
	result2 := CleanText(input)

	// Same input should produce identical output
	assert.Equal(t, result1, result2)
}

func TestCleanText_EmptyInput(t *testing.T) {
	result := CleanText("")
	assert.Empty(t, result)
}

func TestCleanText_OnlyWhitespace(t *testing.T) {
	result := CleanText("   \n  \n  ")
	assert.Empty(t, result)
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	result := CleanText(input)

	assert.Contains(t, result, "émojis")
	assert.Contains(t, result, "🚀")
	assert.Contains(t, result, "spéciàl chàracters")
}

func TestCleanText_PreserveIndentation(t *testing.T) {
	input := "    Indented line\n  Less indented"
	result := CleanText(input)

	// Should preserve relative indentation
	assert.Contains(t, result, "Indented")
	assert.Contains(t, result, "Less indented")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngestFromFile_Success(t *testing.T) {
	path := writeFile(t, "prd.md", "# Trail Tracker\n\nHikers   record routes offline.")

	cleanedText, metadata, err := IngestFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "# Trail Tracker\n\nHikers record routes offline.", cleanedText)
	require.NotNil(t, metadata)
	assert.Len(t, metadata.Hash, 64)
	assert.NotEmpty(t, metadata.Timestamp)
	assert.Equal(t, FormatMarkdown, metadata.Format)
	assert.Equal(t, path, metadata.Path)
	assert.Empty(t, metadata.URL)
}

func TestIngestFromFile_HTML(t *testing.T) {
	html := `<html><body>
		<nav>Home | Docs</nav>
		<main><h1>Inventory Portal</h1><p>Warehouse staff manage stock from desktop browsers.</p></main>
		<footer>Copyright</footer>
	</body></html>`
	path := writeFile(t, "prd.html", html)

	cleanedText, metadata, err := IngestFromFile(path)
	require.NoError(t, err)
	assert.Contains(t, cleanedText, "Inventory Portal")
	assert.Contains(t, cleanedText, "desktop browsers")
	assert.NotContains(t, cleanedText, "Home | Docs")
	assert.NotContains(t, cleanedText, "Copyright")
	assert.Equal(t, FormatHTML, metadata.Format)
}

func TestIngestFromFile_InvalidPDF(t *testing.T) {
	path := writeFile(t, "prd.pdf", "this is not a pdf")

	_, metadata, err := IngestFromFile(path)
	require.Error(t, err)
	assert.Nil(t, metadata)
	assert.ErrorIs(t, err, ErrContentExtractionFailed)
}

func TestIngestFromFile_Empty(t *testing.T) {
	path := writeFile(t, "prd.txt", "  \n\n\t\n")

	_, _, err := IngestFromFile(path)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestFromFile_FileNotFound(t *testing.T) {
	cleanedText, metadata, err := IngestFromFile("/nonexistent/file.txt")

	assert.Error(t, err)
	assert.Empty(t, cleanedText)
	assert.Nil(t, metadata)
	assert.Contains(t, err.Error(), "file not found")
}

func TestIngestFromFile_HashStability(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	third := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(first, []byte("Content   1"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("Content 1\n\n"), 0644))
	require.NoError(t, os.WriteFile(third, []byte("Content 2"), 0644))

	_, m1, err := IngestFromFile(first)
	require.NoError(t, err)
	_, m2, err := IngestFromFile(second)
	require.NoError(t, err)
	_, m3, err := IngestFromFile(third)
	require.NoError(t, err)

	// The hash covers cleaned text, so whitespace-only differences collapse.
	assert.Equal(t, m1.Hash, m2.Hash)
	assert.NotEqual(t, m1.Hash, m3.Hash)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatMarkdown, DetectFormat("docs/PRD.MD"))
	assert.Equal(t, FormatMarkdown, DetectFormat("prd.markdown"))
	assert.Equal(t, FormatHTML, DetectFormat("export.htm"))
	assert.Equal(t, FormatPDF, DetectFormat("spec.pdf"))
	assert.Equal(t, FormatText, DetectFormat("notes.txt"))
	assert.Equal(t, FormatText, DetectFormat("README"))
}

func TestWriteOutput(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "nested", "out")
	metadata := NewMetadata("PRD body", "https://example.com/prd")
	metadata.Format = FormatHTML

	require.NoError(t, WriteOutput(outDir, "PRD body", metadata))

	text, err := os.ReadFile(filepath.Join(outDir, CleanedTextFile))
	require.NoError(t, err)
	assert.Equal(t, "PRD body", string(text))

	metaJSON, err := os.ReadFile(filepath.Join(outDir, MetadataFile))
	require.NoError(t, err)
	assert.Contains(t, string(metaJSON), `"url": "https://example.com/prd"`)
	assert.Contains(t, string(metaJSON), `"format": "html"`)
}

func TestCleanText_ComplexFormatting(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "field_service_prd.md"))
	require.NoError(t, err)

	result := CleanText(string(content))

	assert.Contains(t, result, "# Field Service App")
	assert.Contains(t, result, "## Requirements")
	assert.Contains(t, result, "- Capture photos with the camera")
	assert.Contains(t, result, "  * Sync when connectivity returns")
	assert.Contains(t, result, "Technicians work on site all day.")
	assert.NotContains(t, result, "\n\n\n")
	assert.NotContains(t, result, "\r")
}

func TestExtractPDFText_Empty(t *testing.T) {
	_, err := ExtractPDFText(nil)
	assert.Error(t, err)
}
