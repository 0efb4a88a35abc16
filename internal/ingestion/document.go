package ingestion

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// Format identifies a supported document encoding.
type Format string

// Supported formats
const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ExtractionError reports a document that could not be read or yielded no text.
type ExtractionError struct {
	FileName string
	Message  string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extracting %s: %s: %v", e.FileName, e.Message, e.Cause)
	}
	return fmt.Sprintf("extracting %s: %s", e.FileName, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:br />`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

// SetLicenseKey installs the metered PDF library key. It is a no-op when key is empty.
func SetLicenseKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}

// DetectFormat returns the document format for a file name, based on its extension.
func DetectFormat(filename string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDOCX, true
	case "txt", "text":
		return FormatText, true
	case "md", "markdown":
		return FormatMarkdown, true
	case "html", "htm":
		return FormatHTML, true
	}
	return "", false
}

// ExtractText returns the cleaned plain text of a document. The format is chosen from filename.
func ExtractText(data []byte, filename string) (string, error) {
	format, ok := DetectFormat(filename)
	if !ok {
		return "", &ExtractionError{FileName: filename, Message: "unsupported file type " + filepath.Ext(filename)}
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatHTML:
		text, err = extractHTML(data)
	default:
		text = string(data)
	}
	if err != nil {
		return "", &ExtractionError{FileName: filename, Message: "malformed document", Cause: err}
	}

	text = CleanText(text)
	if text == "" && format == FormatPDF {
		return "", &ExtractionError{FileName: filename, Message: "no text could be extracted"}
	}
	return text, nil
}

// extractPDF reads the document page by page. Pages that fail to extract are skipped.
func extractPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil || strings.TrimSpace(pageText) == "" {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer func() { _ = r.Close() }()

	return docxPlainText(r.Editable().GetContent()), nil
}

// docxPlainText turns WordprocessingML into text, one paragraph per line.
func docxPlainText(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}
