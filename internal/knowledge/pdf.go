package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxUploadSize limits knowledge uploads (20MB)
	MaxUploadSize = 20 * 1024 * 1024

	previewPages = 3
	previewChars = 2000
)

// ErrNotPDF is returned for uploads that are not readable PDF documents.
var ErrNotPDF = errors.New("please select a PDF file")

// PDFInfo describes a document checked before upload
type PDFInfo struct {
	PageCount int
	WordCount int
	Preview   string
}

// CheckUpload validates a knowledge upload: .pdf extension, size limit and a
// parseable PDF with at least one page
func CheckUpload(filename string, data []byte) (*PDFInfo, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, ErrNotPDF
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNotPDF, filename)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%s is too large (%d bytes, max %d)", filename, len(data), MaxUploadSize)
	}
	return InspectPDF(data)
}

// InspectPDF opens the document, counts pages and extracts a short text preview
func InspectPDF(data []byte) (info *PDFInfo, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("%w: unreadable document", ErrNotPDF)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrNotPDF)
	}

	var text strings.Builder
	for n := 1; n <= pages && n <= previewPages; n++ {
		text.WriteString(pageText(reader, n))
		if text.Len() > previewChars {
			break
		}
	}

	cleaned := cleanText(text.String())
	return &PDFInfo{
		PageCount: pages,
		WordCount: countWords(cleaned),
		Preview:   preview(cleaned, previewChars),
	}, nil
}

// pageText returns the plain text of page n, or "" when it cannot be extracted
func pageText(reader *pdf.Reader, n int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text + "\n"
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	var b strings.Builder
	lastWasSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune('\n')
			lastWasSpace = false
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		default:
			b.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

func countWords(text string) int {
	return len(strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
}

// preview cuts text at a word boundary near max characters
func preview(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
