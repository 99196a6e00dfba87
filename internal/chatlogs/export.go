package chatlogs

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
)

const sheetName = "Chat Logs"

var markdown = goldmark.New()

// Export writes logs to path; the format follows the extension (.xlsx or .html)
func Export(logs []Log, path, title string) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		write = func(w io.Writer) error { return WriteXLSX(logs, w) }
	case ".html", ".htm":
		write = func(w io.Writer) error { return WriteHTML(logs, w, title) }
	default:
		return fmt.Errorf("unsupported export format %q, use .xlsx or .html", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteXLSX writes a workbook with one row per exchange
func WriteXLSX(logs []Log, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"ID", "Date", "Time", "Input", "Response"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, l := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			string(l.ID),
			l.Time.Format(DateLayout),
			l.Time.Format("15:04"),
			l.Input,
			l.Response,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheetName, "D", "E", 60)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteHTML writes a standalone transcript page. Responses are rendered as Markdown,
// inputs are escaped as plain text.
func WriteHTML(logs []Log, w io.Writer, title string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n", html.EscapeString(title))
	fmt.Fprintf(&buf, "<h1>%s</h1>\n", html.EscapeString(title))

	lastDay := ""
	for _, l := range logs {
		day := l.Time.Format("January 2, 2006")
		if day != lastDay {
			fmt.Fprintf(&buf, "<h2>%s</h2>\n", html.EscapeString(day))
			lastDay = day
		}

		buf.WriteString("<section class=\"exchange\">\n")
		fmt.Fprintf(&buf, "<p class=\"time\">%s</p>\n", l.Time.Format("15:04"))
		fmt.Fprintf(&buf, "<p class=\"input\">%s</p>\n", html.EscapeString(l.Input))
		buf.WriteString("<div class=\"response\">\n")
		if err := markdown.Convert([]byte(l.Response), &buf); err != nil {
			return fmt.Errorf("failed to render response %s: %w", l.ID, err)
		}
		buf.WriteString("</div>\n</section>\n")
	}

	buf.WriteString("</body></html>\n")
	_, err := w.Write(buf.Bytes())
	return err
}
