package chatlogs

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleLogs = `[
  {"id": 1, "input": "Hello?", "response": "Hi **there**", "time": "2025-07-15T09:00:00Z"},
  {"id": "b7", "input": "<script>", "response": "plain", "time": "2025-07-18T09:03:00Z"},
  {"id": 3, "input": "Again", "response": "- one\n- two", "time": "2025-07-18T09:02:00Z"}
]`

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fixtureLogs(t *testing.T) []Log {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleLogs))
	}))
	defer srv.Close()

	logs, err := NewClient(srv.URL, time.Second, quietLogger()).Fetch(context.Background(), "")
	require.NoError(t, err)
	return logs
}

func TestClient_Fetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("robot_id")
		_, _ = w.Write([]byte(sampleLogs))
	}))
	defer srv.Close()

	logs, err := NewClient(srv.URL+"/", time.Second, quietLogger()).Fetch(context.Background(), "R 1")
	require.NoError(t, err)
	assert.Equal(t, "R 1", gotQuery)
	require.Len(t, logs, 3)
	assert.Equal(t, ID("1"), logs[0].ID)
	assert.Equal(t, ID("b7"), logs[1].ID)
	assert.Equal(t, 2025, logs[0].Time.Year())
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"garbage", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not json")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewClient(srv.URL, time.Second, quietLogger()).Fetch(context.Background(), "")
			assert.Error(t, err)
		})
	}
}

func TestFilterByDate(t *testing.T) {
	logs := fixtureLogs(t)

	day, err := ParseDate("2025-07-18", time.UTC)
	require.NoError(t, err)

	got := FilterByDate(logs, day, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, ID("3"), got[0].ID, "oldest first")
	assert.Equal(t, ID("b7"), got[1].ID)

	none, _ := ParseDate("2024-01-01", time.UTC)
	assert.Empty(t, FilterByDate(logs, none, time.UTC))

	_, err = ParseDate("18/07/2025", time.UTC)
	assert.Error(t, err)
}

func TestDates(t *testing.T) {
	dates := Dates(fixtureLogs(t), time.UTC)
	require.Len(t, dates, 2)
	assert.Equal(t, "2025-07-18", dates[0].Format(DateLayout))
	assert.Equal(t, "2025-07-15", dates[1].Format(DateLayout))
}

func TestWriteXLSX(t *testing.T) {
	logs := fixtureLogs(t)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(logs, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Date", "Time", "Input", "Response"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Hello?", rows[1][3])
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(fixtureLogs(t), &buf, "Robot R1"))

	out := buf.String()
	assert.Contains(t, out, "<strong>there</strong>")
	assert.Contains(t, out, "<li>one</li>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Equal(t, 2, strings.Count(out, "<h2>"))
}

func TestExport_ByExtension(t *testing.T) {
	logs := fixtureLogs(t)
	dir := t.TempDir()

	require.NoError(t, Export(logs, filepath.Join(dir, "logs.xlsx"), "R1"))
	require.NoError(t, Export(logs, filepath.Join(dir, "logs.html"), "R1"))

	info, err := os.Stat(filepath.Join(dir, "logs.xlsx"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, Export(logs, filepath.Join(dir, "logs.csv"), "R1"))
}
