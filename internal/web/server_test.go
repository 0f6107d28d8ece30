package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/internal/storage/results"
	"go.uber.org/zap"
)

type fakeReader struct {
	records []domain.ResultRecord
	err     error
}

func (f *fakeReader) ResultsAfter(index uint64) ([]domain.ResultRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ResultRecord
	for _, r := range f.records {
		if r.Index > index {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReader) Latest(ticker string) (domain.ResultRecord, error) {
	if f.err != nil {
		return domain.ResultRecord{}, f.err
	}
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Result.Ticker == ticker {
			return f.records[i], nil
		}
	}
	return domain.ResultRecord{}, results.ErrNotFound
}

func testRecords() []domain.ResultRecord {
	return []domain.ResultRecord{
		{Index: 1, Result: domain.AnalysisResult{RunID: "a", Ticker: "SBER", Signal: "3over20"}},
		{Index: 2, Result: domain.AnalysisResult{RunID: "b", Ticker: "GAZP", Signal: "3over20"}},
		{Index: 3, Result: domain.AnalysisResult{RunID: "c", Ticker: "SBER", Signal: "3over20"}},
	}
}

func newTestServer(reader resultReader) *Server {
	s := NewServer(":0", reader, zap.NewNop())
	s.PollInterval = 10 * time.Millisecond
	return s
}

func TestHandleResults(t *testing.T) {
	srv := newTestServer(&fakeReader{records: testRecords()})

	t.Run("all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got []domain.ResultRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 3)
	})

	t.Run("after", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results?after=2", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got []domain.ResultRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "c", got[0].Result.RunID)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results?after=10", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("bad after", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results?after=x", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store error", func(t *testing.T) {
		failing := newTestServer(&fakeReader{err: errors.New("disk")})
		rec := httptest.NewRecorder()
		failing.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleLatest(t *testing.T) {
	srv := newTestServer(&fakeReader{records: testRecords()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/SBER", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.ResultRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(3), got.Index)
	assert.Equal(t, "c", got.Result.RunID)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/LKOH", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGzip(t *testing.T) {
	srv := newTestServer(&fakeReader{records: testRecords()})

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestNilStore(t *testing.T) {
	srv := newTestServer(nil)
	for _, path := range []string{"/results", "/results/SBER", "/results/stream"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestStream(t *testing.T) {
	reader := &fakeReader{records: testRecords()}
	ts := httptest.NewServer(newTestServer(reader).Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/results/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var ids []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(ids) < 2 {
		line := scanner.Text()
		if id, ok := strings.CutPrefix(line, "id: "); ok {
			ids = append(ids, id)
		}
	}
	assert.Equal(t, []string{"2", "3"}, ids)
}

func TestParseLastEventID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   uint64
	}{
		{"empty", "", "", 0},
		{"header", "7", "", 7},
		{"query fallback", "", "4", 4},
		{"header wins", "5", "9", 5},
		{"invalid", "abc", "", 0},
		{"padded", " 12 ", "", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLastEventID(tt.header, tt.query))
		})
	}
}
