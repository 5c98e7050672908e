package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/telhawk-receiver/internal/logging"
	"github.com/telhawk-systems/telhawk-receiver/internal/metrics"
	"github.com/telhawk-systems/telhawk-receiver/internal/payload"
)

const ackBody = `{"status": "success", "message": "Data received"}`

// mockRelay records published payloads.
type mockRelay struct {
	mu        sync.Mutex
	published [][]byte
	err       error
}

func (m *mockRelay) Publish(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, append([]byte(nil), data...))
	return nil
}

func (m *mockRelay) Healthy() bool { return m.err == nil }

func (m *mockRelay) Close() error { return nil }

// syncBuffer serializes writes from concurrent requests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type logEntry struct {
	Level string          `json:"level"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
	Bytes int             `json:"bytes"`
	Error string          `json:"error"`
}

func parseLog(t *testing.T, out string) []logEntry {
	t.Helper()
	var entries []logEntry
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var e logEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e), "log line: %s", sc.Text())
		entries = append(entries, e)
	}
	require.NoError(t, sc.Err())
	return entries
}

func received(entries []logEntry) []logEntry {
	var out []logEntry
	for _, e := range entries {
		if e.Msg == ReceivedMessage {
			out = append(out, e)
		}
	}
	return out
}

func newTestHandler(pub *mockRelay, maxBody int64) (*DataHandler, *syncBuffer) {
	buf := &syncBuffer{}
	logger := logging.NewWithWriter(buf, slog.LevelInfo, "json")
	if pub == nil {
		return NewDataHandler(logger, nil, maxBody), buf
	}
	return NewDataHandler(logger, pub, maxBody), buf
}

func post(h *DataHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/data", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleData(w, req)
	return w
}

func TestHandleData_Accepts(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object", `{"hostname": "pi", "cpu_load": 0.42}`},
		{"array", `[1, 2, 3]`},
		{"string", `"hello"`},
		{"number", `3.14`},
		{"bool", `true`},
		{"null", `null`},
		{"nested", `{"a": {"b": [null, {"c": "d"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockRelay{}
			h, logs := newTestHandler(pub, 0)

			w := post(h, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, ackBody, w.Body.String())

			entries := received(parseLog(t, logs.String()))
			require.Len(t, entries, 1)
			assert.Equal(t, "INFO", entries[0].Level)
			assert.Equal(t, len(tt.body), entries[0].Bytes)

			want, err := payload.Parse([]byte(tt.body))
			require.NoError(t, err)
			got, err := payload.Parse(entries[0].Data)
			require.NoError(t, err)
			assert.True(t, payload.Equal(want, got), "logged %s, want %s", got, want)

			require.Len(t, pub.published, 1)
			assert.Equal(t, want.String(), string(pub.published[0]))
		})
	}
}

func TestHandleData_ContentTypeNotEnforced(t *testing.T) {
	h, _ := newTestHandler(nil, 0)

	req := httptest.NewRequest(http.MethodPost, "/data", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.HandleData(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, ackBody, w.Body.String())
}

func TestHandleData_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ``},
		{"not json", `hello world`},
		{"unterminated", `{"a": 1`},
		{"trailing garbage", `{"a": 1} oops`},
		{"single quotes", `{'a': 1}`},
		{"bare key", `{a: 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockRelay{}
			h, logs := newTestHandler(pub, 0)
			before := testutil.ToFloat64(metrics.PayloadsTotal.WithLabelValues(metrics.OutcomeRejected))

			w := post(h, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error": "invalid JSON payload"}`, w.Body.String())

			entries := parseLog(t, logs.String())
			assert.Empty(t, received(entries), "malformed body must not produce a success entry")
			require.Len(t, entries, 1)
			assert.Equal(t, RejectedMessage, entries[0].Msg)
			assert.Equal(t, "WARN", entries[0].Level)
			assert.NotEmpty(t, entries[0].Error)

			assert.Empty(t, pub.published)
			after := testutil.ToFloat64(metrics.PayloadsTotal.WithLabelValues(metrics.OutcomeRejected))
			assert.Equal(t, before+1, after)
		})
	}
}

func TestHandleData_RejectsExcessiveNesting(t *testing.T) {
	pub := &mockRelay{}
	h, logs := newTestHandler(pub, 0)

	w := post(h, strings.Repeat("[", 20_000_000))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "invalid JSON payload"}`, w.Body.String())
	assert.Empty(t, received(parseLog(t, logs.String())))
	assert.Empty(t, pub.published)

	// The receiver keeps serving afterwards.
	w = post(h, `{"a": 1}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleData_BodyLimit(t *testing.T) {
	h, logs := newTestHandler(nil, 16)

	w := post(h, `{"message": "this body is longer than sixteen bytes"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error": "payload too large"}`, w.Body.String())
	assert.Empty(t, received(parseLog(t, logs.String())))

	w = post(h, `{"a": 1}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleData_RelayFailureDoesNotAffectResponse(t *testing.T) {
	pub := &mockRelay{err: errors.New("nats: connection closed")}
	h, logs := newTestHandler(pub, 0)
	before := testutil.ToFloat64(metrics.RelayErrors)

	w := post(h, `{"a": 1}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, ackBody, w.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RelayErrors))

	entries := parseLog(t, logs.String())
	require.Len(t, entries, 2)
	assert.Equal(t, ReceivedMessage, entries[0].Msg)
	assert.Equal(t, "WARN", entries[1].Level)
	assert.Contains(t, entries[1].Error, "connection closed")
}

func TestHandleData_CountsAcceptedBytes(t *testing.T) {
	h, _ := newTestHandler(nil, 0)
	body := `{"cpu_temp": 48.5}`

	acceptedBefore := testutil.ToFloat64(metrics.PayloadsTotal.WithLabelValues(metrics.OutcomeAccepted))
	bytesBefore := testutil.ToFloat64(metrics.PayloadBytesTotal)

	post(h, body)

	assert.Equal(t, acceptedBefore+1, testutil.ToFloat64(metrics.PayloadsTotal.WithLabelValues(metrics.OutcomeAccepted)))
	assert.Equal(t, bytesBefore+float64(len(body)), testutil.ToFloat64(metrics.PayloadBytesTotal))
}

func TestHandleData_Idempotent(t *testing.T) {
	h, logs := newTestHandler(nil, 0)
	body := `{"hostname": "pi", "time": "2024-01-01 00:00:00"}`

	first := post(h, body)
	second := post(h, body)

	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Len(t, received(parseLog(t, logs.String())), 2)
}

func TestHandleData_ArbitraryPayloads(t *testing.T) {
	f := gofakeit.New(7)
	h, logs := newTestHandler(nil, 0)

	var sent []payload.Value
	for i := 0; i < 100; i++ {
		raw, err := json.Marshal(randomJSON(f, 3))
		require.NoError(t, err)

		w := post(h, string(raw))
		require.Equal(t, http.StatusOK, w.Code, "input: %s", raw)
		assert.JSONEq(t, ackBody, w.Body.String())

		v, err := payload.Parse(raw)
		require.NoError(t, err)
		sent = append(sent, v)
	}

	entries := received(parseLog(t, logs.String()))
	require.Len(t, entries, len(sent))
	for i, e := range entries {
		got, err := payload.Parse(e.Data)
		require.NoError(t, err)
		assert.True(t, payload.Equal(sent[i], got), "entry %d: logged %s, want %s", i, got, sent[i])
	}
}

func randomJSON(f *gofakeit.Faker, depth int) any {
	choice := f.Number(0, 5)
	if depth <= 0 && choice >= 4 {
		choice = f.Number(0, 3)
	}
	switch choice {
	case 0:
		return nil
	case 1:
		return f.Bool()
	case 2:
		return f.Float64Range(-1e6, 1e6)
	case 3:
		return f.Sentence(f.Number(1, 5))
	case 4:
		arr := make([]any, f.Number(0, 4))
		for i := range arr {
			arr[i] = randomJSON(f, depth-1)
		}
		return arr
	default:
		obj := map[string]any{}
		for i := f.Number(0, 4); i > 0; i-- {
			obj[f.Word()] = randomJSON(f, depth-1)
		}
		return obj
	}
}
