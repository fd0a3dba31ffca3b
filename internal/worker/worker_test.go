package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadarag/internal/chunker"
	"scadarag/internal/service"
)

func startWorker(t *testing.T) *Worker {
	t.Helper()
	s := service.New(service.DefaultOptions(), chunker.NewWordChunker(1000, 150), nil, nil, logr.Discard())
	w := New(s, 8, logr.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(cancel)
	return w
}

func do(t *testing.T, w *Worker, raw string) Response {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	resp, err := w.Do(context.Background(), req)
	require.NoError(t, err)
	return resp
}

const ingestAB = `{"type":"ingest","payload":{"docs":[
	{"name":"A","text":"redundancia redundancia seguridad"},
	{"id":"b","title":"B","text":"protocolo modbus","size":16,"origin":"b.txt"}]}}`

func Test_Worker_IngestQuery(t *testing.T) {
	w := startWorker(t)
	assert.Equal(t, Response{Type: TypeIndexed}, do(t, w, ingestAB))

	resp := do(t, w, `{"type":"query","payload":{"query":"redundancia","k":3}}`)
	require.Equal(t, TypeResult, resp.Type)
	res := resp.Payload.(ResultPayload)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "A", res.Hits[0].Title)
	assert.Positive(t, res.Hits[0].Score)
	assert.NotEmpty(t, res.Hits[0].DocumentID)
	assert.Equal(t, res.Hits[0].DocumentID+":0", res.Hits[0].ID)
	assert.NotEmpty(t, res.Answer)
}

func Test_Worker_QueryWithoutIndex(t *testing.T) {
	w := startWorker(t)
	resp := do(t, w, `{"type":"query","payload":{"query":"redundancia"}}`)
	assert.Equal(t, Response{Type: TypeError, Payload: ErrorPayload{Message: service.ErrNoIndex.Error(), Code: CodeNoIndex}}, resp)
}

func Test_Worker_ResetThenQuery(t *testing.T) {
	w := startWorker(t)
	do(t, w, ingestAB)
	assert.Equal(t, TypeIndexed, do(t, w, `{"type":"reset"}`).Type)

	resp := do(t, w, `{"type":"query","payload":{"query":"redundancia"}}`)
	require.Equal(t, TypeError, resp.Type)
	assert.Equal(t, CodeNoIndex, resp.Payload.(ErrorPayload).Code)
}

func Test_Worker_Remove(t *testing.T) {
	w := startWorker(t)
	do(t, w, ingestAB)
	assert.Equal(t, TypeIndexed, do(t, w, `{"type":"remove","payload":{"ids":["b"]}}`).Type)

	resp := do(t, w, `{"type":"query","payload":{"query":"modbus"}}`)
	require.Equal(t, TypeResult, resp.Type)
	assert.Empty(t, resp.Payload.(ResultPayload).Hits)
}

func Test_Worker_BadMessages(t *testing.T) {
	w := startWorker(t)
	var cases = []string{
		`{"type":"explode"}`,
		`{"type":"query"}`,
		`{"type":"query","payload":{"query":42}}`,
		`{"type":"ingest","payload":{"docs":"nope"}}`,
	}
	for _, raw := range cases {
		resp := do(t, w, raw)
		assert.Equal(t, TypeError, resp.Type, raw)
		assert.NotEmpty(t, resp.Payload.(ErrorPayload).Message, raw)
	}
}

func Test_Worker_OneResponsePerRequest(t *testing.T) {
	w := startWorker(t)
	do(t, w, ingestAB)

	var wg sync.WaitGroup
	results := make([]Response, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := w.Do(context.Background(), Request{Type: TypeQuery, Payload: json.RawMessage(`{"query":"modbus"}`)})
			assert.NoError(t, err)
			results[i] = resp
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, TypeResult, r.Type)
	}
}

func Test_Worker_Stopped(t *testing.T) {
	s := service.New(service.DefaultOptions(), chunker.NewWordChunker(10, 2), nil, nil, logr.Discard())
	w := New(s, 1, logr.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { w.Run(ctx); close(stopped) }()
	cancel()
	<-stopped

	// the queue has room, so this may be accepted but never handled
	_, err := w.Do(context.Background(), Request{Type: TypeReset})
	assert.ErrorIs(t, err, ErrStopped)
}

func Test_DocPayload_Document(t *testing.T) {
	d := DocPayload{Name: "manual.pdf", Text: "x", Size: 3, Origin: "upload"}.Document()
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "manual.pdf", d.Title)
	assert.Equal(t, int64(3), d.Metadata.Size)

	d = DocPayload{ID: "fixed", Title: "T", Name: "ignored"}.Document()
	assert.Equal(t, "fixed", d.ID)
	assert.Equal(t, "T", d.Title)
}
