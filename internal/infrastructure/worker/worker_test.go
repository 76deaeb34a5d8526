package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

type fakeKafkaWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

type fakeKafkaReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (f *fakeKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeKafkaReader) Close() error { return nil }

type recordingProcessor struct {
	mu   sync.Mutex
	reqs []tryon.GenerationRequest
	done chan struct{}
}

func (r *recordingProcessor) Process(ctx context.Context, req tryon.GenerationRequest) error {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return nil
}

func sampleRequest() tryon.GenerationRequest {
	return tryon.GenerationRequest{
		JobID:            uuid.New(),
		OrderID:          uuid.New(),
		CustomerPhotoURL: "https://cdn/customer.webp",
		StylePhotoURL:    "https://cdn/style.webp",
	}
}

func TestKafkaInvokerPublishesRequest(t *testing.T) {
	w := &fakeKafkaWriter{}
	inv := newKafkaInvokerWith(w)
	req := sampleRequest()

	require.NoError(t, inv.Invoke(context.Background(), req))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, req.OrderID.String(), string(w.msgs[0].Key))

	var got tryon.GenerationRequest
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, req, got)
}

func TestKafkaInvokerReportsPublishFailure(t *testing.T) {
	inv := newKafkaInvokerWith(&fakeKafkaWriter{err: errors.New("leader not available")})
	assert.Error(t, inv.Invoke(context.Background(), sampleRequest()))
}

func TestConsumerProcessesAndCommits(t *testing.T) {
	req := sampleRequest()
	value, err := json.Marshal(req)
	require.NoError(t, err)

	reader := &fakeKafkaReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("{broken")},
		{Offset: 2, Value: value},
	}}
	proc := &recordingProcessor{}
	c := newConsumerWith(reader, proc)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	assert.Equal(t, []int64{1, 2}, reader.committed)
	require.Len(t, proc.reqs, 1)
	assert.Equal(t, req.JobID, proc.reqs[0].JobID)
}

func TestLocalInvokerRunsInBackground(t *testing.T) {
	proc := &recordingProcessor{done: make(chan struct{}, 1)}
	inv := NewLocalInvoker(proc, time.Second)

	require.NoError(t, inv.Invoke(context.Background(), sampleRequest()))

	select {
	case <-proc.done:
	case <-time.After(time.Second):
		t.Fatal("processor was not called")
	}
}

func TestHTTPInvoker(t *testing.T) {
	var gotSecret string
	var got tryon.GenerationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get(WorkerSecretHeader)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	req := sampleRequest()
	inv := NewHTTPInvoker(srv.URL, "s3cret", time.Second)
	require.NoError(t, inv.Invoke(context.Background(), req))
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, req.JobID, got.JobID)
}

func TestHTTPInvokerFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cold start failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTPInvoker(srv.URL, "", time.Second).Invoke(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
