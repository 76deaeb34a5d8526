package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

// WorkerSecretHeader: заголовок с общим секретом между API и функцией генерации.
const WorkerSecretHeader = "X-Worker-Secret"

// HTTPInvoker вызывает внешнюю функцию генерации. Результат функция присылает
// обратно на /internal/tryon/jobs/:id/result.
type HTTPInvoker struct {
	url        string
	secret     string
	httpClient *http.Client
}

func NewHTTPInvoker(url, secret string, timeout time.Duration) *HTTPInvoker {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPInvoker{url: url, secret: secret, httpClient: &http.Client{Timeout: timeout}}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, req tryon.GenerationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("worker: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("worker: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.secret != "" {
		httpReq.Header.Set(WorkerSecretHeader, h.secret)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("worker: invoke function: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("worker: function returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
