package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/h2non/filetype"

	"github.com/ignatzorin/atelier-backend/internal/validation"
)

const maxSourceBytes = 20 << 20

var errPrivateAddress = errors.New("адрес во внутренней сети запрещён")

// Fetcher скачивает исходные фото по URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Image, error)
}

// HTTPFetcher скачивает фото по HTTP и определяет тип по сигнатуре.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher без allowPrivate отказывается соединяться с loopback, приватными
// и link-local адресами. Проверяется уже разрешённый IP, поэтому DNS-подмена не помогает.
func NewHTTPFetcher(timeout time.Duration, allowPrivate bool) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !allowPrivate {
		dialer := &net.Dialer{Timeout: 10 * time.Second, Control: denyPrivate}
		transport.DialContext = dialer.DialContext
		transport.Proxy = nil
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout, Transport: transport}}
}

func denyPrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if !validation.IsPublicIP(net.ParseIP(host)) {
		return fmt.Errorf("%s: %w", host, errPrivateAddress)
	}
	return nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("ai: fetch %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("ai: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("ai: fetch %s: статус %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("ai: fetch %s: %w", url, err)
	}
	if len(data) > maxSourceBytes {
		return Image{}, fmt.Errorf("ai: fetch %s: файл больше %d байт", url, maxSourceBytes)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind.MIME.Type != "image" {
		return Image{}, fmt.Errorf("ai: fetch %s: не изображение", url)
	}
	return Image{Data: data, MIME: kind.MIME.Value}, nil
}
