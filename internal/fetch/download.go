// Package fetch holds the stateless download helpers layered on top of the
// request pipeline: content decoding, JSON parsing, and filing header
// extraction. All network access goes through httpc.
package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"golang.org/x/text/encoding/charmap"

	"github.com/edgarlens/edgarlens/internal/httpc"
)

// textExtensions mark URLs whose payload is treated as text by default.
var textExtensions = []string{
	".txt", ".htm", ".html", ".xml", ".xsd", ".json", ".idx", ".csv",
}

// Downloader wraps a pipeline client with content handling.
type Downloader struct {
	Client *httpc.Client
}

// File downloads a URL and returns its raw bytes. Gzip payloads are
// unwrapped, whether signalled by a .gz suffix or a Content-Encoding header.
func (d *Downloader) File(ctx context.Context, rawURL string, opts ...httpc.RequestOption) ([]byte, error) {
	if d == nil || d.Client == nil {
		return nil, errors.New("downloader is not configured")
	}

	resp, err := d.Client.Get(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	if err := httpc.InspectResponse(resp); err != nil {
		return nil, err
	}

	content := resp.Body
	if strings.HasSuffix(rawURL, ".gz") || resp.Headers.Get("Content-Encoding") == "gzip" {
		content, err = gunzip(content)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", rawURL, err)
		}
	}
	return content, nil
}

// Text downloads a URL and decodes it as text, falling back from UTF-8 to
// Latin-1 the way EDGAR's older filings require.
func (d *Downloader) Text(ctx context.Context, rawURL string, opts ...httpc.RequestOption) (string, error) {
	content, err := d.File(ctx, rawURL, opts...)
	if err != nil {
		return "", err
	}
	return DecodeText(content)
}

// JSON downloads a URL and unmarshals the payload into v.
func (d *Downloader) JSON(ctx context.Context, rawURL string, v any, opts ...httpc.RequestOption) error {
	content, err := d.File(ctx, rawURL, opts...)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(content, v); err != nil {
		return fmt.Errorf("parse JSON from %s: %w", rawURL, err)
	}
	return nil
}

// DecodeText decodes file content as UTF-8, falling back to Latin-1.
func DecodeText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return string(decoded), nil
}

// IsTextURL reports whether a URL's extension marks it as text by default.
func IsTextURL(rawURL string) bool {
	for _, ext := range textExtensions {
		if strings.HasSuffix(rawURL, ext) {
			return true
		}
	}
	return false
}

func gunzip(content []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer reader.Close() // nolint:errcheck // best-effort cleanup

	return io.ReadAll(reader)
}
