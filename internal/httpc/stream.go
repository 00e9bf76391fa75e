package httpc

import (
	"bufio"
	"context"
	"io"
	"net/http"
)

// Stream is a one-shot view over a live response body. It is consumed
// exactly once and is not restartable; Close releases the underlying
// connection and must be called even when the stream is abandoned early.
type Stream struct {
	URL        string
	StatusCode int
	Headers    http.Header

	body   io.ReadCloser
	lines  *bufio.Scanner
	closed bool
}

// Stream opens a streaming GET through the same pipeline as Get: identity,
// ticket, transport call, 429 routed into retry, 301/302 followed with a
// fresh ticket per hop. Only the response headers are read before returning;
// the body stays on the wire until consumed.
func (c *Client) Stream(ctx context.Context, rawURL string, opts ...RequestOption) (*Stream, error) {
	o := c.applyOptions(opts)
	var stream *Stream
	err := c.Retry.Do(ctx, func() error {
		var err error
		stream, err = c.openStream(ctx, rawURL, o, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (c *Client) openStream(ctx context.Context, rawURL string, o requestOptions, hop int) (*Stream, error) {
	if hop > c.maxRedirects() {
		return nil, &TooManyRedirectsError{URL: rawURL, Hops: hop}
	}

	resp, err := c.send(ctx, http.MethodGet, rawURL, nil, "", o)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close() // nolint:errcheck // draining a rejected response
		c.rateLimited.Add(1)
		return nil, &TooManyRequestsError{URL: rawURL}
	case isRedirect(resp.StatusCode):
		location, err := redirectLocation(resp, rawURL)
		resp.Body.Close() // nolint:errcheck // redirect bodies are discarded
		if err != nil {
			return nil, err
		}
		c.redirects.Add(1)
		return c.openStream(ctx, location, o, hop+1)
	}

	return &Stream{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		body:       resp.Body,
	}, nil
}

// Read makes Stream an io.Reader over the raw body bytes.
func (s *Stream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

// NextLine returns the next line of the body, or io.EOF when the stream is
// exhausted. Lines and Read must not be mixed on the same stream.
func (s *Stream) NextLine() (string, error) {
	if s.lines == nil {
		s.lines = bufio.NewScanner(s.body)
		s.lines.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	}
	if s.lines.Scan() {
		return s.lines.Text(), nil
	}
	if err := s.lines.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close releases the underlying connection. Safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
