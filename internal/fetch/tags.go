package fetch

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/edgarlens/edgarlens/internal/httpc"
)

// TextBetweenTags streams a filing and captures the text between <TAG> and
// </TAG>, used mainly for reading a filing's SGML header without buffering
// the whole document.
func (d *Downloader) TextBetweenTags(ctx context.Context, rawURL, tag string, opts ...httpc.RequestOption) (string, error) {
	if d == nil || d.Client == nil {
		return "", errors.New("downloader is not configured")
	}
	if strings.TrimSpace(tag) == "" {
		return "", errors.New("tag is required")
	}

	stream, err := d.Client.Stream(ctx, rawURL, opts...)
	if err != nil {
		return "", err
	}
	defer stream.Close() // nolint:errcheck // best-effort cleanup

	tagStart := "<" + tag + ">"
	tagEnd := "</" + tag + ">"

	var builder strings.Builder
	inside := false
	for {
		line, err := stream.NextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch {
		case strings.HasPrefix(line, tagStart):
			inside = true
		case strings.HasPrefix(line, tagEnd):
			return builder.String(), nil
		case inside:
			builder.WriteString(line)
			builder.WriteByte('\n')
		}
	}
	return builder.String(), nil
}
