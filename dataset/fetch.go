package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// FetchCSV downloads a payload with a hard timeout. When stderr is a
// terminal a progress bar tracks the transfer; under cron or a service
// manager the download is silent except for the summary line.
func FetchCSV(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	var buf bytes.Buffer
	reader := io.Reader(resp.Body)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar := progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		reader = io.TeeReader(resp.Body, bar)
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("read body from %s: %w", rawURL, err)
	}

	log.Infof("fetched %s from %s in %s",
		humanize.Bytes(uint64(buf.Len())), rawURL, time.Since(start).Round(time.Millisecond))
	return buf.Bytes(), nil
}
