package naptan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Acquire materializes the source CSV into a scoped temporary directory
// and returns the file path plus a cleanup func that removes the whole
// directory. The cleanup must be called on every exit path; Acquire
// itself removes the directory when it fails partway.
//
// A remote URL is streamed straight to disk so peak memory stays at one
// I/O buffer regardless of the dataset size. Anything else is treated as
// a local path (a file:// prefix is accepted) and copied verbatim.
func Acquire(ctx context.Context, source string, logger *slog.Logger) (string, func(), error) {
	logger = logger.With("component", "naptan_acquirer")

	dir, err := os.MkdirTemp("", "naptan-src-")
	if err != nil {
		return "", nil, &IOError{Op: "creating download dir", Err: err}
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove download dir", "dir", dir, "error", err)
		}
	}

	dest := filepath.Join(dir, "stops.csv")

	var n int64
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		n, err = download(ctx, source, dest, logger)
	} else {
		n, err = copyLocal(strings.TrimPrefix(source, "file://"), dest)
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}

	logger.Info("source acquired", "source", source, "size_bytes", n)
	return dest, cleanup, nil
}

func download(ctx context.Context, url, dest string, logger *slog.Logger) (int64, error) {
	start := time.Now()
	logger.Info("starting NaPTAN download", "url", url)

	client := &http.Client{Timeout: 2 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", "busboard/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &NetworkError{URL: url, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, &IOError{Op: "creating download file", Err: err}
	}

	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// The write side of the copy is local disk, not the network.
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return 0, &IOError{Op: "writing download file", Err: err}
		}
		return 0, &NetworkError{URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if n == 0 {
		return 0, &NetworkError{URL: url, Err: fmt.Errorf("empty response body")}
	}

	logger.Info("NaPTAN download completed",
		"size_mb", fmt.Sprintf("%.2f", float64(n)/(1024*1024)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}

func copyLocal(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, &IOError{Op: "opening source file", Err: err}
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, &IOError{Op: "creating copy", Err: err}
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, &IOError{Op: "copying source file", Err: err}
	}
	return n, nil
}
