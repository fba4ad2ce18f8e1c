// Package snapshot captures GTFS-RT feeds to disk. Each capture decodes
// the protobuf payload and writes a JSON snapshot via temp-file + rename,
// so readers of the snapshot directory never see a partial file.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type Snapshotter struct {
	tripUpdatesURL      string
	vehiclePositionsURL string
	dir                 string
	httpClient          *http.Client
	logger              *slog.Logger
}

func New(tripUpdatesURL, vehiclePositionsURL, dir string, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{
		tripUpdatesURL:      tripUpdatesURL,
		vehiclePositionsURL: vehiclePositionsURL,
		dir:                 dir,
		httpClient:          &http.Client{Timeout: 30 * time.Second},
		logger:              logger.With("component", "gtfsrt_snapshotter"),
	}
}

// Run captures each configured feed once. An empty URL skips that feed.
func (s *Snapshotter) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	if s.tripUpdatesURL != "" {
		if err := s.capture(ctx, s.tripUpdatesURL, "trip_updates.json"); err != nil {
			return fmt.Errorf("trip updates: %w", err)
		}
	}
	if s.vehiclePositionsURL != "" {
		if err := s.capture(ctx, s.vehiclePositionsURL, "vehicle_positions.json"); err != nil {
			return fmt.Errorf("vehicle positions: %w", err)
		}
	}
	return nil
}

// Watch captures on a fixed interval until the context is cancelled.
// Individual capture failures are logged and retried on the next tick.
func (s *Snapshotter) Watch(ctx context.Context, interval time.Duration) {
	if err := s.Run(ctx); err != nil {
		s.logger.Error("snapshot failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("snapshot failed", "error", err)
			}
		}
	}
}

func (s *Snapshotter) capture(ctx context.Context, url, name string) error {
	start := time.Now()

	raw, err := s.fetch(ctx, url)
	if err != nil {
		return err
	}

	feed := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(raw, feed); err != nil {
		return fmt.Errorf("decoding feed: %w", err)
	}

	data, err := protojson.Marshal(feed)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := writeAtomic(filepath.Join(s.dir, name), data); err != nil {
		return err
	}

	s.logger.Info("feed snapshot written",
		"file", name,
		"entities", len(feed.Entity),
		"feed_timestamp", feed.GetHeader().GetTimestamp(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *Snapshotter) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// writeAtomic writes data next to the target and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	return nil
}
