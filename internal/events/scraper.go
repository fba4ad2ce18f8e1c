// Package events pulls local event listings from configured JSON sources
// and publishes a merged snapshot. One broken source never fails a run;
// it is logged and skipped, the same best-effort stance the stops
// pipeline takes with malformed rows.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"busboard/internal/cache"
	"busboard/internal/domain"
)

const cacheKey = "events:latest"

type Scraper struct {
	sources    []Source
	out        string
	httpClient *http.Client
	cache      *cache.RedisCache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewScraper builds the worker. c may be nil when Redis is disabled.
func NewScraper(sources []Source, out string, c *cache.RedisCache, cacheTTL time.Duration, logger *slog.Logger) *Scraper {
	return &Scraper{
		sources:    sources,
		out:        out,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger.With("component", "events_scraper"),
	}
}

type listing struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Venue    string `json:"venue"`
	StartsAt string `json:"starts_at"`
	URL      string `json:"url"`
}

// Run fetches every source, merges the listings and publishes the
// result. It returns the number of events written.
func (s *Scraper) Run(ctx context.Context) (int, error) {
	start := time.Now()
	var all []domain.Event

	for _, src := range s.sources {
		evs, err := s.fetchSource(ctx, src)
		if err != nil {
			s.logger.Warn("source fetch failed, skipping", "source", src.Name, "error", err)
			continue
		}
		all = append(all, evs...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartsAt.Before(all[j].StartsAt)
	})

	if err := s.publish(all); err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, all, s.cacheTTL); err != nil {
			s.logger.Warn("events cache write failed", "error", err)
		}
	}

	s.logger.Info("events updated",
		"sources", len(s.sources),
		"events", len(all),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return len(all), nil
}

// Watch runs on a fixed interval until the context is cancelled.
func (s *Scraper) Watch(ctx context.Context, interval time.Duration) {
	if _, err := s.Run(ctx); err != nil {
		s.logger.Error("events update failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.logger.Error("events update failed", "error", err)
			}
		}
	}
}

func (s *Scraper) fetchSource(ctx context.Context, src Source) ([]domain.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var listings []listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("decoding listings: %w", err)
	}

	events := make([]domain.Event, 0, len(listings))
	for _, l := range listings {
		if l.Title == "" {
			continue
		}

		startsAt, err := time.Parse(time.RFC3339, l.StartsAt)
		if err != nil {
			s.logger.Debug("listing has no parsable start time, skipping",
				"source", src.Name, "title", l.Title)
			continue
		}

		id := l.ID
		if id == "" {
			id = uuid.NewString()
		}

		events = append(events, domain.Event{
			ID:       id,
			Source:   src.Name,
			Title:    l.Title,
			Venue:    l.Venue,
			StartsAt: startsAt,
			URL:      l.URL,
		})
	}
	return events, nil
}

// publish writes the merged set via temp-file + rename.
func (s *Scraper) publish(events []domain.Event) error {
	if err := os.MkdirAll(filepath.Dir(s.out), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding events: %w", err)
	}

	tmp := s.out + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	if err := os.Rename(tmp, s.out); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing events: %w", err)
	}
	return nil
}
