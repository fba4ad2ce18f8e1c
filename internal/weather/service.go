package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"busboard/internal/cache"
	"busboard/internal/domain"
	"busboard/pkg/openmeteo"
)

// Service wraps the Open-Meteo client with an optional Redis cache so
// repeated lookups within the TTL never hit the upstream API.
type Service struct {
	client *openmeteo.Client
	cache  *cache.RedisCache
	ttl    time.Duration
	lat    float64
	lng    float64
	logger *slog.Logger
}

// NewService builds a weather service. c may be nil when Redis is
// disabled; every lookup then goes upstream.
func NewService(client *openmeteo.Client, c *cache.RedisCache, ttl time.Duration, lat, lng float64, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		cache:  c,
		ttl:    ttl,
		lat:    lat,
		lng:    lng,
		logger: logger.With("component", "weather"),
	}
}

func (s *Service) cacheKey() string {
	return fmt.Sprintf("weather:current:%.4f,%.4f", s.lat, s.lng)
}

// Current returns the latest observation, from cache when fresh.
func (s *Service) Current(ctx context.Context) (*domain.Observation, error) {
	if s.cache != nil {
		var cached domain.Observation
		hit, err := s.cache.GetJSON(ctx, s.cacheKey(), &cached)
		if err != nil {
			s.logger.Warn("weather cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	obs, err := s.client.Current(ctx, s.lat, s.lng)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, s.cacheKey(), obs, s.ttl); err != nil {
			s.logger.Warn("weather cache write failed", "error", err)
		}
	}

	s.logger.Info("weather observation fetched",
		"temperature_c", obs.TemperatureC,
		"wind_speed_kmh", obs.WindSpeedKmh,
		"conditions", obs.Description,
	)
	return obs, nil
}
