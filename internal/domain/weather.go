package domain

import "time"

// Observation is a normalized current-conditions weather reading.
type Observation struct {
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperature_c"`
	WindSpeedKmh float64   `json:"wind_speed_kmh"`
	WeatherCode  int       `json:"weather_code"`
	Description  string    `json:"description"`
}
