// Package weather queries the Open-Meteo geocoding and forecast APIs.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/niquolic/foot-chatbot/internal/logger"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// CityNotFoundError is returned by Geocode when the search has no result.
type CityNotFoundError struct {
	City string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("City '%s' not found. Please check the spelling and try again.", e.City)
}

// Client is an Open-Meteo HTTP client.
type Client struct {
	geocodingURL string
	forecastURL  string
	userAgent    string
	client       *http.Client
}

func NewClient(geocodingURL, forecastURL, userAgent string, timeout time.Duration) *Client {
	if strings.TrimSpace(geocodingURL) == "" {
		geocodingURL = DefaultGeocodingURL
	}
	if strings.TrimSpace(forecastURL) == "" {
		forecastURL = DefaultForecastURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "footbot/0.1"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
		userAgent:    userAgent,
		client:       &http.Client{Timeout: timeout},
	}
}

// Location is a geocoding match.
type Location struct {
	Name      string  `json:"name"`
	Admin1    string  `json:"admin1"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DisplayName joins name, region and country, skipping empty parts.
func (l Location) DisplayName() string {
	parts := []string{l.Name}
	if l.Admin1 != "" {
		parts = append(parts, l.Admin1)
	}
	if l.Country != "" {
		parts = append(parts, l.Country)
	}
	return strings.Join(parts, ", ")
}

func (l Location) String() string {
	return fmt.Sprintf("📍 %s\nLatitude: %s\nLongitude: %s",
		l.DisplayName(), formatCoord(l.Latitude), formatCoord(l.Longitude))
}

// Geocode resolves a city name to its first matching location.
func (c *Client) Geocode(ctx context.Context, city string) (*Location, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("city cannot be empty")
	}

	params := url.Values{}
	params.Set("name", city)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var payload struct {
		Results []Location `json:"results"`
	}
	if err := c.get(ctx, c.geocodingURL, params, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, &CityNotFoundError{City: city}
	}
	if payload.Results[0].Country == "" {
		payload.Results[0].Country = "Unknown"
	}
	return &payload.Results[0], nil
}

// forecastResponse covers every field the forecast calls request.
type forecastResponse struct {
	Current struct {
		Temperature   float64  `json:"temperature_2m"`
		ApparentTemp  float64  `json:"apparent_temperature"`
		Precipitation float64  `json:"precipitation"`
		Rain          float64  `json:"rain"`
		Showers       float64  `json:"showers"`
		Snowfall      float64  `json:"snowfall"`
		WeatherCode   int      `json:"weather_code"`
		WindSpeed     float64  `json:"wind_speed_10m"`
		WindDirection *float64 `json:"wind_direction_10m"`
		WindGusts     float64  `json:"wind_gusts_10m"`
	} `json:"current"`
	CurrentUnits struct {
		Temperature   string `json:"temperature_2m"`
		Precipitation string `json:"precipitation"`
		WindSpeed     string `json:"wind_speed_10m"`
	} `json:"current_units"`
	Daily struct {
		Time                     []string   `json:"time"`
		TemperatureMax           []float64  `json:"temperature_2m_max"`
		TemperatureMin           []float64  `json:"temperature_2m_min"`
		PrecipitationSum         []float64  `json:"precipitation_sum"`
		RainSum                  []float64  `json:"rain_sum"`
		SnowfallSum              []float64  `json:"snowfall_sum"`
		PrecipitationProbability []*float64 `json:"precipitation_probability_max"`
		WindSpeedMax             []float64  `json:"wind_speed_10m_max"`
		WindGustsMax             []float64  `json:"wind_gusts_10m_max"`
		WindDirectionDominant    []*float64 `json:"wind_direction_10m_dominant"`
	} `json:"daily"`
	DailyUnits struct {
		WindSpeedMax string `json:"wind_speed_10m_max"`
	} `json:"daily_units"`
}

type forecastQuery struct {
	current []string
	daily   []string
	days    int
}

func (c *Client) forecast(ctx context.Context, lat, lon float64, q forecastQuery) (*forecastResponse, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude %s out of range [-90, 90]", formatCoord(lat))
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("longitude %s out of range [-180, 180]", formatCoord(lon))
	}

	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))
	if len(q.current) > 0 {
		params.Set("current", strings.Join(q.current, ","))
	}
	if len(q.daily) > 0 {
		params.Set("daily", strings.Join(q.daily, ","))
	}
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(q.days))

	var resp forecastResponse
	if err := c.get(ctx, c.forecastURL, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values, out any) error {
	endpoint, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warn("Open-Meteo %s returned status %d", endpoint.Path, resp.StatusCode)
		var apiErr struct {
			Reason string `json:"reason"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Reason != "" {
			return fmt.Errorf("weather request failed with status %d: %s", resp.StatusCode, apiErr.Reason)
		}
		return fmt.Errorf("weather request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func first[T any](name string, xs []T) (T, error) {
	var zero T
	if len(xs) == 0 {
		return zero, fmt.Errorf("forecast response is missing daily %s", name)
	}
	return xs[0], nil
}
