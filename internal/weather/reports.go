package weather

import (
	"context"
	"fmt"
	"math"
)

// TemperatureReport is the current temperature with today's range.
type TemperatureReport struct {
	CurrentTemperature float64 `json:"current_temperature"`
	FeelsLike          float64 `json:"feels_like"`
	DailyMax           float64 `json:"daily_max"`
	DailyMin           float64 `json:"daily_min"`
	Unit               string  `json:"unit"`
}

// PrecipitationReport is current and daily precipitation.
type PrecipitationReport struct {
	Current struct {
		TotalPrecipitation float64 `json:"total_precipitation"`
		Rain               float64 `json:"rain"`
		Showers            float64 `json:"showers"`
		Snowfall           float64 `json:"snowfall"`
		WeatherCondition   string  `json:"weather_condition"`
	} `json:"current"`
	Daily struct {
		PrecipitationSum         float64  `json:"precipitation_sum"`
		RainSum                  float64  `json:"rain_sum"`
		SnowfallSum              float64  `json:"snowfall_sum"`
		PrecipitationProbability *float64 `json:"precipitation_probability"`
	} `json:"daily"`
	Unit string `json:"unit"`
}

// WindReport is current wind and today's maxima.
type WindReport struct {
	Current struct {
		WindSpeed            float64  `json:"wind_speed"`
		WindDirectionDegrees *float64 `json:"wind_direction_degrees"`
		WindDirectionCompass string   `json:"wind_direction_compass"`
		WindGusts            float64  `json:"wind_gusts"`
	} `json:"current"`
	Daily struct {
		MaxWindSpeed             float64  `json:"max_wind_speed"`
		MaxWindGusts             float64  `json:"max_wind_gusts"`
		DominantDirectionDegrees *float64 `json:"dominant_direction_degrees"`
		DominantDirectionCompass string   `json:"dominant_direction_compass"`
	} `json:"daily"`
	Unit string `json:"unit"`
}

// WindDay is one day of a wind forecast.
type WindDay struct {
	Date                     string   `json:"date"`
	MaxWindSpeed             float64  `json:"max_wind_speed"`
	MaxWindGusts             float64  `json:"max_wind_gusts"`
	DominantDirectionDegrees *float64 `json:"dominant_direction_degrees"`
	DominantDirectionCompass string   `json:"dominant_direction_compass"`
}

// WindForecastReport is a multi-day wind forecast.
type WindForecastReport struct {
	Forecast []WindDay `json:"forecast"`
	Unit     string    `json:"unit"`
}

// ForecastDays is the length of the wind forecast.
const ForecastDays = 7

// Temperature returns current temperature data for the coordinates.
func (c *Client) Temperature(ctx context.Context, lat, lon float64) (*TemperatureReport, error) {
	resp, err := c.forecast(ctx, lat, lon, forecastQuery{
		current: []string{"temperature_2m", "apparent_temperature"},
		daily:   []string{"temperature_2m_max", "temperature_2m_min"},
		days:    1,
	})
	if err != nil {
		return nil, err
	}

	report := &TemperatureReport{
		CurrentTemperature: resp.Current.Temperature,
		FeelsLike:          resp.Current.ApparentTemp,
		Unit:               resp.CurrentUnits.Temperature,
	}
	if report.DailyMax, err = first("temperature_2m_max", resp.Daily.TemperatureMax); err != nil {
		return nil, err
	}
	if report.DailyMin, err = first("temperature_2m_min", resp.Daily.TemperatureMin); err != nil {
		return nil, err
	}
	return report, nil
}

// Precipitation returns current precipitation data for the coordinates.
func (c *Client) Precipitation(ctx context.Context, lat, lon float64) (*PrecipitationReport, error) {
	resp, err := c.forecast(ctx, lat, lon, forecastQuery{
		current: []string{"precipitation", "rain", "showers", "snowfall", "weather_code"},
		daily:   []string{"precipitation_sum", "rain_sum", "snowfall_sum", "precipitation_probability_max"},
		days:    1,
	})
	if err != nil {
		return nil, err
	}

	report := &PrecipitationReport{Unit: resp.CurrentUnits.Precipitation}
	report.Current.TotalPrecipitation = resp.Current.Precipitation
	report.Current.Rain = resp.Current.Rain
	report.Current.Showers = resp.Current.Showers
	report.Current.Snowfall = resp.Current.Snowfall
	report.Current.WeatherCondition = Condition(resp.Current.WeatherCode)

	if report.Daily.PrecipitationSum, err = first("precipitation_sum", resp.Daily.PrecipitationSum); err != nil {
		return nil, err
	}
	if report.Daily.RainSum, err = first("rain_sum", resp.Daily.RainSum); err != nil {
		return nil, err
	}
	if report.Daily.SnowfallSum, err = first("snowfall_sum", resp.Daily.SnowfallSum); err != nil {
		return nil, err
	}
	if report.Daily.PrecipitationProbability, err = first("precipitation_probability_max", resp.Daily.PrecipitationProbability); err != nil {
		return nil, err
	}
	return report, nil
}

// Wind returns current wind data for the coordinates.
func (c *Client) Wind(ctx context.Context, lat, lon float64) (*WindReport, error) {
	resp, err := c.forecast(ctx, lat, lon, forecastQuery{
		current: []string{"wind_speed_10m", "wind_direction_10m", "wind_gusts_10m"},
		daily:   []string{"wind_speed_10m_max", "wind_gusts_10m_max", "wind_direction_10m_dominant"},
		days:    1,
	})
	if err != nil {
		return nil, err
	}

	report := &WindReport{Unit: resp.CurrentUnits.WindSpeed}
	report.Current.WindSpeed = resp.Current.WindSpeed
	report.Current.WindDirectionDegrees = resp.Current.WindDirection
	report.Current.WindDirectionCompass = Compass(resp.Current.WindDirection)
	report.Current.WindGusts = resp.Current.WindGusts

	if report.Daily.MaxWindSpeed, err = first("wind_speed_10m_max", resp.Daily.WindSpeedMax); err != nil {
		return nil, err
	}
	if report.Daily.MaxWindGusts, err = first("wind_gusts_10m_max", resp.Daily.WindGustsMax); err != nil {
		return nil, err
	}
	if report.Daily.DominantDirectionDegrees, err = first("wind_direction_10m_dominant", resp.Daily.WindDirectionDominant); err != nil {
		return nil, err
	}
	report.Daily.DominantDirectionCompass = Compass(report.Daily.DominantDirectionDegrees)
	return report, nil
}

// WindForecast returns a ForecastDays-day wind forecast for the coordinates.
func (c *Client) WindForecast(ctx context.Context, lat, lon float64) (*WindForecastReport, error) {
	resp, err := c.forecast(ctx, lat, lon, forecastQuery{
		daily: []string{"wind_speed_10m_max", "wind_gusts_10m_max", "wind_direction_10m_dominant"},
		days:  ForecastDays,
	})
	if err != nil {
		return nil, err
	}

	d := resp.Daily
	if len(d.WindSpeedMax) < len(d.Time) || len(d.WindGustsMax) < len(d.Time) || len(d.WindDirectionDominant) < len(d.Time) {
		return nil, fmt.Errorf("forecast response has mismatched daily series")
	}

	report := &WindForecastReport{
		Forecast: make([]WindDay, 0, len(d.Time)),
		Unit:     resp.DailyUnits.WindSpeedMax,
	}
	for i, date := range d.Time {
		report.Forecast = append(report.Forecast, WindDay{
			Date:                     date,
			MaxWindSpeed:             d.WindSpeedMax[i],
			MaxWindGusts:             d.WindGustsMax[i],
			DominantDirectionDegrees: d.WindDirectionDominant[i],
			DominantDirectionCompass: Compass(d.WindDirectionDominant[i]),
		})
	}
	return report, nil
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass converts a direction in degrees to a 16-point compass label, or "N/A" when unknown.
func Compass(degrees *float64) string {
	if degrees == nil || math.IsNaN(*degrees) {
		return "N/A"
	}
	idx := int(math.RoundToEven(*degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// WMO weather interpretation codes.
var conditions = map[int]string{
	0: "Clear sky", 1: "Mainly clear", 2: "Partly cloudy", 3: "Overcast",
	45: "Fog", 48: "Depositing rime fog",
	51: "Light drizzle", 53: "Moderate drizzle", 55: "Dense drizzle",
	56: "Light freezing drizzle", 57: "Dense freezing drizzle",
	61: "Slight rain", 63: "Moderate rain", 65: "Heavy rain",
	66: "Light freezing rain", 67: "Heavy freezing rain",
	71: "Slight snow", 73: "Moderate snow", 75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers", 81: "Moderate rain showers", 82: "Violent rain showers",
	85: "Slight snow showers", 86: "Heavy snow showers",
	95: "Thunderstorm", 96: "Thunderstorm with slight hail", 99: "Thunderstorm with heavy hail",
}

// Condition describes a WMO weather code.
func Condition(code int) string {
	if desc, ok := conditions[code]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown (%d)", code)
}
