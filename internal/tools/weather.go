package tools

import (
	"context"

	"github.com/niquolic/foot-chatbot/internal/stringtool"
	"github.com/niquolic/foot-chatbot/internal/weather"
)

// weatherTools binds the Open-Meteo client to string-input tool functions.
type weatherTools struct {
	client *weather.Client
}

func (w weatherTools) geocode(ctx context.Context, city string) (string, error) {
	loc, err := w.client.Geocode(ctx, city)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

func (w weatherTools) temperature(ctx context.Context, lat, lon float64) (string, error) {
	report, err := w.client.Temperature(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	return renderJSON(report)
}

func (w weatherTools) precipitation(ctx context.Context, lat, lon float64) (string, error) {
	report, err := w.client.Precipitation(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	return renderJSON(report)
}

func (w weatherTools) wind(ctx context.Context, lat, lon float64) (string, error) {
	report, err := w.client.Wind(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	return renderJSON(report)
}

func (w weatherTools) windForecast(ctx context.Context, lat, lon float64) (string, error) {
	report, err := w.client.WindForecast(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	return renderJSON(report)
}

// WeatherTools returns the city weather tools backed by client.
func WeatherTools(client *weather.Client) []Tool {
	w := weatherTools{client: client}
	coords := []string{"latitude", "longitude"}

	return []Tool{
		mustFromFunc(w.geocode, []string{"city"}, "geocode_city",
			"Find the coordinates of a city. Use it before the other weather tools."),
		mustFromFunc(w.temperature, coords, "get_city_temperature",
			"Get the current temperature, feels-like temperature and today's range at the given coordinates."),
		mustFromFunc(w.precipitation, coords, "get_city_precipitation",
			"Get current precipitation, the weather condition and today's precipitation totals at the given coordinates."),
		mustFromFunc(w.wind, coords, "get_city_wind",
			"Get the current wind speed, direction and gusts at the given coordinates."),
		mustFromFunc(w.windForecast, coords, "get_city_wind_forecast",
			"Get the 7-day wind forecast at the given coordinates."),
	}
}

// mustFromFunc panics on a bad signature; the tool functions are fixed at compile time.
func mustFromFunc(fn any, names []string, name, description string) *StringTool {
	adapter, err := stringtool.FromFunc(fn, names, stringtool.WithName(name))
	if err != nil {
		panic(err)
	}
	return NewStringTool(adapter, description)
}
