package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// WeatherTool implements the 'get_weather' tool, fetching current conditions
// from the Open-Meteo forecast API.
type WeatherTool struct {
	client  *http.Client
	baseURL string
}

// NewWeatherTool creates a WeatherTool against the public Open-Meteo API.
func NewWeatherTool() *WeatherTool {
	return &WeatherTool{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: openMeteoBaseURL,
	}
}

// NewWeatherToolWithBaseURL creates a WeatherTool against a custom endpoint.
func NewWeatherToolWithBaseURL(baseURL string, client *http.Client) *WeatherTool {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WeatherTool{client: client, baseURL: baseURL}
}

// Definition implements Tool.
func (t *WeatherTool) Definition() Definition {
	return Definition{
		Name:        "get_weather",
		Description: "Get the current weather at a location",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"latitude": map[string]interface{}{
					"type":        "number",
					"description": "Latitude of the location",
				},
				"longitude": map[string]interface{}{
					"type":        "number",
					"description": "Longitude of the location",
				},
			},
			"required": []string{"latitude", "longitude"},
		},
	}
}

// Execute implements Tool.
// Input parameters:
//   - latitude (number, required)
//   - longitude (number, required)
//
// Returns the decoded Open-Meteo forecast payload.
func (t *WeatherTool) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	lat, ok := input["latitude"].(float64)
	if !ok {
		return nil, errors.New("missing required parameter: latitude (number)")
	}
	lon, ok := input["longitude"].(float64)
	if !ok {
		return nil, errors.New("missing required parameter: longitude (number)")
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("current", "temperature_2m")
	query.Set("hourly", "temperature_2m")
	query.Set("daily", "sunrise,sunset")
	query.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request failed: status %d", resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	return payload, nil
}
