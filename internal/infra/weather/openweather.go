package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agroalert/internal/domain/alert"
)

var _ alert.WeatherSource = (*OpenWeatherClient)(nil)

// OpenWeatherClient fetches current conditions from the OpenWeather API.
type OpenWeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenWeatherClient creates a new OpenWeather client. The timeout bounds
// each conditions fetch so one slow recipient cannot stall its batch.
func NewOpenWeatherClient(apiKey, baseURL string, timeout time.Duration) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenWeatherClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// currentResponse mirrors the fields of /data/2.5/weather we use.
type currentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s with units=metric
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches metric conditions for a free-form location string and
// normalizes them: °C rounded, wind converted from m/s to km/h and rounded,
// label rebuilt as "<city>, <country>". Locations like "City, State" are
// queried by their city segment.
func (c *OpenWeatherClient) Current(ctx context.Context, location string) (*alert.WeatherReport, error) {
	city := cityOf(location)

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openweather: status %d for %q", resp.StatusCode, city)
	}

	var data currentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing openweather response: %w", err)
	}

	condition := ""
	if len(data.Weather) > 0 {
		condition = data.Weather[0].Description
	}

	return &alert.WeatherReport{
		Temperature: int(math.Round(data.Main.Temp)),
		Humidity:    data.Main.Humidity,
		WindKPH:     int(math.Round(data.Wind.Speed * 3.6)),
		Condition:   condition,
		Location:    fmt.Sprintf("%s, %s", data.Name, data.Sys.Country),
	}, nil
}

// cityOf extracts the city segment from "City, State"-style locations.
func cityOf(location string) string {
	city, _, _ := strings.Cut(location, ",")
	city = strings.TrimSpace(city)
	if city == "" {
		city = "Ludhiana"
	}
	return city
}
