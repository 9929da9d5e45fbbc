package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentNormalizesConditions(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":     r.URL.Query().Get("q"),
			"units": r.URL.Query().Get("units"),
			"appid": r.URL.Query().Get("appid"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "Ludhiana",
			"sys": {"country": "IN"},
			"main": {"temp": 31.6, "humidity": 58},
			"wind": {"speed": 3.2},
			"weather": [{"description": "haze"}]
		}`))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("test-key", srv.URL, 5*time.Second)

	report, err := c.Current(context.Background(), "Ludhiana, Punjab")
	require.NoError(t, err)

	// "City, State" queries by the city segment only
	assert.Equal(t, "Ludhiana", gotQuery["q"])
	assert.Equal(t, "metric", gotQuery["units"])
	assert.Equal(t, "test-key", gotQuery["appid"])

	assert.Equal(t, 32, report.Temperature, "temperature rounds to the nearest degree")
	assert.Equal(t, 58, report.Humidity)
	assert.Equal(t, 12, report.WindKPH, "3.2 m/s is 11.52 km/h, rounded to 12")
	assert.Equal(t, "haze", report.Condition)
	assert.Equal(t, "Ludhiana, IN", report.Location)
}

func TestCurrentReturnsErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("test-key", srv.URL, 5*time.Second)

	_, err := c.Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestCurrentHandlesEmptyWeatherArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Moga","sys":{"country":"IN"},"main":{"temp":25,"humidity":60},"wind":{"speed":2.78},"weather":[]}`))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("test-key", srv.URL, 5*time.Second)

	report, err := c.Current(context.Background(), "Moga")
	require.NoError(t, err)
	assert.Empty(t, report.Condition)
	assert.Equal(t, 10, report.WindKPH)
}

func TestCityOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ludhiana, Punjab, India", "Ludhiana"},
		{"  Amritsar , Punjab", "Amritsar"},
		{"Delhi", "Delhi"},
		{"", "Ludhiana"},
		{" , Punjab", "Ludhiana"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cityOf(tt.in), "cityOf(%q)", tt.in)
	}
}
