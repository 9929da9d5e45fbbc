package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroalert/internal/domain/alert"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("templates")
	require.NoError(t, err)
	return e
}

func TestRenderWeatherAlert(t *testing.T) {
	e := newTestEngine(t)

	subject, html, text, err := e.Render(alert.CategoryWeather, map[string]any{
		"Subject":     "🌤️ Daily Weather Alert - Ludhiana, IN",
		"FirstName":   "Asha",
		"Temperature": 31,
		"Humidity":    58,
		"Wind":        12,
		"Condition":   "haze",
		"Location":    "Ludhiana, IN",
		"Tips":        []string{"Favourable conditions for field work - a good day for sowing or harvesting."},
		"AppURL":      "https://agroalert.app",
	})
	require.NoError(t, err)

	assert.Equal(t, "🌤️ Daily Weather Alert - Ludhiana, IN", subject)
	assert.Contains(t, html, "Asha")
	assert.Contains(t, html, "31°C")
	assert.Contains(t, html, "haze")
	assert.Contains(t, html, "https://agroalert.app")

	// Plain-text fallback carries the content without markup or CSS
	assert.Contains(t, text, "Asha")
	assert.NotContains(t, text, "<")
	assert.NotContains(t, text, "font-family")
}

func TestRenderPriceAlert(t *testing.T) {
	e := newTestEngine(t)

	subject, html, _, err := e.Render(alert.CategoryPrice, map[string]any{
		"FirstName": "Baljit",
		"Alerts": []alert.PriceAlert{
			{Crop: "Wheat", CurrentPrice: 2150, PreviousPrice: 2100, Change: 50, ChangePercent: 2.38, Market: "Ludhiana Mandi", Trend: alert.TrendUp},
			{Crop: "Corn", CurrentPrice: 1850, PreviousPrice: 1900, Change: -50, ChangePercent: -2.63, Market: "Ludhiana Mandi", Trend: alert.TrendDown},
		},
		"AppURL": "https://agroalert.app",
	})
	require.NoError(t, err)

	// No override supplied, so the registry default subject applies
	assert.Equal(t, "📈 Market Price Updates", subject)

	assert.Contains(t, html, "Wheat")
	assert.Contains(t, html, "₹2150")
	assert.Contains(t, html, "+2.4%")
	assert.Contains(t, html, "price-trend-up")
	assert.Contains(t, html, "Corn")
	assert.Contains(t, html, "-2.6%")
	assert.Contains(t, html, "price-trend-down")
}

func TestRenderWelcome(t *testing.T) {
	e := newTestEngine(t)

	subject, html, text, err := e.Render(alert.CategoryWelcome, map[string]any{
		"FirstName": "Asha",
		"AppURL":    "https://agroalert.app",
	})
	require.NoError(t, err)

	assert.Contains(t, subject, "Welcome to AgroAlert")
	assert.Contains(t, html, "Asha")
	assert.Contains(t, html, "https://agroalert.app")
	assert.Contains(t, text, "Asha")
}

func TestRenderUnknownCategory(t *testing.T) {
	e := newTestEngine(t)

	_, _, _, err := e.Render(alert.Category("sms"), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no template registered")
}

func TestStripHTML(t *testing.T) {
	in := `<html><head><style>body { color: red; }</style></head><body><p>Hello &amp; welcome,&nbsp;<b>Asha</b>!</p></body></html>`
	assert.Equal(t, "Hello & welcome, Asha!", stripHTML(in))
}
