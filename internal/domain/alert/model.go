package alert

// Category represents an alert category a farmer can subscribe to.
type Category string

const (
	CategoryWeather Category = "weather"
	CategoryPrice   Category = "price"
	CategoryWelcome Category = "welcome"
)

// validCategories is the set of all recognized alert categories.
var validCategories = map[Category]bool{
	CategoryWeather: true,
	CategoryPrice:   true,
	CategoryWelcome: true,
}

// IsValidCategory checks whether an alert category is recognized.
func IsValidCategory(c Category) bool {
	return validCategories[c]
}

// Farmer is a user profile row as read from the user store. The dispatcher
// treats it as opaque; only the per-recipient operations look inside.
type Farmer struct {
	ID               string   `json:"id"`
	Email            string   `json:"email"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Location         string   `json:"location,omitempty"`
	Timezone         string   `json:"timezone,omitempty"`
	NotificationTime string   `json:"notification_time,omitempty"`
	WeatherAlerts    bool     `json:"weather_alerts"`
	PriceAlerts      bool     `json:"price_alerts"`
	PreferredCrops   []string `json:"preferred_crops_for_alerts,omitempty"`
	CropTypes        []string `json:"crop_types,omitempty"`
}

// WeatherReport holds normalized current conditions for one location.
// Temperature is °C rounded, wind is km/h rounded.
type WeatherReport struct {
	Temperature int    `json:"temperature"`
	Humidity    int    `json:"humidity"`
	WindKPH     int    `json:"wind_kph"`
	Condition   string `json:"condition"`
	Location    string `json:"location"`
}

// Trend is the direction of a commodity price move.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Quote is a raw commodity price observation from a market source.
type Quote struct {
	Commodity string  `json:"commodity"`
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	Market    string  `json:"market"`
}

// PriceAlert is a quote that cleared the significance threshold, enriched
// with the computed change and trend.
type PriceAlert struct {
	Crop          string  `json:"crop"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Market        string  `json:"market"`
	Trend         Trend   `json:"trend"`
}

// Message is the internal rendered email ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// WelcomeRequest is the API request payload for sending a welcome email.
type WelcomeRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Location  string `json:"location"`
}

// ResendWelcomeRequest is the API request payload for resending a welcome email.
type ResendWelcomeRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// WelcomeResponse is the API response payload after a welcome email is enqueued.
type WelcomeResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// RunResponse is the API response payload for one alert dispatch run.
type RunResponse struct {
	Message string    `json:"message"`
	Total   int       `json:"total"`
	Sent    int       `json:"sent"`
	Failed  int       `json:"failed"`
	Results []Outcome `json:"results"`
}
