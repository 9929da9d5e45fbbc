package alert

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroalert/internal/common"
	"agroalert/internal/middleware"
)

const testCronSecret = "test-cron-secret"

// newTestRouter wires the handler behind the same auth and 405 handling the
// production router uses.
func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		common.Error(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	api := r.Group("/api/v1")
	api.Use(middleware.CronAuth(testCronSecret))
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRunWeatherAlertsEndpoint(t *testing.T) {
	farmers := &fakeFarmerStore{subscribers: map[Category][]Farmer{
		CategoryWeather: {
			{ID: "u1", Email: "a@example.com", FirstName: "Asha"},
			{ID: "u2", Email: "b@example.com", FirstName: "Baljit"},
		},
	}}
	sender := &fakeSender{failFor: map[string]string{"b@example.com": "SMTP timeout"}}
	weather := &fakeWeather{report: &WeatherReport{Temperature: 25, Humidity: 60, WindKPH: 10, Condition: "partly cloudy", Location: "Ludhiana, IN"}}
	svc := newTestService(farmers, newFakeDeliveryStore(), sender, weather, &fakePrices{}, &fakeEnqueuer{}, nil)

	r := newTestRouter(svc)
	w := doRequest(t, r, http.MethodPost, "/api/v1/alerts/weather/run", testCronSecret, nil)

	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var run RunResponse
	require.NoError(t, json.Unmarshal(data, &run))

	assert.Equal(t, "Weather alerts processing completed", run.Message)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Sent)
	assert.Equal(t, 1, run.Failed)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "u1", run.Results[0].RecipientID)
	assert.True(t, run.Results[0].Success)
	assert.Equal(t, "SMTP timeout", run.Results[1].Detail)
}

func TestRunEndpointsRequireCronSecret(t *testing.T) {
	svc := newTestService(&fakeFarmerStore{}, newFakeDeliveryStore(), &fakeSender{}, &fakeWeather{}, &fakePrices{}, &fakeEnqueuer{}, nil)
	r := newTestRouter(svc)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "not-the-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodPost, "/api/v1/alerts/price/run", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			resp := decodeEnvelope(t, w)
			assert.False(t, resp.Success)
		})
	}
}

func TestRunEndpointRejectsWrongMethod(t *testing.T) {
	svc := newTestService(&fakeFarmerStore{}, newFakeDeliveryStore(), &fakeSender{}, &fakeWeather{}, &fakePrices{}, &fakeEnqueuer{}, nil)
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodGet, "/api/v1/alerts/weather/run", testCronSecret, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRunEndpointReturns500OnSubscriberFetchFailure(t *testing.T) {
	farmers := &fakeFarmerStore{listErr: assert.AnError}
	svc := newTestService(farmers, newFakeDeliveryStore(), &fakeSender{}, &fakeWeather{}, &fakePrices{}, &fakeEnqueuer{}, nil)
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/alerts/weather/run", testCronSecret, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "internal server error", resp.Error.Message)
}

func TestSendWelcomeEndpoint(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	svc := newTestService(&fakeFarmerStore{}, newFakeDeliveryStore(), &fakeSender{}, &fakeWeather{}, &fakePrices{}, enqueuer, nil)
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/emails/welcome", testCronSecret, gin.H{
		"user_id":    "u1",
		"email":      "a@example.com",
		"first_name": "Asha",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, enqueuer.ids, 1)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
}

func TestSendWelcomeEndpointValidatesBody(t *testing.T) {
	svc := newTestService(&fakeFarmerStore{}, newFakeDeliveryStore(), &fakeSender{}, &fakeWeather{}, &fakePrices{}, &fakeEnqueuer{}, nil)
	r := newTestRouter(svc)

	// Missing the required email field
	w := doRequest(t, r, http.MethodPost, "/api/v1/emails/welcome", testCronSecret, gin.H{
		"user_id":    "u1",
		"first_name": "Asha",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResendWelcomeEndpointUnknownFarmer(t *testing.T) {
	svc := newTestService(&fakeFarmerStore{}, newFakeDeliveryStore(), &fakeSender{}, &fakeWeather{}, &fakePrices{}, &fakeEnqueuer{}, nil)
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/emails/welcome/resend", testCronSecret, gin.H{
		"user_id": "ghost",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDeliveryEndpoint(t *testing.T) {
	deliveries := newFakeDeliveryStore()
	id := seedDelivery(t, deliveries, &Delivery{UserID: "u1", Recipient: "a@example.com", Status: StatusQueued, Category: string(CategoryWelcome)})
	svc := newTestService(&fakeFarmerStore{}, deliveries, &fakeSender{}, &fakeWeather{}, &fakePrices{}, &fakeEnqueuer{}, nil)
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodGet, "/api/v1/deliveries/"+id, testCronSecret, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/v1/deliveries/ghost", testCronSecret, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDeliveriesEndpoint(t *testing.T) {
	deliveries := newFakeDeliveryStore()
	seedDelivery(t, deliveries, &Delivery{UserID: "u1", Recipient: "a@example.com", Status: StatusSent, Category: string(CategoryWelcome)})
	svc := newTestService(&fakeFarmerStore{}, deliveries, &fakeSender{}, &fakeWeather{}, &fakePrices{}, &fakeEnqueuer{}, nil)
	r := newTestRouter(svc)

	w := doRequest(t, r, http.MethodGet, "/api/v1/deliveries?page=1&page_size=10", testCronSecret, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
}
