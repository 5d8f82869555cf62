package clu_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/recognizer/clu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookFlightResponse = `{
  "kind": "ConversationResult",
  "result": {
    "query": "fly from Seattle to Paris tomorrow",
    "prediction": {
      "topIntent": "BookFlight",
      "projectKind": "Conversation",
      "intents": [
        {"category": "BookFlight", "confidenceScore": 0.93},
        {"category": "None", "confidenceScore": 0.02}
      ],
      "entities": [
        {"category": "fromCity", "text": "seattle", "extraInformation": [{"extraInformationKind": "ListKey", "key": "Seattle"}]},
        {"category": "toCity", "text": "Paris"},
        {"category": "flightDate", "text": "tomorrow", "resolutions": [{"resolutionKind": "DateTimeResolution", "dateTimeSubKind": "Date", "timex": "2026-10-15", "value": "2026-10-15"}]}
      ]
    }
  }
}`

func newConfig(url string) clu.Config {
	return clu.Config{ProjectName: "FlightBooking", DeploymentName: "prod", APIKey: "secret", APIHostName: url}
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/language/:analyze-conversations", r.URL.Path)
		assert.Equal(t, clu.APIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		params := body["parameters"].(map[string]any)
		assert.Equal(t, "FlightBooking", params["projectName"])
		assert.Equal(t, "prod", params["deploymentName"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bookFlightResponse))
	}))
	defer srv.Close()

	r := clu.New(newConfig(srv.URL))
	require.True(t, r.IsConfigured())

	res, err := r.Classify(context.Background(), "fly from Seattle to Paris tomorrow")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentBookFlight, res.TopIntent)
	assert.InDelta(t, 0.93, res.Confidence, 1e-9)
	assert.Equal(t, "Seattle", res.FromCity())
	assert.Equal(t, "Paris", res.ToCity())
	assert.Equal(t, "2026-10-15", res.FlightDate())
	assert.Empty(t, res.PizzaName())
}

func TestClassify_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := clu.New(newConfig(srv.URL)).Classify(context.Background(), "hi")
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
	assert.Contains(t, err.Error(), "429")
}

func TestClassify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := clu.New(newConfig(url)).Classify(context.Background(), "hi")
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
}

func TestConfigured(t *testing.T) {
	cfg := newConfig("example.cognitiveservices.azure.com")
	assert.True(t, cfg.Configured())

	cfg.APIKey = ""
	r := clu.New(cfg)
	assert.False(t, r.IsConfigured())
	_, err := r.Classify(context.Background(), "hi")
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)

	assert.False(t, clu.Unconfigured{}.IsConfigured())
}
