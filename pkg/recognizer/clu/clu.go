// Package clu classifies utterances with an Azure Conversational Language Understanding deployment.
package clu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/corebot/pkg/domain"
	"github.com/aretw0/corebot/pkg/ports"
)

// APIVersion is the analyze-conversations API version used.
const APIVersion = "2023-04-01"

const maxResponseSize = 1 << 20

// Config identifies the CLU deployment. All four fields are required.
type Config struct {
	ProjectName    string `yaml:"project_name"`
	DeploymentName string `yaml:"deployment_name"`
	APIKey         string `yaml:"api_key"`
	// APIHostName is the resource host (e.g. "myres.cognitiveservices.azure.com")
	// or a full base URL.
	APIHostName string `yaml:"api_host_name"`
}

// Configured reports whether every field is set.
func (c Config) Configured() bool {
	return c.ProjectName != "" && c.DeploymentName != "" && c.APIKey != "" && c.APIHostName != ""
}

func (c Config) endpoint() string {
	base := c.APIHostName
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/") + "/language/:analyze-conversations?api-version=" + APIVersion
}

// Recognizer calls the CLU runtime REST API.
type Recognizer struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// Option configures the Recognizer.
type Option func(*Recognizer)

// WithHTTPClient overrides the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(r *Recognizer) {
		if c != nil {
			r.client = c
		}
	}
}

// WithLogger sets the recognizer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recognizer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a recognizer. An incomplete config yields an unconfigured recognizer.
func New(cfg Config, opts ...Option) *Recognizer {
	r := &Recognizer{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.Recognizer = (*Recognizer)(nil)

// IsConfigured reports whether the CLU deployment is fully configured.
func (r *Recognizer) IsConfigured() bool {
	return r.cfg.Configured()
}

type analyzeRequest struct {
	Kind          string        `json:"kind"`
	AnalysisInput analysisInput `json:"analysisInput"`
	Parameters    parameters    `json:"parameters"`
}

type analysisInput struct {
	ConversationItem conversationItem `json:"conversationItem"`
}

type conversationItem struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
}

type parameters struct {
	ProjectName     string `json:"projectName"`
	DeploymentName  string `json:"deploymentName"`
	StringIndexType string `json:"stringIndexType"`
}

type analyzeResponse struct {
	Result struct {
		Prediction struct {
			TopIntent string `json:"topIntent"`
			Intents   []struct {
				Category        string  `json:"category"`
				ConfidenceScore float64 `json:"confidenceScore"`
			} `json:"intents"`
			Entities []entity `json:"entities"`
		} `json:"prediction"`
	} `json:"result"`
}

type entity struct {
	Category         string `json:"category"`
	Text             string `json:"text"`
	ExtraInformation []struct {
		ExtraInformationKind string `json:"extraInformationKind"`
		Key                  string `json:"key"`
	} `json:"extraInformation"`
	Resolutions []struct {
		ResolutionKind string `json:"resolutionKind"`
		Timex          string `json:"timex"`
	} `json:"resolutions"`
}

// value prefers the list key, then the timex resolution, then the raw text.
func (e entity) value() string {
	for _, x := range e.ExtraInformation {
		if x.ExtraInformationKind == "ListKey" && x.Key != "" {
			return x.Key
		}
	}
	for _, res := range e.Resolutions {
		if res.ResolutionKind == "DateTimeResolution" && res.Timex != "" {
			return res.Timex
		}
	}
	return e.Text
}

// Classify sends text to the deployment and maps the prediction.
func (r *Recognizer) Classify(ctx context.Context, text string) (*domain.IntentResult, error) {
	if !r.IsConfigured() {
		return nil, fmt.Errorf("%w: recognizer not configured", domain.ErrClassificationUnavailable)
	}

	body, err := json.Marshal(analyzeRequest{
		Kind: "Conversation",
		AnalysisInput: analysisInput{ConversationItem: conversationItem{
			ID: "1", ParticipantID: "1", Text: text,
		}},
		Parameters: parameters{
			ProjectName:     r.cfg.ProjectName,
			DeploymentName:  r.cfg.DeploymentName,
			StringIndexType: "TextElement_V8",
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", r.cfg.APIKey)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrClassificationUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrClassificationUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrClassificationUnavailable, err)
	}

	pred := out.Result.Prediction
	result := &domain.IntentResult{
		TopIntent: pred.TopIntent,
		Entities:  make(map[string]string, len(pred.Entities)),
	}
	for _, in := range pred.Intents {
		if in.Category == pred.TopIntent {
			result.Confidence = in.ConfidenceScore
			break
		}
	}
	for _, e := range pred.Entities {
		if _, seen := result.Entities[e.Category]; !seen {
			result.Entities[e.Category] = e.value()
		}
	}

	r.logger.DebugContext(ctx, "utterance classified",
		"intent", result.TopIntent, "confidence", result.Confidence,
		"entities", len(result.Entities), "duration", time.Since(start))
	return result, nil
}

// Unconfigured is a recognizer that never classifies.
type Unconfigured struct{}

func (Unconfigured) IsConfigured() bool { return false }

func (Unconfigured) Classify(context.Context, string) (*domain.IntentResult, error) {
	return nil, fmt.Errorf("%w: recognizer not configured", domain.ErrClassificationUnavailable)
}
