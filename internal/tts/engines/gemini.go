package engines

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/tts"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model that supports the AUDIO response modality.
const DefaultModel = "gemini-2.5-flash-preview-tts"

// User-facing messages for provider failures.
const (
	msgTextInsteadOfAudio = "Model returned text instead of audio. The request might be too complex for TTS mode."
	msgNoAudio            = "No audio data received from Gemini."
	msgBadRequest         = "Invalid Request (400). The model may not support complex instructions."
	msgServerError        = "Server Error (500). Please try again in a moment."
	msgAudioUnsupported   = "Model configuration error: Selected model does not support audio."
	msgInvalidKey         = "API key was rejected by Gemini. Check gemini.api_key."
)

// GeminiEngine implements tts.Synthesizer on top of the Gemini
// generateContent endpoint with the AUDIO response modality.
type GeminiEngine struct {
	// Configuration
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	// Pacing only: a wait never turns into a retry.
	rateLimiter *rate.Limiter

	// Lazily created on the first request that has a key.
	client *genai.Client
	mu     sync.Mutex
}

// GeminiConfig holds configuration for the Gemini engine.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. Empty is allowed at
	// construction; every Synthesize call then fails with a credential error.
	APIKey string

	// Model name - defaults to DefaultModel
	Model string

	// BaseURL overrides the API endpoint (tests point it at httptest).
	BaseURL string

	// HTTPClient is optional.
	HTTPClient *http.Client

	// Rate limit requests per minute (defaults to 10)
	RequestsPerMinute int
}

// NewGeminiEngine creates a new Gemini TTS engine.
func NewGeminiEngine(config GeminiConfig) *GeminiEngine {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 10
	}

	return &GeminiEngine{
		apiKey:      strings.TrimSpace(config.APIKey),
		model:       config.Model,
		baseURL:     config.BaseURL,
		httpClient:  config.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Model returns the configured model name.
func (e *GeminiEngine) Model() string {
	return e.model
}

// Synthesize performs exactly one generateContent call and returns the
// audio payload as standard base64.
func (e *GeminiEngine) Synthesize(ctx context.Context, req tts.GenerationRequest) (string, error) {
	if e.apiKey == "" {
		return "", tts.NewTTSError(tts.ErrorCodeCredential, tts.ErrMissingCredential.Error(), tts.ErrMissingCredential)
	}

	client, err := e.getClient(ctx)
	if err != nil {
		return "", tts.NewTTSError(tts.ErrorCodeProvider, "Failed to generate speech: "+err.Error(), err)
	}

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return "", tts.NewTTSError(tts.ErrorCodeProvider, "Failed to generate speech: "+err.Error(), err)
	}

	prompt := tts.BuildInstruction(req).Prompt()
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: req.Voice.ProviderVoice,
				},
			},
		},
	}

	log.Debug("gemini: generateContent", "model", e.model, "voice", req.Voice.ProviderVoice,
		"language", req.Language, "dialect", req.Dialect, "prompt_len", len(prompt))

	resp, err := client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), config)
	if err != nil {
		mapped := mapProviderError(err)
		log.Error("gemini: request failed", "code", mapped.Code, "err", err)
		return "", mapped
	}

	audio, err := extractAudio(resp)
	if err != nil {
		log.Warn("gemini: response without audio", "code", tts.CodeOf(err))
		return "", err
	}

	return base64.StdEncoding.EncodeToString(audio), nil
}

// getClient returns the genai client, creating it on first use.
func (e *GeminiEngine) getClient(ctx context.Context) (*genai.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		return e.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     e.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: e.httpClient,
	}
	if e.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: e.baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	e.client = client
	return client, nil
}

// extractAudio pulls the inline audio bytes out of the first candidate.
func extractAudio(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeNoAudio, msgNoAudio, nil)
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return nil, tts.NewTTSError(tts.ErrorCodeNoAudio, msgNoAudio, nil)
	}

	part := content.Parts[0]
	if part.Text != "" && part.InlineData == nil {
		return nil, tts.NewTTSError(tts.ErrorCodeTextInsteadOfAudio, msgTextInsteadOfAudio, nil).
			WithContext("text_len", len(part.Text))
	}
	if part.InlineData == nil || len(part.InlineData.Data) == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeNoAudio, msgNoAudio, nil)
	}

	return part.InlineData.Data, nil
}

// mapProviderError turns an SDK or transport error into a user-facing
// TTSError. Precedence: "text output", then a rejected credential, then
// 5xx, then 4xx.
func mapProviderError(err error) *tts.TTSError {
	msg := err.Error()

	var apiErr genai.APIError
	status := 0
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	}

	switch {
	case strings.Contains(msg, "text output"):
		return tts.NewTTSError(tts.ErrorCodeAudioUnsupported, msgAudioUnsupported, err)
	case isCredentialError(msg, status):
		return tts.NewTTSError(tts.ErrorCodeCredential, msgInvalidKey, err)
	case status/100 == 5, strings.Contains(msg, "500"):
		return tts.NewTTSError(tts.ErrorCodeServer, msgServerError, err)
	case status/100 == 4 && status != http.StatusTooManyRequests, strings.Contains(msg, "400"):
		return tts.NewTTSError(tts.ErrorCodeBadRequest, msgBadRequest, err)
	default:
		return tts.NewTTSError(tts.ErrorCodeProvider, "Failed to generate speech: "+msg, err)
	}
}

var credentialMarkers = []string{"API key", "API_KEY", "PERMISSION_DENIED", "UNAUTHENTICATED"}

func isCredentialError(msg string, status int) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	for _, m := range credentialMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
