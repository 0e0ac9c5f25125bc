// Package speech turns recorded audio into text through Deepgram's
// prerecorded transcription API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultEndpoint is the Deepgram listen URL with the multilingual nova-2
// model and smart formatting.
const DefaultEndpoint = "https://api.deepgram.com/v1/listen?language=multi&smart_format=true&model=nova-2"

// DefaultContentType is what browser MediaRecorder produces.
const DefaultContentType = "audio/webm;codecs=opus"

// ErrNoAPIKey is returned when no Deepgram key is configured.
var ErrNoAPIKey = errors.New("deepgram API key not configured")

var tracer = otel.Tracer("github.com/hvga/hvga-og/internal/speech")

// Transcriber is anything that can turn audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// Deepgram calls the Deepgram API.
type Deepgram struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewDeepgram creates a client. An empty endpoint uses DefaultEndpoint.
func NewDeepgram(apiKey, endpoint string, timeout time.Duration) *Deepgram {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Deepgram{
		apiKey:   apiKey,
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe posts the audio and returns the first alternative's transcript,
// or "" when Deepgram heard nothing.
func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if d.apiKey == "" {
		return "", ErrNoAPIKey
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	ctx, span := tracer.Start(ctx, "speech.Transcribe")
	defer span.End()
	span.SetAttributes(attribute.Int("audio.bytes", len(audio)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := d.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("deepgram returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.SetStatus(codes.Error, err.Error())
		log.Warn().Int("status", resp.StatusCode).Msg("deepgram transcription failed")
		return "", err
	}

	var parsed listenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}
