package voice

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/jarvisfi-go/httpclient"
)

// HTTPTranscriber posts the raw recording to a speech-to-text endpoint and
// reads {"text": ..., "confidence": ...} back.
type HTTPTranscriber struct {
	url    string
	client *httpclient.Client
}

// NewHTTPTranscriber creates a transcriber for endpoint.
func NewHTTPTranscriber(endpoint string, client *httpclient.Client) *HTTPTranscriber {
	return &HTTPTranscriber{url: endpoint, client: client}
}

func (t *HTTPTranscriber) Name() string { return t.client.Name() }

type transcribeResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, format, lang string) (*Transcription, error) {
	target, err := withQuery(t.url, url.Values{"language": {Locale(lang)}, "format": {format}})
	if err != nil {
		return nil, err
	}
	var out transcribeResponse
	err = t.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(audio))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentTypes[format])
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, &out)
	if err != nil {
		return nil, err
	}
	return &Transcription{Text: strings.TrimSpace(out.Text), Confidence: out.Confidence}, nil
}

var contentTypes = map[string]string{
	FormatWAV:  "audio/wav",
	FormatMP3:  "audio/mpeg",
	FormatOGG:  "audio/ogg",
	FormatWEBM: "audio/webm",
}

// HTTPSynthesizer posts {"text", "language", "format"} to a text-to-speech
// endpoint and returns the audio body.
type HTTPSynthesizer struct {
	url    string
	format string
	client *httpclient.Client
}

// NewHTTPSynthesizer creates a synthesizer for endpoint returning mp3.
func NewHTTPSynthesizer(endpoint string, client *httpclient.Client) *HTTPSynthesizer {
	return &HTTPSynthesizer{url: endpoint, format: FormatMP3, client: client}
}

func (s *HTTPSynthesizer) Name() string { return s.client.Name() }

type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Format   string `json:"format"`
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, lang string) (*Speech, error) {
	var audio []byte
	body := synthesizeRequest{Text: text, Language: Locale(lang), Format: s.format}
	if err := s.client.PostJSON(ctx, s.url, map[string]string{"Accept": contentTypes[s.format]}, body, &audio); err != nil {
		return nil, err
	}
	return &Speech{Audio: audio, Format: s.format}, nil
}

func withQuery(raw string, q url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	merged := u.Query()
	for k, v := range q {
		merged[k] = v
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}
