package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/httpclient"
)

var wavHeader = append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 32)...)

type stubSTT struct {
	name string
	text string
	err  error
}

func (s stubSTT) Name() string { return s.name }

func (s stubSTT) Transcribe(context.Context, []byte, string, string) (*Transcription, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Transcription{Text: s.text, Confidence: 0.9}, nil
}

type stubTTS struct {
	audio []byte
	err   error
}

func (s stubTTS) Name() string { return "stub-tts" }

func (s stubTTS) Synthesize(context.Context, string, string) (*Speech, error) {
	return &Speech{Audio: s.audio, Format: FormatMP3}, s.err
}

func TestNormalizeFormat(t *testing.T) {
	f, err := NormalizeFormat("MP3", "", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, f)

	f, err = NormalizeFormat("", "audio/ogg; codecs=opus", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatOGG, f)

	f, err = NormalizeFormat("", "application/octet-stream", wavHeader)
	require.NoError(t, err)
	assert.Equal(t, FormatWAV, f)

	f, err = NormalizeFormat("", "", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01})
	require.NoError(t, err)
	assert.Equal(t, FormatWEBM, f)

	f, err = NormalizeFormat("", "", []byte("ID3\x04"))
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, f)

	_, err = NormalizeFormat("flac", "", nil)
	assert.True(t, apperror.IsValidationError(err))
	_, err = NormalizeFormat("", "", []byte("hello"))
	assert.True(t, apperror.IsValidationError(err))
}

func TestTranscribeCascade(t *testing.T) {
	p := NewProcessor([]Transcriber{
		stubSTT{name: "broken", err: errors.New("down")},
		stubSTT{name: "silent"},
		stubSTT{name: "good", text: "hey jarvis how do I start a ship"},
	}, nil, zap.NewNop())

	res, err := p.Transcribe(context.Background(), wavHeader, FormatWAV, "en")
	require.NoError(t, err)
	assert.Equal(t, "good", res.Source)
	assert.Equal(t, "hey jarvis how do I start a sip", res.Text)
	assert.Equal(t, "investment", res.Intent)
	assert.True(t, res.WakeWord)
	assert.Equal(t, "en", res.Language)
}

func TestTranscribeUnavailable(t *testing.T) {
	p := NewProcessor(nil, nil, zap.NewNop())
	_, err := p.Transcribe(context.Background(), wavHeader, FormatWAV, "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVoiceUnavailable)
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode())

	_, err = p.Transcribe(context.Background(), nil, FormatWAV, "en")
	assert.True(t, apperror.IsValidationError(err))
	_, err = p.Transcribe(context.Background(), make([]byte, MaxUploadBytes+1), FormatWAV, "en")
	assert.True(t, apperror.IsValidationError(err))
	_, err = p.Transcribe(context.Background(), wavHeader, "flac", "en")
	assert.True(t, apperror.IsValidationError(err))
}

func TestSynthesize(t *testing.T) {
	p := NewProcessor(nil, []Synthesizer{stubTTS{err: errors.New("down")}, stubTTS{audio: []byte("mp3data")}}, zap.NewNop())
	sp, err := p.Synthesize(context.Background(), " Save 20% ", "ta")
	require.NoError(t, err)
	assert.Equal(t, "stub-tts", sp.Source)
	assert.Equal(t, []byte("mp3data"), sp.Audio)
	assert.Equal(t, "Save 20%", sp.Text)

	text := NewProcessor(nil, nil, zap.NewNop())
	sp, err = text.Synthesize(context.Background(), "Save 20%", "en")
	require.NoError(t, err)
	assert.Equal(t, SourceText, sp.Source)
	assert.Empty(t, sp.Audio)

	_, err = text.Synthesize(context.Background(), "  ", "en")
	assert.True(t, apperror.IsValidationError(err))
}

func TestCorrectFinancialTerms(t *testing.T) {
	assert.Equal(t, "open a mutual fund and a sip", CorrectFinancialTerms("open a mutual found and a zip", "en"))
	assert.Equal(t, "my budget in rupees", CorrectFinancialTerms("my budge it in roopee", "en"))
	assert.Equal(t, "shipment stays", CorrectFinancialTerms("shipment stays", "en"))
	assert.Equal(t, "பணம் முதலீடு", CorrectFinancialTerms("பனம் முதலிடு", "ta"))
	assert.Equal(t, "zip", CorrectFinancialTerms("zip", "hi"))
}

func TestHasWakeWord(t *testing.T) {
	assert.True(t, HasWakeWord("Jarvis, what is my balance", "en"))
	assert.True(t, HasWakeWord("ஜார்விஸ் உதவி", "ta"))
	assert.True(t, HasWakeWord("hey jarvis", "te"))
	assert.False(t, HasWakeWord("what is my balance", "en"))
	assert.Equal(t, "ta-IN", Locale("ta"))
	assert.Equal(t, "en-IN", Locale("fr"))
}

func TestHTTPProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stt":
			assert.Equal(t, "ta-IN", r.URL.Query().Get("language"))
			assert.Equal(t, "k", r.URL.Query().Get("key"))
			assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, wavHeader, body)
			_, _ = w.Write([]byte(`{"text":" பனம் சேமிப்பு ","confidence":0.8}`))
		case "/tts":
			var req synthesizeRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hi-IN", req.Language)
			_, _ = w.Write([]byte("ID3audio"))
		}
	}))
	defer srv.Close()

	client := func(name string) *httpclient.Client {
		return httpclient.New(name, httpclient.Options{Timeout: time.Second, MaxAttempts: 1}, zap.NewNop())
	}
	p := NewProcessor(
		[]Transcriber{NewHTTPTranscriber(srv.URL+"/stt?key=k", client("stt"))},
		[]Synthesizer{NewHTTPSynthesizer(srv.URL+"/tts", client("tts"))},
		zap.NewNop(),
	)

	res, err := p.Transcribe(context.Background(), wavHeader, FormatWAV, "ta")
	require.NoError(t, err)
	assert.Equal(t, "பணம் சேமிப்பு", res.Text)
	assert.Equal(t, "stt", res.Source)
	assert.Equal(t, "savings", res.Intent)

	sp, err := p.Synthesize(context.Background(), "बचत", "hi")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), sp.Audio)
	assert.Equal(t, "tts", sp.Source)
}

func TestHandlers(t *testing.T) {
	r := chi.NewRouter()
	NewHandlers(NewProcessor([]Transcriber{stubSTT{name: "good", text: "budget help"}}, nil, zap.NewNop())).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/voice/transcribe?lang=en", bytes.NewReader(wavHeader)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"intent":"budgeting"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/voice/transcribe", strings.NewReader("not audio")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/voice/synthesize", strings.NewReader(`{"text":"hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"text"`)

	down := chi.NewRouter()
	NewHandlers(NewProcessor(nil, nil, zap.NewNop())).RegisterRoutes(down)
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/voice/transcribe?format=wav", bytes.NewReader(wavHeader)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), FallbackMessage)
}
