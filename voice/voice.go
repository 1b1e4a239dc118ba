// Package voice converts speech to text and text to speech through a
// cascade of HTTP providers. When none can serve a request, synthesis
// degrades to a text-only answer and transcription reports the voice
// channel as unavailable.
package voice

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"mime"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/advisor"
	"github.com/user/jarvisfi-go/apperror"
	"github.com/user/jarvisfi-go/metrics"
)

// MaxUploadBytes bounds an uploaded recording.
const MaxUploadBytes = 10 << 20

// Supported audio formats.
const (
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatOGG  = "ogg"
	FormatWEBM = "webm"
)

// SourceText marks a synthesis result that carries no audio.
const SourceText = "text"

// ErrVoiceUnavailable means no transcription provider could serve the request.
var ErrVoiceUnavailable = errors.New("voice processing unavailable")

// FallbackMessage is shown when speech cannot be processed.
const FallbackMessage = "Voice processing is unavailable right now. Please type your question instead."

var formats = map[string]bool{FormatWAV: true, FormatMP3: true, FormatOGG: true, FormatWEBM: true}

var locales = map[string]string{"en": "en-IN", "ta": "ta-IN", "hi": "hi-IN", "te": "te-IN"}

// Locale maps a language code to the speech locale sent to providers.
func Locale(lang string) string {
	if l, ok := locales[lang]; ok {
		return l
	}
	return "en-IN"
}

// Transcription is recognized speech.
type Transcription struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	Intent     string  `json:"intent"`
	WakeWord   bool    `json:"wake_word"`
	Source     string  `json:"source"`
}

// Speech is synthesized audio. Audio is empty when Source is SourceText.
type Speech struct {
	Audio    []byte `json:"audio,omitempty"`
	Format   string `json:"format,omitempty"`
	Text     string `json:"text"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

// Transcriber turns audio into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, format, lang string) (*Transcription, error)
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, lang string) (*Speech, error)
}

// Processor tries each provider in order.
type Processor struct {
	transcribers []Transcriber
	synthesizers []Synthesizer
	log          *zap.Logger
}

// NewProcessor creates a Processor. Either list may be empty.
func NewProcessor(transcribers []Transcriber, synthesizers []Synthesizer, log *zap.Logger) *Processor {
	return &Processor{
		transcribers: transcribers,
		synthesizers: synthesizers,
		log:          log.With(zap.String("module", "voice")),
	}
}

// Available reports which directions have at least one provider.
func (p *Processor) Available() (stt, tts bool) {
	return len(p.transcribers) > 0, len(p.synthesizers) > 0
}

// NormalizeFormat resolves the audio format from an explicit name, a
// Content-Type, or the leading bytes of the recording, in that order.
func NormalizeFormat(explicit, contentType string, audio []byte) (string, error) {
	if f := strings.ToLower(strings.TrimSpace(explicit)); f != "" {
		if formats[f] {
			return f, nil
		}
		return "", unsupported(f)
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "audio/wav", "audio/x-wav", "audio/wave":
			return FormatWAV, nil
		case "audio/mpeg", "audio/mp3":
			return FormatMP3, nil
		case "audio/ogg":
			return FormatOGG, nil
		case "audio/webm", "video/webm":
			return FormatWEBM, nil
		}
	}
	if f := sniff(audio); f != "" {
		return f, nil
	}
	return "", unsupported("unknown")
}

func unsupported(f string) error {
	return apperror.NewValidationError("unsupported audio format "+f+"; use wav, mp3, ogg or webm", nil).
		WithDetails(map[string]string{"format": "oneof=wav mp3 ogg webm"})
}

func sniff(b []byte) string {
	switch {
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return FormatWAV
	case len(b) >= 3 && bytes.Equal(b[:3], []byte("ID3")),
		len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return FormatMP3
	case len(b) >= 4 && bytes.Equal(b[:4], []byte("OggS")):
		return FormatOGG
	case len(b) >= 4 && bytes.Equal(b[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWEBM
	}
	return ""
}

// Transcribe recognizes audio in lang. When every provider fails it returns
// an Unavailable error wrapping ErrVoiceUnavailable.
func (p *Processor) Transcribe(ctx context.Context, audio []byte, format, lang string) (*Transcription, error) {
	if len(audio) == 0 {
		return nil, apperror.NewValidationError("audio is required", nil)
	}
	if len(audio) > MaxUploadBytes {
		return nil, apperror.NewValidationError("audio exceeds 10 MiB", nil)
	}
	if !formats[format] {
		return nil, unsupported(format)
	}
	for _, t := range p.transcribers {
		res, err := t.Transcribe(ctx, audio, format, lang)
		if err != nil || res == nil || strings.TrimSpace(res.Text) == "" {
			p.log.Warn("transcriber failed, trying next", zap.String("provider", t.Name()), zap.Error(err))
			continue
		}
		res.Text = CorrectFinancialTerms(res.Text, lang)
		res.Language = lang
		res.Intent = advisor.ClassifyIntent(res.Text)
		res.WakeWord = HasWakeWord(res.Text, lang)
		res.Source = t.Name()
		return res, nil
	}
	metrics.Fallbacks.WithLabelValues("voice_stt").Inc()
	return nil, apperror.NewUnavailableError(FallbackMessage, ErrVoiceUnavailable)
}

// Synthesize speaks text in lang. It never fails for non-empty text: without
// a working provider the result is text only.
func (p *Processor) Synthesize(ctx context.Context, text, lang string) (*Speech, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.NewValidationError("text is required", nil)
	}
	for _, s := range p.synthesizers {
		sp, err := s.Synthesize(ctx, text, lang)
		if err != nil || sp == nil || len(sp.Audio) == 0 {
			p.log.Warn("synthesizer failed, trying next", zap.String("provider", s.Name()), zap.Error(err))
			continue
		}
		sp.Text, sp.Language, sp.Source = text, lang, s.Name()
		return sp, nil
	}
	metrics.Fallbacks.WithLabelValues("voice_tts").Inc()
	return &Speech{Text: text, Language: lang, Source: SourceText}, nil
}

type correction struct {
	pattern *regexp.Regexp
	fixed   string
}

func corrections(fixes map[string][]string, wordBounded bool) []correction {
	var out []correction
	for _, fixed := range slices.Sorted(maps.Keys(fixes)) {
		for _, wrong := range fixes[fixed] {
			expr := regexp.QuoteMeta(wrong)
			if wordBounded {
				expr = `(?i)\b` + expr + `\b`
			}
			out = append(out, correction{regexp.MustCompile(expr), fixed})
		}
	}
	return out
}

var speechCorrections = map[string][]correction{
	"en": corrections(map[string][]string{
		"sip":         {"ship", "zip"},
		"mutual fund": {"mutual fun", "mutual found"},
		"investment":  {"in west mint", "invest mint"},
		"rupees":      {"rupi", "roopee"},
		"budget":      {"budge it", "but get"},
	}, true),
	"ta": corrections(map[string][]string{
		"முதலீடு":  {"முதலிடு", "முதலீது"},
		"சேமிப்பு": {"சேமிப்பூ"},
		"பணம்":     {"பனம்"},
	}, false),
}

// CorrectFinancialTerms fixes common misrecognitions of financial words.
func CorrectFinancialTerms(text, lang string) string {
	for _, c := range speechCorrections[lang] {
		text = c.pattern.ReplaceAllLiteralString(text, c.fixed)
	}
	return strings.TrimSpace(text)
}

var wakeWords = map[string][]string{
	"en": {"jarvis", "jarvisfi", "hey jarvis"},
	"ta": {"ஜார்விஸ்", "ஜார்விஸ்ஃபை"},
	"hi": {"जार्विस", "जार्विसफाई"},
	"te": {"జార్విస్", "జార్విస్ఫై"},
}

// HasWakeWord reports whether text addresses the assistant by name.
func HasWakeWord(text, lang string) bool {
	lower := strings.ToLower(text)
	for _, words := range [][]string{wakeWords[lang], wakeWords["en"]} {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
	}
	return false
}
