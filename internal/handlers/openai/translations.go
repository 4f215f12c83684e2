package openai

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/handlers/common"
	"stdapi-go/internal/registry"
	"stdapi-go/internal/subtitle"
	"stdapi-go/internal/transcribe"
	"stdapi-go/internal/translate"
)

// audioFormats maps detected audio content types to the container name the
// transcription backend expects.
var audioFormats = map[string]string{
	"audio/flac":  "flac",
	"audio/mpeg":  "mp3",
	"audio/mp4":   "mp4",
	"video/mp4":   "mp4",
	"audio/m4a":   "m4a",
	"audio/x-m4a": "m4a",
	"audio/ogg":   "ogg",
	"audio/wav":   "wav",
	"audio/webm":  "webm",
	"video/webm":  "webm",
}

var supportedAudioFormats = "flac, m4a, mp3, mp4, mpeg, mpga, oga, ogg, wav, webm"

// audioLocales expands bare ISO-639-1 codes from the optional language form
// field into the locale codes the transcription backend expects.
var audioLocales = map[string]string{
	"ar": "ar-SA",
	"de": "de-DE",
	"en": "en-US",
	"es": "es-US",
	"fr": "fr-FR",
	"hi": "hi-IN",
	"it": "it-IT",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"nl": "nl-NL",
	"pl": "pl-PL",
	"pt": "pt-BR",
	"ru": "ru-RU",
	"sv": "sv-SE",
	"tr": "tr-TR",
	"zh": "zh-CN",
}

// audioLocale returns the backend locale for a language form value. Full
// locale codes (es-US) pass through unchanged.
func audioLocale(language string) (string, bool) {
	if strings.Contains(language, "-") {
		return language, true
	}
	locale, ok := audioLocales[strings.ToLower(language)]
	return locale, ok
}

type translationSegment struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
}

type translationVerbose struct {
	Language string               `json:"language"`
	Duration float64              `json:"duration"`
	Text     string               `json:"text"`
	Segments []translationSegment `json:"segments"`
}

// CreateTranslation implements POST /v1/audio/translations. The uploaded
// audio is transcribed, translated to English, and rendered in the requested
// output format.
func (h *Handler) CreateTranslation(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("You must provide a file."))
		return
	}

	model := c.PostForm("model")
	if model == "" {
		model = "amazon.transcribe"
	}
	cap, ok := registry.Lookup(model)
	if !ok || cap.Task != registry.TaskTranslation {
		common.AbortWithAPIError(c, apperrors.NewModelNotFound(model))
		return
	}
	c.Set("model", model)

	responseFormat := c.PostForm("response_format")
	if responseFormat == "" {
		responseFormat = "json"
	}
	switch responseFormat {
	case "json", "text", "srt", "vtt", "verbose_json":
	default:
		common.AbortWithAPIError(c,
			apperrors.NewInvalidRequestf("Invalid 'response_format': %s. Supported formats: json, text, srt, verbose_json, vtt.", responseFormat))
		return
	}

	opts := transcribe.Options{}
	if language := strings.TrimSpace(c.PostForm("language")); language != "" {
		locale, ok := audioLocale(language)
		if !ok {
			common.AbortWithAPIError(c,
				apperrors.NewInvalidRequestf("Unsupported 'language': %s.", language))
			return
		}
		opts.LanguageHint = locale
	}

	src, err := fileHeader.Open()
	if err != nil {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("The audio file could not be read."))
		return
	}
	defer src.Close()
	audio, err := io.ReadAll(src)
	if err != nil {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("The audio file could not be read."))
		return
	}
	if len(audio) == 0 {
		common.AbortWithAPIError(c, apperrors.NewInvalidRequest("The audio file is empty."))
		return
	}

	format, ok := audioFormats[mimetype.Detect(audio).String()]
	if !ok {
		common.AbortWithAPIError(c,
			apperrors.NewInvalidRequestf("Unsupported file format. Supported formats: %s.", supportedAudioFormats))
		return
	}

	result, err := h.transcriber.Transcribe(c.Request.Context(), audio, format, opts)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	switch responseFormat {
	case "srt", "vtt":
		h.writeSubtitleTranslation(c, result, responseFormat, fileHeader.Filename)
	case "verbose_json":
		h.writeVerboseTranslation(c, result)
	default:
		text, err := h.translator.Translate(c.Request.Context(), result.Text, result.Language, "en")
		if err != nil {
			common.AbortWithError(c, err)
			return
		}
		if responseFormat == "text" {
			c.String(http.StatusOK, text)
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": text})
	}
}

func (h *Handler) writeSubtitleTranslation(c *gin.Context, result *transcribe.Result, format, filename string) {
	var body string
	cues, err := translate.Cues(c.Request.Context(), h.translator, result.Cues, result.Language, "en")
	switch {
	case err != nil:
		common.AbortWithError(c, err)
		return
	case len(cues) > 0:
		if format == "srt" {
			body = subtitle.FormatSRT(cues)
		} else {
			body = subtitle.FormatVTT(cues)
		}
	default:
		// Flat transcript without timing structure: emit the translated text
		// as a single unstructured block.
		body, err = h.translator.Translate(c.Request.Context(), result.Text, result.Language, "en")
		if err != nil {
			common.AbortWithError(c, err)
			return
		}
		if format == "vtt" {
			body = "WEBVTT\n\n" + body
		}
	}

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if stem == "" || stem == "." {
		stem = "audio"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", stem, format))
	c.Data(http.StatusOK, fmt.Sprintf("text/%s; charset=utf-8", format), []byte(body))
}

func (h *Handler) writeVerboseTranslation(c *gin.Context, result *transcribe.Result) {
	cues, err := translate.Cues(c.Request.Context(), h.translator, result.Cues, result.Language, "en")
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	resp := translationVerbose{
		Language: "english",
		Duration: result.Duration,
		Segments: make([]translationSegment, len(cues)),
	}
	for i, cue := range cues {
		noSpeech := 0.0
		if cue.Text == "" {
			noSpeech = 1.0
		}
		resp.Segments[i] = translationSegment{
			ID:           i,
			Start:        cue.Start.Seconds(),
			End:          cue.End.Seconds(),
			Text:         cue.Text,
			Tokens:       []int{},
			NoSpeechProb: noSpeech,
		}
	}
	if len(cues) > 0 {
		resp.Text = subtitle.PlainText(cues)
	} else {
		if resp.Text, err = h.translator.Translate(c.Request.Context(), result.Text, result.Language, "en"); err != nil {
			common.AbortWithError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
