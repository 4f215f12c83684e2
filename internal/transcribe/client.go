package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stdapi-go/internal/config"
	apperrors "stdapi-go/internal/errors"
	"stdapi-go/internal/monitoring/tracing"
	"stdapi-go/internal/objstore"
	"stdapi-go/internal/subtitle"
)

const (
	targetStartJob  = "Transcribe.StartTranscriptionJob"
	targetGetJob    = "Transcribe.GetTranscriptionJob"
	targetDeleteJob = "Transcribe.DeleteTranscriptionJob"
)

// Options tunes a single transcription run.
type Options struct {
	// LanguageHint pins the spoken language instead of auto-identification.
	LanguageHint string
}

// Result is a finished transcription with its caption segments.
type Result struct {
	Text     string
	Language string
	Duration float64
	Cues     []subtitle.Cue
}

// Transcriber turns audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string, opts Options) (*Result, error)
}

// Client drives asynchronous transcription jobs over the AWS Transcribe JSON
// protocol: stage the audio, start a job, poll, fetch the outputs, clean up.
type Client struct {
	endpoint     string
	store        objstore.Store
	cli          *http.Client
	pollInterval time.Duration
	timeout      time.Duration
	languageIDs  []string
}

func New(cfg *config.FileConfig, store objstore.Store) *Client {
	pollMs := cfg.TranscribePollMs
	if pollMs <= 0 {
		pollMs = 1500
	}
	timeoutSec := cfg.TranscribeTimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 600
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.TranscribeEndpoint, "/"),
		store:        store,
		cli:          &http.Client{Timeout: 60 * time.Second},
		pollInterval: time.Duration(pollMs) * time.Millisecond,
		timeout:      time.Duration(timeoutSec) * time.Second,
		languageIDs:  cfg.TranscribeLanguageOptions,
	}
}

// formatMIME maps supported container names to the content type used while
// the audio is staged in object storage.
var formatMIME = map[string]string{
	"flac": "audio/flac",
	"mp3":  "audio/mpeg",
	"mp4":  "audio/mp4",
	"m4a":  "audio/mp4",
	"ogg":  "audio/ogg",
	"wav":  "audio/wav",
	"webm": "audio/webm",
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, format string, opts Options) (*Result, error) {
	mime, ok := formatMIME[format]
	if !ok {
		return nil, apperrors.NewInvalidRequestf("Unsupported media format: %s.", format)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracing.StartClientSpan(ctx, "transcribe", "Transcribe.Job",
		trace.WithAttributes(attribute.String("transcribe.format", format)))
	defer span.End()

	jobName := "stdapi-" + uuid.NewString()
	key := fmt.Sprintf("transcribe/%s.%s", jobName, format)
	ref, err := c.store.Put(ctx, key, audio, mime)
	if err != nil {
		logrus.WithError(err).Error("failed to stage audio for transcription")
		return nil, apperrors.NewUpstream("Audio could not be staged for transcription")
	}
	defer c.cleanup(jobName, ref)

	if err := c.startJob(ctx, jobName, ref, format, opts); err != nil {
		return nil, err
	}
	job, err := c.waitForJob(ctx, jobName)
	if err != nil {
		return nil, err
	}
	return c.collect(ctx, job)
}

func (c *Client) startJob(ctx context.Context, jobName, mediaURI, format string, opts Options) error {
	body := []byte(`{}`)
	body, _ = sjson.SetBytes(body, "TranscriptionJobName", jobName)
	body, _ = sjson.SetBytes(body, "Media.MediaFileUri", mediaURI)
	body, _ = sjson.SetBytes(body, "MediaFormat", format)
	body, _ = sjson.SetBytes(body, "Subtitles.Formats", []string{"srt", "vtt"})
	if opts.LanguageHint != "" {
		body, _ = sjson.SetBytes(body, "LanguageCode", opts.LanguageHint)
	} else {
		body, _ = sjson.SetBytes(body, "IdentifyLanguage", true)
		if len(c.languageIDs) > 0 {
			body, _ = sjson.SetBytes(body, "LanguageOptions", c.languageIDs)
		}
	}
	_, err := c.call(ctx, targetStartJob, body)
	return err
}

func (c *Client) waitForJob(ctx context.Context, jobName string) (gjson.Result, error) {
	body, _ := sjson.SetBytes([]byte(`{}`), "TranscriptionJobName", jobName)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		payload, err := c.call(ctx, targetGetJob, body)
		if err != nil {
			return gjson.Result{}, err
		}
		job := gjson.GetBytes(payload, "TranscriptionJob")
		switch job.Get("TranscriptionJobStatus").String() {
		case "COMPLETED":
			return job, nil
		case "FAILED":
			reason := job.Get("FailureReason").String()
			if reason == "" {
				reason = "no reason given"
			}
			return gjson.Result{}, apperrors.NewUpstream("Transcription job failed: " + reason)
		}

		select {
		case <-ctx.Done():
			return gjson.Result{}, apperrors.NewUpstream("Transcription job timed out")
		case <-ticker.C:
		}
	}
}

// collect fetches the transcript JSON plus the SRT sidecar and folds them
// into a Result.
func (c *Client) collect(ctx context.Context, job gjson.Result) (*Result, error) {
	transcript, err := c.fetch(ctx, job.Get("Transcript.TranscriptFileUri").String())
	if err != nil {
		return nil, err
	}

	result := &Result{
		Text:     gjson.GetBytes(transcript, "results.transcripts.0.transcript").String(),
		Language: job.Get("LanguageCode").String(),
	}
	if result.Language == "" {
		result.Language = gjson.GetBytes(transcript, "results.language_code").String()
	}

	for _, sub := range job.Get("Subtitles.SubtitleFileUris").Array() {
		if !strings.HasSuffix(sub.String(), ".srt") {
			continue
		}
		raw, err := c.fetch(ctx, sub.String())
		if err != nil {
			return nil, err
		}
		result.Cues = subtitle.ParseSRT(string(raw))
		break
	}
	if n := len(result.Cues); n > 0 {
		result.Duration = result.Cues[n-1].End.Seconds()
	}
	return result, nil
}

// fetch retrieves a job output, which arrives either as an object store
// reference or as a plain download URL.
func (c *Client) fetch(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		return nil, apperrors.NewUpstream("Transcription job produced no output")
	}
	if strings.HasPrefix(uri, "s3://") {
		data, _, err := c.store.Get(ctx, uri)
		if err != nil {
			return nil, apperrors.NewUpstream("Transcription output could not be read")
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, apperrors.NewUpstream("Transcription output could not be read")
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstream("Transcription output could not be read")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstream("Transcription output could not be read")
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) call(ctx context.Context, target string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewUpstream("Transcription backend request could not be built")
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", target)

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstream("Transcription backend is unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstream("Transcription backend response could not be read")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.MapProviderError(resp.StatusCode, resp.Header, payload)
	}
	return payload, nil
}

// cleanup removes the finished job and the staged audio. Best effort; a
// leftover job does not affect the response already produced.
func (c *Client) cleanup(jobName, ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, _ := sjson.SetBytes([]byte(`{}`), "TranscriptionJobName", jobName)
	if _, err := c.call(ctx, targetDeleteJob, body); err != nil {
		logrus.WithField("job", jobName).WithError(err).Warn("failed to delete transcription job")
	}
	if err := c.store.Delete(ctx, ref); err != nil {
		logrus.WithField("ref", ref).WithError(err).Warn("failed to delete staged audio")
	}
}
