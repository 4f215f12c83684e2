package tests

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"stdapi-go/internal/config"
	"stdapi-go/internal/objstore"
	srv "stdapi-go/internal/server"
)

// fakeBedrock emulates the Bedrock-runtime invoke surface. Responses are
// selected per model id so one server covers every provider family.
func fakeBedrock(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/model/") || !strings.HasSuffix(r.URL.Path, "/invoke") {
			http.NotFound(w, r)
			return
		}
		modelID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/model/"), "/invoke")

		switch {
		case strings.Contains(modelID, "titan-embed-text"):
			fmt.Fprint(w, `{"embedding":[0.1,0.2,0.3],"inputTextTokenCount":4}`)
		case strings.Contains(modelID, "cohere.embed"):
			fmt.Fprint(w, `{"embeddings":[[0.4,0.5]],"meta":{"billed_units":{"input_tokens":2}}}`)
		case strings.Contains(modelID, "nova-canvas"), strings.Contains(modelID, "titan-image"):
			fmt.Fprintf(w, `{"images":[%q]}`, base64.StdEncoding.EncodeToString(encodeTestPNG()))
		case strings.Contains(modelID, "stability"):
			fmt.Fprintf(w, `{"images":[%q],"finish_reasons":[null]}`, base64.StdEncoding.EncodeToString(encodeTestPNG()))
		case strings.Contains(modelID, "marengo"):
			w.Header().Set("X-Amzn-Errortype", "ValidationException:http://internal")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message":"Malformed input request"}`)
		default:
			w.Header().Set("X-Amzn-Errortype", "ResourceNotFoundException")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Could not resolve model"}`)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// fakeAWSJSON emulates the Transcribe and Translate JSON protocol endpoints.
func fakeAWSJSON(t *testing.T) *httptest.Server {
	t.Helper()
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/transcript.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":{"language_code":"es-US","transcripts":[{"transcript":"Hola mundo."}]}}`)
	})
	mux.HandleFunc("/output.srt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "1\n00:00:00,000 --> 00:00:02,000\nHola mundo.\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-Amz-Target") {
		case "Transcribe.StartTranscriptionJob":
			fmt.Fprint(w, `{"TranscriptionJob":{"TranscriptionJobStatus":"IN_PROGRESS"}}`)
		case "Transcribe.GetTranscriptionJob":
			fmt.Fprintf(w, `{"TranscriptionJob":{
				"TranscriptionJobStatus":"COMPLETED",
				"LanguageCode":"es-US",
				"Transcript":{"TranscriptFileUri":%q},
				"Subtitles":{"SubtitleFileUris":[%q]}
			}}`, srvURL+"/transcript.json", srvURL+"/output.srt")
		case "Transcribe.DeleteTranscriptionJob":
			fmt.Fprint(w, `{}`)
		case "AWSShineFrontendService_20170701.TranslateText":
			text := gjson.Get(readBody(r), "Text").String()
			fmt.Fprintf(w, `{"TranslatedText":%q}`, "Hello world. (was: "+text+")")
		default:
			http.Error(w, "unknown target", http.StatusBadRequest)
		}
	})
	server := httptest.NewServer(mux)
	srvURL = server.URL
	t.Cleanup(server.Close)
	return server
}

func readBody(r *http.Request) string {
	data, _ := io.ReadAll(r.Body)
	return string(data)
}

var (
	testPNG     []byte
	testPNGOnce sync.Once
)

func encodeTestPNG() []byte {
	testPNGOnce.Do(func() {
		var buf bytes.Buffer
		_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))
		testPNG = buf.Bytes()
	})
	return testPNG
}

// newGateway builds the full engine wired against the fake backends.
func newGateway(t *testing.T, apiKeys []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bedrockSrv := fakeBedrock(t)
	awsSrv := fakeAWSJSON(t)

	cfg := &config.FileConfig{
		APIKeys:              apiKeys,
		BedrockEndpoint:      bedrockSrv.URL,
		BedrockRegion:        "us-east-1",
		InvokeTimeoutSec:     10,
		InvokeConcurrency:    4,
		TranscribeEndpoint:   awsSrv.URL,
		TranscribePollMs:     1,
		TranscribeTimeoutSec: 5,
		TranslateEndpoint:    awsSrv.URL,
		StorageBackend:       "memory",
	}

	store, err := objstore.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return srv.BuildEngine(cfg, srv.Dependencies{Store: store})
}
