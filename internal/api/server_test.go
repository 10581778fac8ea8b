package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"askdoc/internal/config"
	"askdoc/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type zipFile struct {
	name string
	body string
}

func buildZip(t *testing.T, files ...zipFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.LLMProviders = "mock:stub answer"
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	return s
}

// multipartRequest builds a POST /api form. An empty filename leaves out the
// file part.
func multipartRequest(t *testing.T, question, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if question != "" {
		require.NoError(t, mw.WriteField("question", question))
	}
	if filename != "" {
		w, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeAnswer(t *testing.T, rec *httptest.ResponseRecorder) models.AskResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Error
}

func TestIndexAndHealthz(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, welcomeText, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
	require.NoError(t, err)
}

func TestAPIMissingQuestion(t *testing.T) {
	s := newTestServer(t, testConfig())
	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "json", req: jsonRequest("/api", `{}`)},
		{name: "blank json", req: jsonRequest("/api", `{"question":"   "}`)},
		{name: "empty body", req: jsonRequest("/api", ``)},
		{name: "form with file", req: multipartRequest(t, "", "notes.txt", []byte("hello"))},
		{name: "form with unsupported file", req: multipartRequest(t, "", "tool.exe", []byte("MZ"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := decodeError(t, serve(s, tt.req), http.StatusBadRequest)
			require.Equal(t, "Question is required.", msg)
		})
	}
}

func TestAPIInvalidJSON(t *testing.T) {
	s := newTestServer(t, testConfig())
	msg := decodeError(t, serve(s, jsonRequest("/api", `{"question":`)), http.StatusBadRequest)
	require.Equal(t, "Invalid JSON body.", msg)
}

func TestAPIUnsupportedFileType(t *testing.T) {
	s := newTestServer(t, testConfig())
	rec := serve(s, multipartRequest(t, "what?", "tool.EXE", []byte("MZ")))
	msg := decodeError(t, rec, http.StatusBadRequest)
	require.Equal(t, `Unsupported file type ".exe". Supported formats: .txt, .json, .csv, .pdf, .xlsx, .xls, .docx, .doc, .zip`, msg)
}

func TestAPIQuestionOnlyUsesLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Paris is the capital."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.OpenAIKey = "test"
	cfg.OpenAIBaseURL = srv.URL + "/v1"
	s := newTestServer(t, cfg)

	out := decodeAnswer(t, serve(s, multipartRequest(t, "Capital of France?", "", nil)))
	require.Equal(t, "Capital of France?", out.Question)
	require.Equal(t, []string{"Paris is the capital."}, out.Answers)

	out = decodeAnswer(t, serve(s, jsonRequest("/api", `{"question":" Capital of France? "}`)))
	require.Equal(t, "Capital of France?", out.Question)
	require.Equal(t, []string{"Paris is the capital."}, out.Answers)
}

func TestAPIUpstreamFailureIsApology(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.OpenAIKey = "test"
	cfg.OpenAIBaseURL = srv.URL + "/v1"
	s := newTestServer(t, cfg)

	out := decodeAnswer(t, serve(s, jsonRequest("/api", `{"question":"hi"}`)))
	require.Equal(t, []string{"Sorry, I could not generate an answer at the moment."}, out.Answers)
}

func TestAPIZipCSVAnswer(t *testing.T) {
	s := newTestServer(t, testConfig())
	data := buildZip(t, zipFile{name: "answers/data.csv", body: "question,answer\nq1,\nq2,forty-two\nq3,later\n"})

	out := decodeAnswer(t, serve(s, multipartRequest(t, "meaning of life", "bundle.zip", data)))
	require.Equal(t, "meaning of life", out.Question)
	require.Equal(t, []string{"forty-two"}, out.Answers)
}

func TestAPIZipSkipsMetadataEntries(t *testing.T) {
	s := newTestServer(t, testConfig())
	data := buildZip(t,
		zipFile{name: "__MACOSX/data.csv", body: "answer\nhidden\n"},
		zipFile{name: "data.csv", body: "id,value\n1,2\n"},
	)

	out := decodeAnswer(t, serve(s, multipartRequest(t, "q", "bundle.zip", data)))
	require.Equal(t, []string{"no answer found"}, out.Answers)
}

func TestAPIZipOnlyUnsupportedEntries(t *testing.T) {
	s := newTestServer(t, testConfig())
	data := buildZip(t, zipFile{name: "a.exe", body: "MZ"}, zipFile{name: "b.png", body: "png"})

	msg := decodeError(t, serve(s, multipartRequest(t, "q", "bundle.zip", data)), http.StatusBadRequest)
	require.Equal(t, "No readable text found in the uploaded file.", msg)
}

func TestAPITextFileGoesToLLM(t *testing.T) {
	s := newTestServer(t, testConfig())
	out := decodeAnswer(t, serve(s, multipartRequest(t, "summary?", "notes.txt", []byte("some notes"))))
	require.Equal(t, []string{"stub answer"}, out.Answers)
}

func TestAPIRegexMode(t *testing.T) {
	cfg := testConfig()
	cfg.FreeTextMode = "regex"
	s := newTestServer(t, cfg)
	out := decodeAnswer(t, serve(s, multipartRequest(t, `id-\d+`, "notes.txt", []byte("ID-1 and id-22"))))
	require.Equal(t, []string{"ID-1", "id-22"}, out.Answers)
}

func TestAPIBrokenFileIsAnswer(t *testing.T) {
	s := newTestServer(t, testConfig())
	out := decodeAnswer(t, serve(s, multipartRequest(t, "q", "broken.xlsx", []byte("not a workbook"))))
	require.Len(t, out.Answers, 1)
	require.True(t, strings.HasPrefix(out.Answers[0], "Error processing xlsx file: "), out.Answers[0])
}

func TestAPIBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.UploadLimit = "1K"
	s := newTestServer(t, cfg)

	rec := serve(s, multipartRequest(t, "q", "notes.txt", bytes.Repeat([]byte("a"), 4096)))
	msg := decodeError(t, rec, http.StatusRequestEntityTooLarge)
	require.Equal(t, http.StatusText(http.StatusRequestEntityTooLarge), msg)
}

func TestAsk(t *testing.T) {
	s := newTestServer(t, testConfig())

	out := decodeAnswer(t, serve(s, jsonRequest("/ask", `{"question":"hello"}`)))
	require.Equal(t, "hello", out.Question)
	require.Equal(t, []string{"stub answer"}, out.Answers)

	msg := decodeError(t, serve(s, jsonRequest("/ask", `{"question":""}`)), http.StatusBadRequest)
	require.Equal(t, "Question is required.", msg)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, testConfig())
	msg := decodeError(t, serve(s, httptest.NewRequest(http.MethodGet, "/nope", nil)), http.StatusNotFound)
	require.Equal(t, "Not Found", msg)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "api error", err: NewValidationError("bad input"), wantStatus: http.StatusBadRequest, wantMsg: "bad input"},
		{name: "http error", err: echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), wantStatus: http.StatusMethodNotAllowed, wantMsg: "nope"},
		{name: "unknown", err: errors.New("db exploded"), wantStatus: http.StatusInternalServerError, wantMsg: "An unexpected error occurred."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			ErrorHandler(zap.NewNop())(tt.err, c)
			require.Equal(t, tt.wantMsg, decodeError(t, rec, tt.wantStatus))
		})
	}
}

func TestPanicIsInternalError(t *testing.T) {
	s := newTestServer(t, testConfig())
	s.echo.GET("/panic", func(c echo.Context) error { panic("boom") })
	msg := decodeError(t, serve(s, httptest.NewRequest(http.MethodGet, "/panic", nil)), http.StatusInternalServerError)
	require.Equal(t, "An unexpected error occurred.", msg)
}

func TestAPIZipRowsWithoutAnswerUseOtherText(t *testing.T) {
	s := newTestServer(t, testConfig())
	data := buildZip(t,
		zipFile{name: "rows.csv", body: "id,value\n1,2\n"},
		zipFile{name: "notes.txt", body: "the answer is in here"},
	)
	out := decodeAnswer(t, serve(s, multipartRequest(t, "q", "bundle.zip", data)))
	require.Equal(t, []string{"stub answer"}, out.Answers)
}

func TestAPIZipOverSizeLimitIsAnswer(t *testing.T) {
	cfg := testConfig()
	cfg.MaxArchiveBytes = 1024
	s := newTestServer(t, cfg)
	data := buildZip(t, zipFile{name: "zeros.txt", body: strings.Repeat("0", 4096)})

	out := decodeAnswer(t, serve(s, multipartRequest(t, "q", "bomb.zip", data)))
	require.Len(t, out.Answers, 1)
	require.True(t, strings.HasPrefix(out.Answers[0], "Error processing zip file: archive exceeds decompressed size limit"), out.Answers[0])
}

func TestAPITikaCallUsesConfiguredTimeout(t *testing.T) {
	tika := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	defer tika.Close()

	cfg := testConfig()
	cfg.TikaURL = tika.URL
	cfg.TikaTimeoutSecs = 1
	s := newTestServer(t, cfg)

	start := time.Now()
	out := decodeAnswer(t, serve(s, multipartRequest(t, "q", "old.doc", []byte("\xd0\xcf\x11\xe0"))))
	require.Less(t, time.Since(start), 5*time.Second)
	require.True(t, strings.HasPrefix(out.Answers[0], "Error processing doc file: tika parse: "), out.Answers[0])
}
