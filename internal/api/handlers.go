package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"askdoc/internal/extract"
	"askdoc/internal/models"
	"askdoc/internal/util"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgQuestionRequired = "Question is required."
	msgInvalidJSON      = "Invalid JSON body."
	msgInvalidForm      = "Invalid form body."
	msgNoReadableText   = "No readable text found in the uploaded file."
)

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.String(http.StatusOK, welcomeText)
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAPI(c echo.Context) error {
	req, err := s.parseRequest(c)
	if err != nil {
		return err
	}
	if req.Question == "" {
		return NewValidationError(msgQuestionRequired)
	}
	if req.File == nil {
		return s.respond(c, req.Question, s.resolver.Resolve(c.Request().Context(), req.Question, nil))
	}

	ext := extract.Ext(req.File.Filename)
	if !extract.Supported(ext) {
		return NewUnsupportedFormatError(ext)
	}
	s.log.Info("upload received",
		zap.String("filename", req.File.Filename),
		zap.Int("bytes", len(req.File.Data)),
		zap.String("sha256", util.ShortHash(req.File.Data)),
		zap.String("request_id", requestID(c)),
	)

	doc, err := s.extractor.Extract(c.Request().Context(), req.File.Filename, req.File.Data)
	var exErr *extract.ExtractionError
	switch {
	case errors.Is(err, extract.ErrEmptyExtraction):
		return NewValidationError(msgNoReadableText)
	case errors.As(err, &exErr):
		s.log.Warn("extraction failed", zap.String("filename", req.File.Filename), zap.Error(err))
		return s.respond(c, req.Question, []string{fmt.Sprintf("Error processing %s file: %v", exErr.Format, exErr.Err)})
	case err != nil:
		return fmt.Errorf("extract %s: %w", req.File.Filename, err)
	}
	return s.respond(c, req.Question, s.resolver.Resolve(c.Request().Context(), req.Question, &doc))
}

// handleAsk takes a JSON question and always goes to the LLM.
func (s *Server) handleAsk(c echo.Context) error {
	var body askRequest
	if err := decodeJSON(c.Request().Body, &body); err != nil {
		return err
	}
	q := strings.TrimSpace(body.Question)
	if q == "" {
		return NewValidationError(msgQuestionRequired)
	}
	return s.respond(c, q, s.resolver.Ask(c.Request().Context(), q, ""))
}

func (s *Server) respond(c echo.Context, question string, answers []string) error {
	return c.JSON(http.StatusOK, models.AskResponse{Question: question, Answers: answers})
}

// parseRequest reads the question and the optional file from a JSON,
// multipart or urlencoded body.
func (s *Server) parseRequest(c echo.Context) (models.Request, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ctype, echo.MIMEApplicationJSON):
		var body askRequest
		if err := decodeJSON(c.Request().Body, &body); err != nil {
			return models.Request{}, err
		}
		return models.Request{Question: strings.TrimSpace(body.Question)}, nil
	case strings.HasPrefix(ctype, echo.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return models.Request{}, bodyError(err, msgInvalidForm)
		}
		req := models.Request{Question: strings.TrimSpace(firstValue(form.Value["question"]))}
		if files := form.File["file"]; len(files) > 0 {
			up, err := readUpload(files[0])
			if err != nil {
				return models.Request{}, bodyError(err, msgInvalidForm)
			}
			req.File = up
		}
		return req, nil
	default:
		params, err := c.FormParams()
		if err != nil {
			return models.Request{}, bodyError(err, msgInvalidForm)
		}
		return models.Request{Question: strings.TrimSpace(params.Get("question"))}, nil
	}
}

func decodeJSON(r io.Reader, v any) error {
	err := json.NewDecoder(r).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return bodyError(err, msgInvalidJSON)
}

// bodyError keeps echo errors (like 413 from the body limit) and turns the
// rest into a 400.
func bodyError(err error, message string) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return NewValidationError(message)
}

func readUpload(fh *multipart.FileHeader) (*models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &models.Upload{Filename: fh.Filename, Data: data}, nil
}

func firstValue(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
