package api

import (
	"net/http"
	"strings"
	"time"

	"askdoc/internal/answer"
	"askdoc/internal/config"
	"askdoc/internal/extract"
	"askdoc/internal/providers"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const welcomeText = "Welcome to the Assignment Answer API! Use the /api endpoint."

type Server struct {
	cfg       config.Config
	log       *zap.Logger
	providers *providers.Manager
	extractor *extract.Extractor
	resolver  *answer.Resolver
	echo      *echo.Echo
}

func NewServer(cfg config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mode, err := answer.ParseMode(cfg.FreeTextMode)
	if err != nil {
		return nil, err
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	_, primary := pm.Primary()
	log.Info("llm provider selected",
		zap.String("provider", primary.Name),
		zap.String("model", primary.Model),
		zap.Strings("configured", providers.ProviderNames(pm.Configured())),
	)

	s := &Server{
		cfg:       cfg,
		log:       log,
		providers: pm,
		extractor: extract.New(extract.Options{
			TikaURL:           cfg.TikaURL,
			MaxArchiveEntries: cfg.MaxArchiveEntries,
			MaxEntryBytes:     int64(cfg.MaxEntryBytes),
			MaxArchiveBytes:   int64(cfg.MaxArchiveBytes),
			HTTPClient:        &http.Client{Timeout: time.Duration(cfg.TikaTimeoutSecs) * time.Second},
		}, log.Named("extract")),
		resolver: answer.NewResolver(pm, answer.Options{
			Mode:            mode,
			SystemPrompt:    cfg.SystemPrompt,
			MaxTokens:       cfg.LLMMaxTokens,
			Temperature:     cfg.LLMTemperature,
			MaxContextChars: cfg.MaxContextChars,
		}, log.Named("answer")),
	}
	s.echo = s.newEcho()
	return s, nil
}

func (s *Server) Routes() http.Handler {
	return s.echo
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(s.log)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: splitOrigins(s.cfg.CORSOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if s.cfg.UploadLimit != "" {
		e.Use(middleware.BodyLimit(s.cfg.UploadLimit))
	}

	e.GET("/", s.handleIndex)
	e.GET("/healthz", s.handleHealthz)
	e.POST("/api", s.handleAPI)
	e.POST("/ask", s.handleAsk)
	return e
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
