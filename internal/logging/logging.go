// Package logging builds the logrus logger used by the CLI and the API
// server, and adapts it to the scorer's trace hooks.
package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/stockscore/internal/config"
	"github.com/seenimoa/stockscore/pkg/models"
)

// Fields is a type alias for logrus.Fields.
type Fields = logrus.Fields

// New creates a logger from the logging section of the configuration.
func New(cfg config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}
	logger.SetLevel(lvl)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	}

	output, err := getOutput(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to set output: %w", err)
	}
	logger.SetOutput(output)

	return logger, nil
}

// Discard returns a logger that writes nowhere.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// getOutput returns the writer for "stdout", "stderr" or a file path.
func getOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
		}
		return file, nil
	}
}

// WithComponent creates a logger entry with a component field.
func WithComponent(logger logrus.FieldLogger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// WithSymbol creates a logger entry with a symbol field.
func WithSymbol(logger logrus.FieldLogger, symbol string) *logrus.Entry {
	return logger.WithField("symbol", symbol)
}

// ── Scorer trace sink ──

// TraceSink logs sub-scores and decisions at debug level.
type TraceSink struct {
	Entry *logrus.Entry
}

// NewTraceSink returns a TraceSink writing through logger.
func NewTraceSink(logger logrus.FieldLogger) *TraceSink {
	return &TraceSink{Entry: WithComponent(logger, "scoring")}
}

// SubScore logs one sub-score.
func (t *TraceSink) SubScore(s models.SubScore) {
	t.Entry.WithFields(Fields{
		"name":     s.Name,
		"value":    s.Value,
		"fallback": s.Fallback,
	}).Debug("sub-score")
}

// Decision logs the final recommendation.
func (t *TraceSink) Decision(r models.Recommendation) {
	t.Entry.WithFields(Fields{
		"action":     r.Action,
		"overall":    r.OverallScore,
		"confidence": r.Confidence,
		"risk":       r.RiskLevel,
		"factors":    len(r.Factors),
	}).Debug("recommendation")
}

// ── HTTP middleware ──

// Middleware returns a logging middleware for HTTP handlers.
func Middleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			logger.WithFields(Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   wrapped.statusCode,
				"duration": time.Since(start).Milliseconds(),
				"ip":       r.RemoteAddr,
			}).Info("HTTP request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
