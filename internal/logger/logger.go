package logger

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

var _ http.RoundTripper = (*RoundTripper)(nil)

// RoundTripper logs every API request with its status and duration.
type RoundTripper struct {
	next http.RoundTripper
}

func NewRoundTripper(next http.RoundTripper) *RoundTripper {
	return &RoundTripper{next: next}
}

func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		log.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("request_id", req.Header.Get("X-Request-ID")).
			Dur("duration", time.Since(started)).
			Msg("api call failed")

		return resp, err
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("api call")

	return resp, nil
}
