package middleware

import (
	"bytes"
	"io"
	"strings"

	"pesarelay/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// APILogWriter is the slice of the api_logs repository the middleware needs.
type APILogWriter interface {
	Create(l *models.APILog) error
}

// bodyCaptureWriter tees everything written to the response into a buffer so
// the exchange can be audited after the fact.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Audit records one api_logs row per exchange, after the response is written.
// Paths under /health are exempt. Logging is best-effort: a failed insert is
// logged operationally and never alters the client-facing response.
func Audit(logs APILogWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/health") {
			c.Next()
			return
		}

		var reqBody []byte
		if c.Request.Body != nil {
			reqBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		}
		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		entry := &models.APILog{
			RequestID:       GetRequestID(c),
			Endpoint:        c.Request.URL.Path,
			RequestPayload:  string(reqBody),
			ResponsePayload: writer.body.String(),
			StatusCode:      writer.Status(),
		}
		go func() {
			if err := logs.Create(entry); err != nil {
				log.Error().Err(err).
					Str("endpoint", entry.Endpoint).
					Str("request_id", entry.RequestID).
					Msg("audit log write failed")
			}
		}()
	}
}
