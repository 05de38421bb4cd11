package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"charterdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger writes one structured line per request and turns panics into
// a 500 envelope.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(HeaderRequestID, id)

		defer func() {
			if recovered := recover(); recovered != nil {
				log.Errorw("panic recovered",
					"request_id", id,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"error", fmt.Sprintf("%v", recovered),
					"stack", string(debug.Stack()),
				)
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
			}

			fields := []any{
				"request_id", id,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"query", c.Request.URL.RawQuery,
				"status", c.Writer.Status(),
				"latency", time.Since(start),
				"client_ip", c.ClientIP(),
				"operator_id", c.GetString(ContextOperatorID),
			}
			if len(c.Errors) > 0 {
				fields = append(fields, "errors", c.Errors.String())
			}

			switch status := c.Writer.Status(); {
			case status >= http.StatusInternalServerError:
				log.Errorw("request", fields...)
			case status >= http.StatusBadRequest:
				log.Warnw("request", fields...)
			default:
				log.Infow("request", fields...)
			}
		}()

		c.Next()
	}
}
