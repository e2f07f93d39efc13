package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chatbot-studio/internal/auth"
	"chatbot-studio/internal/logger"
	"chatbot-studio/internal/observability"
)

const (
	ctxUserID = "userID"
	ctxClaims = "claims"

	headerRequestID = "X-Request-ID"
)

// RequestLogger tags the request context with a request id and logs every
// completed request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx, _ := logger.ContextWithRequestID(c.Request.Context(), c.GetHeader(headerRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Header(headerRequestID, logger.RequestIDFromContext(ctx))

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.FromContext(c.Request.Context()).WithFields(map[string]interface{}{
			"http_method": c.Request.Method,
			"uri":         c.Request.URL.RequestURI(),
			"status_code": statusCode,
			"latency_ms":  time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})

		switch {
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// ErrorHandler answers the last error a handler recorded with c.Error.
// Unclassified errors are reported to sink and answered with a 500.
func ErrorHandler(sink observability.ErrorSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, detail := classify(err)
		if status == http.StatusInternalServerError {
			sink.Report(c.Request.Context(), err, map[string]any{
				"method": c.Request.Method,
				"route":  c.FullPath(),
			})
		}
		if status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		c.JSON(status, gin.H{"detail": detail})
	}
}

// Recovery turns a panic into a 500 and reports it.
func Recovery(sink observability.ErrorSink) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		sink.Report(c.Request.Context(), fmt.Errorf("panic: %v", recovered), map[string]any{
			"method": c.Request.Method,
			"route":  c.FullPath(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": msgInternal})
	})
}

// Auth requires a valid, unrevoked bearer token of type typ. The user id and
// claims are stored on the context for handlers.
func Auth(gate *auth.Gate, typ auth.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			fail(c, auth.ErrInvalidToken)
			return
		}
		claims, err := gate.Verify(c.Request.Context(), raw, typ)
		if err != nil {
			fail(c, err)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			fail(c, err)
			return
		}

		ctx, _ := logger.ContextWithUser(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(ctxUserID, userID)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

func currentClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.MustGet(ctxClaims).(*auth.Claims)
	return claims
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
