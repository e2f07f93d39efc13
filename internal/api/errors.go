package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"chatbot-studio/internal/auth"
	"chatbot-studio/internal/observability"
	"chatbot-studio/internal/service"
	"chatbot-studio/internal/whatsapp"
	"chatbot-studio/pkg/payload"
)

const msgInternal = "internal server error"

// bindError marks a request body or query that could not be bound.
type bindError struct {
	err error
}

func (e *bindError) Error() string { return e.err.Error() }
func (e *bindError) Unwrap() error { return e.err }

// bind decodes the request into req, picking the binding from the content
// type. Failures are recorded on c.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		_ = c.Error(&bindError{err: err})
		return false
	}
	return true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(&bindError{err: err})
		return false
	}
	return true
}

// fail records err for ErrorHandler and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// classify maps an error to a status code and a "detail" body.
func classify(err error) (int, any) {
	var (
		verr   *payload.ValidationError
		ferr   *service.FieldError
		berr   *bindError
		apiErr *whatsapp.APIError
	)
	switch {
	case errors.As(err, &verr):
		observability.IncValidationFailure("payload")
		return http.StatusBadRequest, verr.Issues
	case errors.As(err, &ferr):
		observability.IncValidationFailure("request")
		return http.StatusBadRequest, ferr.Issues
	case errors.As(err, &berr):
		observability.IncValidationFailure("request")
		return http.StatusBadRequest, bindingDetail(berr.err)
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, "username or email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenRevoked):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, whatsapp.ErrNotConfigured):
		return http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "whatsapp rejected the message: " + apiErr.Body
	}
	return http.StatusInternalServerError, msgInternal
}

func bindingDetail(err error) any {
	var (
		verrs   validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
		syntax  *json.SyntaxError
	)
	switch {
	case errors.As(err, &verrs):
		issues := make([]payload.Issue, len(verrs))
		for i, fe := range verrs {
			expected := "to pass '" + fe.Tag() + "'"
			if fe.Param() != "" {
				expected += " (" + fe.Param() + ")"
			}
			issues[i] = payload.Issue{Field: fe.Field(), Expected: expected}
		}
		return issues
	case errors.As(err, &typeErr):
		return []payload.Issue{{Field: typeErr.Field, Expected: typeErr.Type.String()}}
	case errors.As(err, &syntax):
		return "malformed JSON body"
	}
	return err.Error()
}

var tagNameOnce sync.Once

// useJSONFieldNames makes validator report fields by their json name.
func useJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
