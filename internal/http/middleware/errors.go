package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"natours/internal/domain"

	"github.com/gin-gonic/gin"
)

const unknownErrorMsg = "Something went very wrong!"

// ErrorHandler renders whatever error a handler attached with c.Error. In
// production only operational messages reach the client.
func ErrorHandler(prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, msg, operational := classify(err)
		reqID := GetRequestID(c)

		if status >= http.StatusInternalServerError {
			log.Printf("[ERROR] request_id=%s path=%s err=%v", reqID, c.Request.URL.Path, err)
		}
		if prod && !operational {
			msg = unknownErrorMsg
		}

		if !strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.HTML(status, "error.html", gin.H{"title": "Something went wrong!", "msg": msg})
			return
		}

		payload := gin.H{"status": statusWord(status), "message": msg}
		if !prod {
			payload["error"] = detail(err)
			payload["request_id"] = reqID
		}
		c.JSON(status, payload)
	}
}

// Fail attaches err for ErrorHandler and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func classify(err error) (status int, msg string, operational bool) {
	var (
		authErr     domain.AuthError
		internalErr domain.InternalError
	)
	switch {
	case errors.As(err, &authErr):
		return authErr.Status(), authErr.Error(), true
	case domain.IsValidation(err):
		return http.StatusBadRequest, validationMessage(err), true
	case domain.IsNotFound(err):
		return http.StatusNotFound, err.Error(), true
	case domain.IsConflict(err):
		return http.StatusConflict, err.Error(), true
	case errors.As(err, &internalErr):
		return http.StatusInternalServerError, internalErr.Error(), internalErr.Public
	default:
		return http.StatusInternalServerError, err.Error(), false
	}
}

// validationMessage drops the "field: " prefix single-message errors carry.
func validationMessage(err error) string {
	var ve domain.ValidationError
	if errors.As(err, &ve) && len(ve.Messages) == 0 && ve.Msg != "" {
		return ve.Msg
	}
	return err.Error()
}

func detail(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return fmt.Sprintf("%v: %v", err, inner)
	}
	return err.Error()
}

func statusWord(status int) string {
	if status >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}
