package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"natours/internal/domain"
	"natours/internal/http/middleware"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// respond sends the success envelope.
func respond(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func respondList(c *gin.Context, key string, records []any) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(records),
		"data":    gin.H{key: records},
	})
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	middleware.Fail(c, err)
}

// bindBody reads the JSON body into a key-presence map. An empty body is an
// empty map, so validation reports the missing fields.
func bindBody(c *gin.Context) (map[string]any, error) {
	body := map[string]any{}
	if c.Request.Body == nil {
		return body, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, domain.ValidationError{Msg: "Invalid input data.", Err: err}
	}
	if len(raw) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, domain.ValidationError{Msg: "Invalid input data.", Err: err}
	}
	return body, nil
}

// BindJSONOrError binds a typed body; the body must be present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		fail(c, domain.ValidationError{Msg: "Invalid input data."})
		return false
	}
	if err := json.NewDecoder(c.Request.Body).Decode(dst); err != nil {
		fail(c, domain.ValidationError{Msg: "Invalid input data.", Err: err})
		return false
	}
	return true
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: name, Msg: fmt.Sprintf("Invalid %s: %s.", name, raw), Err: err}
	}
	return id, nil
}

func sendFile(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
