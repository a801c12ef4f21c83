// Package response writes bodies in the judge backend's wire shapes: plain JSON
// objects, {"error": ...} failures, {"detail", "code"} auth failures and
// {count, next, previous, results} pages.
package response

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ojclient/pkg/errors"
	"ojclient/pkg/utils/logger"
)

// JSON sends data with status
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Success sends data with 200
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends data with 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error sends an error response. Validation errors carrying field details are
// rendered field by field ({"email": ["..."]}); everything else as {"error": msg}.
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	status := customErr.Status
	if status == 0 {
		status = customErr.Code.HTTPStatus()
	}

	logger.Warn(c.Request.Context(), "request error",
		zap.Int("code", int(customErr.Code)),
		zap.Int("status", status),
		zap.String("message", customErr.Error()),
	)

	if fields := errors.FieldErrors(customErr); len(fields) > 0 && status == http.StatusBadRequest {
		body := make(gin.H, len(fields))
		for k, v := range fields {
			body[k] = []string{v}
		}
		c.JSON(status, body)
		return
	}
	c.JSON(status, gin.H{"error": customErr.Error()})
}

// Detail sends the token-layer failure shape {"detail": ..., "code": ...}.
func Detail(c *gin.Context, status int, detail, code string) {
	body := gin.H{"detail": detail}
	if code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}

// AbortWithError aborts the request and sends error response
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// AbortWithDetail aborts the request with a detail response
func AbortWithDetail(c *gin.Context, status int, detail, code string) {
	Detail(c, status, detail, code)
	c.Abort()
}

// Page is the paginated envelope.
type Page struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// Paginate slices items for page (1-based) and writes the envelope with next and
// previous links built from the request URL.
func Paginate[T any](c *gin.Context, items []T, page, pageSize int) {
	if pageSize <= 0 {
		pageSize = 25
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	resp := Page{Count: len(items), Results: items[start:end]}
	if end < len(items) {
		link := pageLink(c, page+1)
		resp.Next = &link
	}
	if page > 1 {
		link := pageLink(c, page-1)
		resp.Previous = &link
	}
	c.JSON(http.StatusOK, resp)
}

func pageLink(c *gin.Context, page int) string {
	u := url.URL{Scheme: "http", Host: c.Request.Host, Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
