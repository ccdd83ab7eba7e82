// Package httpapi serves the matching operations over HTTP.
//
// Both POST routes accept the same JSON arguments as the MCP tools and answer
// 200 with either the success shape or {"error": ...}. Only a body that is not
// JSON at all is rejected with 400.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/card-finder-mcp/internal/logging"
	"github.com/ironsheep/card-finder-mcp/internal/service"
)

// RequestIDHeader carries the per-request correlation ID in responses.
const RequestIDHeader = "X-Request-ID"

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, svc *service.Service, logger *zap.Logger, maxBodyBytes int64) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")

	v1.POST("/compare", func(c *gin.Context) {
		raw, ok := readJSON(c, maxBodyBytes)
		if !ok {
			return
		}
		ctx := withRequestLogger(c, logger, "compare_images")

		req, err := service.ParseCompareArgs(raw)
		if err != nil {
			logging.FromContext(ctx, logger).Warn("invalid arguments", zap.Error(err))
			c.JSON(http.StatusOK, service.ErrorResult{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, svc.CompareImages(ctx, req))
	})

	v1.POST("/find", func(c *gin.Context) {
		raw, ok := readJSON(c, maxBodyBytes)
		if !ok {
			return
		}
		ctx := withRequestLogger(c, logger, "find_image_on_template")

		req, err := service.ParseFindArgs(raw)
		if err != nil {
			logging.FromContext(ctx, logger).Warn("invalid arguments", zap.Error(err))
			c.JSON(http.StatusOK, service.ErrorResult{Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, svc.FindImageOnTemplate(ctx, req))
	})
}

// readJSON reads the request body and aborts with 400 (or 413) when it is not
// a JSON document.
func readJSON(c *gin.Context, maxBodyBytes int64) (json.RawMessage, bool) {
	body := c.Request.Body
	if maxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, maxBodyBytes)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, service.ErrorResult{Error: "request body too large"})
			return nil, false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, service.ErrorResult{Error: "failed to read request body"})
		return nil, false
	}
	if !json.Valid(data) {
		c.AbortWithStatusJSON(http.StatusBadRequest, service.ErrorResult{Error: "request body must be JSON"})
		return nil, false
	}
	return data, true
}

func withRequestLogger(c *gin.Context, logger *zap.Logger, operation string) context.Context {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(RequestIDHeader, requestID)
	return logging.ContextWithLogger(c.Request.Context(), logging.WithOperation(logger, operation, requestID))
}
