package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ironsheep/card-finder-mcp/internal/match"
	"github.com/ironsheep/card-finder-mcp/internal/service"
)

// brightSource matches any query whose first pixel is bright.
type brightSource struct{}

func (brightSource) Correspond(_ context.Context, _, query *image.Gray) ([]match.Candidate, error) {
	if query.Pix[0] < 128 {
		return nil, nil
	}
	good := match.Candidate{Distances: []float64{1, 10}}
	return []match.Candidate{good, good, good, good}, nil
}

func newRouter(maxBody int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	svc := service.New(match.NewEngine(brightSource{}), match.DefaultThresholds(), zap.NewNop())
	RegisterRoutes(router, svc, zap.NewNop(), maxBody)
	return router
}

func payload(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func post(t *testing.T, router *gin.Engine, path string, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded), resp.Body.String())
	return resp, decoded
}

func TestHealth(t *testing.T) {
	router := newRouter(0)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestCompare(t *testing.T) {
	router := newRouter(0)
	body, _ := json.Marshal(map[string]interface{}{
		"image1":    payload(t, color.RGBA{30, 60, 90, 255}),
		"image2":    payload(t, color.White),
		"threshold": 0.5,
	})

	resp, decoded := post(t, router, "/v1/compare", string(body))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, resp.Header().Get(RequestIDHeader))
	assert.Equal(t, true, decoded["match"])
	assert.Equal(t, 0.5, decoded["threshold"])
	assert.Equal(t, float64(4), decoded["min_matches"])
	assert.Equal(t, service.MessageMatch, decoded["message"])
}

func TestCompare_RequestIDIsEchoed(t *testing.T) {
	router := newRouter(0)

	req := httptest.NewRequest(http.MethodPost, "/v1/compare", strings.NewReader(`{}`))
	req.Header.Set(RequestIDHeader, "abc-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, "abc-123", resp.Header().Get(RequestIDHeader))
}

func TestCompare_ErrorsAreOK(t *testing.T) {
	router := newRouter(0)

	tests := []struct {
		name string
		body string
	}{
		{"missing images", `{}`},
		{"wrong type", `{"image1":1,"image2":"x"}`},
		{"not an object", `[1,2,3]`},
		{"threshold out of range", `{"image1":"eA==","image2":"eA==","threshold":-0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, decoded := post(t, router, "/v1/compare", tt.body)
			assert.Equal(t, http.StatusOK, resp.Code)
			assert.Len(t, decoded, 1)
			assert.NotEmpty(t, decoded["error"])
		})
	}
}

func TestFind(t *testing.T) {
	router := newRouter(0)
	body, _ := json.Marshal(map[string]interface{}{
		"base_image": payload(t, color.RGBA{30, 60, 90, 255}),
		"templates": []interface{}{
			payload(t, color.Black),
			payload(t, color.White),
			nil,
		},
	})

	resp, decoded := post(t, router, "/v1/find", string(body))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "provided", decoded["base_image"])
	assert.Equal(t, float64(3), decoded["total_templates"])
	assert.Equal(t, []interface{}{float64(1)}, decoded["matching_templates"])

	results := decoded["template_results"].([]interface{})
	require.Len(t, results, 3)
	assert.Equal(t, service.MessageNoMatch, results[0].(map[string]interface{})["message"])
	assert.NotEmpty(t, results[2].(map[string]interface{})["error"])
}

func TestNonJSONBody(t *testing.T) {
	router := newRouter(0)

	for _, path := range []string{"/v1/compare", "/v1/find"} {
		resp, decoded := post(t, router, path, `image1=abc`)
		assert.Equal(t, http.StatusBadRequest, resp.Code, path)
		assert.NotEmpty(t, decoded["error"], path)
	}
}

func TestBodyTooLarge(t *testing.T) {
	router := newRouter(32)

	resp, decoded := post(t, router, "/v1/compare", `{"image1":"`+strings.Repeat("A", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.NotEmpty(t, decoded["error"])
}

func TestServe_StopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &http.Server{Handler: newRouter(0)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, server, listener, time.Second, zap.NewNop())
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
