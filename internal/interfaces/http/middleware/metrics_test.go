package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupTestMeter sets up a test meter provider and reader.
func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_DisabledOrUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, cfg := range map[string]HTTPMetricsConfig{
		"disabled":          {Enabled: false},
		"nil meterprovider": {Enabled: true},
	} {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.Use(HTTPMetrics(cfg))
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "ok"})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	rm := collectMetrics(t, reader)

	requestTotal := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, requestTotal, "http_server_request_total metric not found")
	sumData, ok := requestTotal.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum data for counter")
	require.Len(t, sumData.DataPoints, 1)
	assert.Equal(t, int64(3), sumData.DataPoints[0].Value)

	require.NotNil(t, findMetricByName(rm, "http_server_request_duration_seconds"))
	require.NotNil(t, findMetricByName(rm, "http_server_response_size_bytes"))
}

func TestHTTPMetricsWithMeter_DifferentStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})
	router.GET("/conflict", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{})
	})
	router.GET("/gateway", func(c *gin.Context) {
		c.JSON(http.StatusBadGateway, gin.H{})
	})

	for _, path := range []string{"/ok", "/ok", "/conflict", "/gateway"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rm := collectMetrics(t, reader)
	requestTotal := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, requestTotal)

	sumData, ok := requestTotal.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sumData.DataPoints, 3)

	var total int64
	for _, dp := range sumData.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(4), total)
}

func TestHTTPMetricsWithMeter_RequestSize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.POST("/api/v1/personalized-lines", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	body := strings.Repeat("x", 2048)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/personalized-lines", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, w.Code)

	rm := collectMetrics(t, reader)
	requestSize := findMetricByName(rm, "http_server_request_size_bytes")
	require.NotNil(t, requestSize)

	histData, ok := requestSize.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histData.DataPoints, 1)
	assert.Equal(t, float64(2048), histData.DataPoints[0].Sum)
}

func TestHTTPMetricsWithMeter_ActiveRequestsReturnToZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	active := findMetricByName(collectMetrics(t, reader), "http_server_active_requests")
	require.NotNil(t, active)
	sumData, ok := active.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range sumData.DataPoints {
		assert.Equal(t, int64(0), dp.Value)
	}
}

func TestHTTPMetricsWithMeter_RoutePatternAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/api/v1/personalizations/:id/image", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodGet, "/api/v1/personalizations/"+id+"/image", nil))
	}

	requestTotal := findMetricByName(collectMetrics(t, reader), "http_server_request_total")
	require.NotNil(t, requestTotal)
	sumData := requestTotal.Data.(metricdata.Sum[int64])
	require.Len(t, sumData.DataPoints, 1)

	route, ok := sumData.DataPoints[0].Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/personalizations/:id/image", route.AsString())
}

func TestGetRoutePattern_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/nope", nil)
	assert.Equal(t, "unknown", getRoutePattern(c))
}

func TestHTTPMetricsStatusGroup(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{409, "4xx"},
		{502, "5xx"},
		{100, "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPMetricsStatusGroup(tt.code))
	}
}
