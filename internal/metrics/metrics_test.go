package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetrics(t *testing.T) {
	before := testutil.ToFloat64(runsTotalMetric.WithLabelValues("ok", "profile"))
	IncreaseRunsTotalMetric("ok", "profile")
	IncreaseRunsTotalMetric("ok", "profile")
	assert.Equal(t, before+2, testutil.ToFloat64(runsTotalMetric.WithLabelValues("ok", "profile")))

	UpdateStoredRunsMetric(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(storedRunsCountMetric))

	IncreaseFittingEvaluationsMetric("poly")
	assert.GreaterOrEqual(t, testutil.ToFloat64(fittingEvaluationsTotalMetric.WithLabelValues("poly")), 1.0)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewMiddleware("test")
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.Collectors()...)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("200", "GET", "/ping")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("404", "GET", "unmatched")))
}
