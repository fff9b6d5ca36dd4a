package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "school_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "school_register_total",
			Help: "Total number of user registrations",
		},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "invalid_password", ...
	)

	PolicyDenialCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_policy_denials_total",
			Help: "Total number of requests denied by an access policy",
		},
		[]string{"role"},
	)

	StudentOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_student_operations_total",
			Help: "Total number of student record operations",
		},
		[]string{"operation"}, // "create", "get", "list", "update", "delete"
	)

	TeacherOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_teacher_operations_total",
			Help: "Total number of teacher record operations",
		},
		[]string{"operation"},
	)

	ExportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_exports_total",
			Help: "Total number of CSV exports",
		},
		[]string{"kind"}, // "students", "teachers", "all", "students_detailed", "teachers_detailed"
	)

	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "school_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "school_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "school_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	ActiveStudentsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "school_active_students",
			Help: "Number of active student records",
		},
	)

	ActiveTeachersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "school_active_teachers",
			Help: "Number of active teacher records",
		},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(PolicyDenialCounter)
	prometheus.MustRegister(StudentOperationCounter)
	prometheus.MustRegister(TeacherOperationCounter)
	prometheus.MustRegister(ExportCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(ActiveStudentsGauge)
	prometheus.MustRegister(ActiveTeachersGauge)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordPolicyDenial records a 403 issued by the policy gate
func RecordPolicyDenial(role string) {
	PolicyDenialCounter.With(prometheus.Labels{"role": role}).Inc()
}

// RecordStudentOperation records a student record operation
func RecordStudentOperation(operation string) {
	StudentOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordTeacherOperation records a teacher record operation
func RecordTeacherOperation(operation string) {
	TeacherOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordExport records a CSV export by kind
func RecordExport(kind string) {
	ExportCounter.With(prometheus.Labels{"kind": kind}).Inc()
}

// UpdateActiveStudents updates the active students gauge
func UpdateActiveStudents(count int64) {
	ActiveStudentsGauge.Set(float64(count))
}

// UpdateActiveTeachers updates the active teachers gauge
func UpdateActiveTeachers(count int64) {
	ActiveTeachersGauge.Set(float64(count))
}
