// Package metrics 提供Prometheus指标
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zhiban",
			Name:      "http_requests_total",
			Help:      "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zhiban",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求耗时分布",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ruleEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zhiban",
			Name:      "rule_evaluations_total",
			Help:      "规则评估总数，按结果分类",
		},
		[]string{"outcome"},
	)

	conflictsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zhiban",
			Name:      "conflicts_detected_total",
			Help:      "检出的冲突总数，按冲突代码分类",
		},
		[]string{"code"},
	)

	overridesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zhiban",
			Name:      "overrides_created_total",
			Help:      "创建的规则豁免总数，按规则分类",
		},
		[]string{"rule"},
	)

	plansGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zhiban",
			Name:      "plans_generated_total",
			Help:      "生成的排班计划总数",
		},
	)
)

// Register 注册全部指标（幂等）
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			ruleEvaluations,
			conflictsDetected,
			overridesCreated,
			plansGenerated,
		)
	})
}

// Handler 返回指标暴露端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest 记录HTTP请求指标
func RecordRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncEvaluation 记录一次规则评估
func IncEvaluation(allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "blocked"
	}
	ruleEvaluations.WithLabelValues(outcome).Inc()
}

// IncConflict 记录一个检出的冲突
func IncConflict(code string) {
	conflictsDetected.WithLabelValues(code).Inc()
}

// IncOverrideCreated 记录一次豁免创建
func IncOverrideCreated(rule string) {
	overridesCreated.WithLabelValues(rule).Inc()
}

// IncPlanGenerated 记录一次计划生成
func IncPlanGenerated() {
	plansGenerated.Inc()
}
