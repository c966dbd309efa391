// ZhiBan 值班冲突检测与规则引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/zhiban/zhiban/internal/config"
	"github.com/zhiban/zhiban/internal/database"
	"github.com/zhiban/zhiban/internal/handler"
	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/middleware"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/pkg/audit"
	"github.com/zhiban/zhiban/pkg/clock"
	"github.com/zhiban/zhiban/pkg/conflict"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/planner"
	"github.com/zhiban/zhiban/pkg/rules"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 本地开发时加载 .env，文件不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	fmt.Printf("ZhiBan 值班规则引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 时区
	loc, err := clock.LoadZone(cfg.Engine.Timezone)
	if err != nil {
		logger.Error().Err(err).Str("timezone", cfg.Engine.Timezone).Msg("时区加载失败")
		os.Exit(1)
	}

	// 冲突检测与分类
	detector := conflict.NewDetector(loc)
	classifier := conflict.NewClassifier(detector, &conflict.ClassifierConfig{
		RestThresholdMinutes: cfg.Engine.RestThresholdMinutes,
	})

	// 存储后端：优先数据库，不可用时退回内存
	var store rules.Store = rules.NewMemoryStore()
	var sink audit.Sink = audit.NewMemorySink(cfg.Engine.AuditCapacity)
	var shiftRepo *repository.ShiftRepository
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(&cfg.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("数据库不可用，使用内存存储")
		} else {
			defer db.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := repository.EnsureSchema(ctx, db); err != nil {
				logger.Error().Err(err).Msg("数据库初始化失败")
				cancel()
				os.Exit(1)
			}
			cancel()
			store = repository.NewOverrideStore(db)
			sink = repository.NewAuditSink(db)
			shiftRepo = repository.NewShiftRepository(db)
		}
	}

	engine := rules.NewEngine(classifier, nil, store, sink)
	plan := planner.NewPlanner()

	// 处理器
	ruleHandler := handler.NewRuleHandler(engine)
	planHandler := handler.NewPlanHandler(plan, engine, shiftRepo)
	statsHandler := handler.NewStatsHandler()
	auditHandler := handler.NewAuditHandler(sink)

	// 指标
	metrics.Register()

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"zhiban"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "ZhiBan 值班规则引擎 API v1",
			"endpoints": {
				"rules": {
					"list": "GET /api/v1/rules",
					"evaluate": "POST /api/v1/rules/evaluate",
					"enforce": "POST /api/v1/rules/enforce"
				},
				"overrides": {
					"create": "POST /api/v1/overrides",
					"list": "GET /api/v1/overrides?shift_id=",
					"remove": "DELETE /api/v1/overrides/{id}"
				},
				"plan": {
					"generate": "POST /api/v1/plan/generate",
					"execute": "POST /api/v1/plan/execute"
				},
				"stats": {
					"workload": "POST /api/v1/stats/workload",
					"coverage": "POST /api/v1/stats/coverage"
				},
				"audit": "GET /api/v1/audit"
			}
		}`))
	})

	// 规则引擎 API
	mux.HandleFunc("/api/v1/rules", ruleHandler.ListRules)
	mux.HandleFunc("/api/v1/rules/evaluate", ruleHandler.Evaluate)
	mux.HandleFunc("/api/v1/rules/enforce", ruleHandler.Enforce)

	// 豁免管理 API
	mux.HandleFunc("/api/v1/overrides", ruleHandler.Overrides)
	mux.HandleFunc("/api/v1/overrides/", ruleHandler.OverrideByID)

	// 自动排班 API
	mux.HandleFunc("/api/v1/plan/generate", planHandler.Generate)
	mux.HandleFunc("/api/v1/plan/execute", planHandler.Execute)

	// 统计分析 API
	mux.HandleFunc("/api/v1/stats/workload", statsHandler.Workload)
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)

	// 审计查询 API
	mux.HandleFunc("/api/v1/audit", auditHandler.Recent)

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：recovery -> requestID -> rateLimit -> cors -> securityHeaders -> logging -> handler
	root := middleware.Recovery(
		requestIDMiddleware(
			rateLimitMiddleware(cfg.API.RateLimit)(
				corsMiddleware(
					middleware.SecurityHeaders(
						loggingMiddleware(mux))))))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("timezone", cfg.Engine.Timezone).
			Bool("database", db != nil).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, _ := r.Context().Value("request_id").(string)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		metrics.RecordRequest(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(requestsPerSecond int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(float64(requestsPerSecond))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":   true,
					"code":    "RATE_LIMITED",
					"message": "请求过于频繁，请稍后重试",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Actor, X-Actor-Role")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
