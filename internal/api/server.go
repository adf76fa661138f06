package api

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/gravity-arena/internal/logging"
	"github.com/annel0/gravity-arena/internal/middleware"
	"github.com/annel0/gravity-arena/internal/network"
	"github.com/annel0/gravity-arena/internal/storage"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// StatsSource источник загрузки хаба (network.Hub)
type StatsSource interface {
	Stats() network.HubStats
}

// Config зависимости REST сервера
type Config struct {
	Service    string // пространство имён HTTP-метрик
	CORSOrigin string
	Hub        StatsSource
	Scores     storage.ScoreRepo
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Server REST API: здоровье, статистика, таблица рекордов, метрики
type Server struct {
	router  *gin.Engine
	handler http.Handler
	hub     StatsSource
	scores  storage.ScoreRepo
	system  *SystemMetrics
}

// GenericResponse общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// StatsResponse данные /api/stats
type StatsResponse struct {
	Players    int     `json:"players"`
	Objects    int     `json:"objects"`
	Uptime     string  `json:"uptime"`
	MemoryMB   float64 `json:"memory_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
	ServerTime int64   `json:"server_time"`
}

// NewServer собирает gin-роутер с middleware наблюдаемости и CORS.
func NewServer(cfg Config) *Server {
	if cfg.Service == "" {
		cfg.Service = "rest_api"
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Service))
	router.Use(middleware.NewRequestLogger(logging.GetComponentLogger(logging.ComponentHTTP)).Handler())
	router.Use(middleware.NewPrometheusMiddleware(cfg.Service, cfg.Registerer).Handler())

	s := &Server{
		router: router,
		hub:    cfg.Hub,
		scores: cfg.Scores,
		system: NewSystemMetrics(),
	}

	router.GET("/health", s.handleHealth)
	middleware.RegisterMetricsEndpoint(router, cfg.Gatherer)
	api := router.Group("/api")
	{
		api.GET("/stats", s.handleStats)
		api.GET("/leaderboard", s.handleLeaderboard)
	}

	origins := []string{"*"}
	if cfg.CORSOrigin != "" {
		origins = []string{cfg.CORSOrigin}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	}).Handler(router)

	return s
}

// Handler http.Handler с CORS поверх роутера
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (s *Server) handleStats(c *gin.Context) {
	resp := StatsResponse{
		Uptime:     s.system.Uptime(),
		MemoryMB:   s.system.MemoryMB(),
		Goroutines: runtime.NumGoroutine(),
		ServerTime: time.Now().Unix(),
	}
	if s.hub != nil {
		st := s.hub.Stats()
		resp.Players = st.Players
		resp.Objects = st.Objects
	}
	if cpu, err := s.system.CPUPercent(); err == nil {
		resp.CPUPercent = cpu
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика получена", Data: resp})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	limit := defaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный параметр limit"})
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	if s.scores == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Хранилище рекордов не настроено"})
		return
	}

	top, err := s.scores.Top(c.Request.Context(), limit)
	if err != nil {
		logging.GetComponentLogger(logging.ComponentHTTP).Error("❌ Таблица рекордов: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Внутренняя ошибка сервера"})
		return
	}
	if top == nil {
		top = []storage.ScoreEntry{}
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Таблица рекордов", Data: top})
}
