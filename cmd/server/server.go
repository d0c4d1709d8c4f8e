package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ichimoku-backtest/services/engine"
	"ichimoku-backtest/services/monitoring"
)

// BarSource serves ordered duplicate-free candle tables. The ClickHouse store
// satisfies it; tests substitute a fixture.
type BarSource interface {
	QueryBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]engine.Bar, error)
}

type jobStatus string

const (
	jobQueued    jobStatus = "queued"
	jobRunning   jobStatus = "running"
	jobCompleted jobStatus = "completed"
	jobFailed    jobStatus = "failed"
)

type symbolReport struct {
	Symbol string        `json:"symbol"`
	Stats  *engine.Stats `json:"stats,omitempty"`
	Ruined bool          `json:"ruined,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type job struct {
	ID        string         `json:"job_id"`
	Status    jobStatus      `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	Symbols   []symbolReport `json:"symbols,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type backtestRequest struct {
	Symbols  []string `json:"symbols" binding:"required,min=1"`
	Interval string   `json:"interval"`
	FromMs   int64    `json:"from_ms"`
	ToMs     int64    `json:"to_ms"`

	// Optional strategy overrides; zero values keep the service defaults.
	SlMult float64 `json:"sl_mult"`
	RrMult float64 `json:"rr_mult"`
}

// Service owns the job registry and runs backtests against a bar source.
type Service struct {
	source  BarSource
	strat   engine.Config
	workers int
	logger  *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

func NewService(source BarSource, strat engine.Config, workers int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:  source,
		strat:   strat,
		workers: workers,
		logger:  logger,
		jobs:    make(map[string]*job),
	}
}

func (s *Service) routes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/backtest", s.handleSubmit)
		api.GET("/backtest/:job_id", s.handleGetJob)
	}
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", monitoring.Handler())
}

func (s *Service) handleSubmit(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Interval == "" {
		req.Interval = "1d"
	}
	if req.ToMs == 0 {
		req.ToMs = time.Now().UnixMilli()
	}

	cfg := s.strat
	if req.SlMult > 0 {
		cfg.SlMult = req.SlMult
	}
	if req.RrMult > 0 {
		cfg.RrMult = req.RrMult
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	j := &job{
		ID:        uuid.New().String(),
		Status:    jobQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	monitoring.JobsInFlight.Inc()

	s.logger.Info("backtest job accepted",
		zap.String("job_id", j.ID),
		zap.Strings("symbols", req.Symbols),
		zap.String("interval", req.Interval),
	)

	go s.execute(j.ID, req, cfg)

	c.JSON(http.StatusAccepted, gin.H{"job_id": j.ID, "status": jobQueued})
}

// execute runs the job in the background; results land in the registry.
func (s *Service) execute(jobID string, req backtestRequest, cfg engine.Config) {
	defer monitoring.JobsInFlight.Dec()
	s.setStatus(jobID, jobRunning, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	from := time.UnixMilli(req.FromMs)
	to := time.UnixMilli(req.ToMs)

	runs := make([]engine.SymbolRun, 0, len(req.Symbols))
	reports := make([]symbolReport, 0, len(req.Symbols))
	for _, sym := range req.Symbols {
		bars, err := s.source.QueryBars(ctx, sym, req.Interval, from, to)
		if err != nil {
			s.logger.Warn("bar load failed", zap.String("symbol", sym), zap.Error(err))
			reports = append(reports, symbolReport{Symbol: sym, Error: err.Error()})
			continue
		}
		runs = append(runs, engine.SymbolRun{Symbol: sym, Bars: bars, Config: cfg})
	}

	start := time.Now()
	for _, out := range engine.RunBatch(ctx, runs, s.workers, s.logger) {
		rep := symbolReport{Symbol: out.Symbol}
		if out.Err != nil {
			rep.Error = out.Err.Error()
			monitoring.ObserveRun(start, 0, 0, out.Err)
		} else {
			st := out.Result.Stats
			rep.Stats = &st
			rep.Ruined = out.Result.Ruined
			monitoring.ObserveRun(start, len(out.Result.Rows), st.NumTrades, nil)
		}
		reports = append(reports, rep)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return
	}
	j.Symbols = reports
	j.Status = jobCompleted
	if len(reports) == 0 {
		j.Status = jobFailed
		j.Error = "no symbols produced results"
	}
}

func (s *Service) setStatus(jobID string, st jobStatus, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		j.Status = st
		j.Error = msg
	}
}

func (s *Service) handleGetJob(c *gin.Context) {
	s.mu.RLock()
	j, ok := s.jobs[c.Param("job_id")]
	var snap job
	if ok {
		snap = *j // serialize outside the lock
	}
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}
