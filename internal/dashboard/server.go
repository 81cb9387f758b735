package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"niftypulse/config"
	"niftypulse/internal/metrics"
	"niftypulse/internal/view"
	"niftypulse/logger"
	"niftypulse/models"
)

//go:embed templates/*.tmpl
var embeddedFS embed.FS

// Market is the slice of the scheduler the dashboard reads from.
type Market interface {
	Snapshot() []models.Instrument
	Project(filter view.Filter, search string) []models.Instrument
	Breadth() (advances, declines int)
	MarketOpen() bool
	MarketFlow() models.MarketFlowSnapshot
	InstrumentFlow(symbol string) (models.InstrumentFlow, bool)
	Analyze(ctx context.Context) models.AnalysisResult
	Analysis() models.AnalysisResult
}

// Server hosts the Gin-powered market dashboard.
type Server struct {
	cfg               config.DashboardConfig
	log               *logger.Log
	market            Market
	metricStore       *metricStore
	logStore          *logStore
	metricHandler     metrics.MetricHandlerID
	httpServer        *http.Server
	refreshIntervalMs int
	upgrader          websocket.Upgrader
}

// NewServer constructs a dashboard server when the dashboard feature is enabled.
// When the dashboard is disabled the returned server will be nil.
func NewServer(cfg config.DashboardConfig, log *logger.Log, market Market) (*Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	cfg.Address = normalizeAddress(cfg.Address)

	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Second
	}

	if cfg.LogHistory <= 0 {
		cfg.LogHistory = 200
	}

	if cfg.MetricsHistory <= 0 {
		cfg.MetricsHistory = 200
	}

	metricStore := newMetricStore(cfg.MetricsHistory)
	handlerID := metrics.RegisterMetricHandler(metricStore.record)

	logStore := newLogStore(cfg.LogHistory)
	log.AddHook(logStore)

	return &Server{
		cfg:               cfg,
		log:               log,
		market:            market,
		metricStore:       metricStore,
		logStore:          logStore,
		metricHandler:     handlerID,
		refreshIntervalMs: int(cfg.RefreshInterval / time.Millisecond),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboard is served on a trusted network; same-origin
			// enforcement is left to the deployment.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Run starts the dashboard HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context, appName string) error {
	if s == nil {
		return nil
	}

	defer s.cleanup()

	router, err := s.buildRouter(ctx, appName)
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

func (s *Server) cleanup() {
	metrics.UnregisterMetricHandler(s.metricHandler)
	if s.logStore != nil {
		s.logStore.close()
	}
}

// Address reports the network address the dashboard server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter(ctx context.Context, appName string) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	tmpl := template.Must(template.New("dashboard").ParseFS(embeddedFS, "templates/index.tmpl"))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.tmpl", gin.H{
			"AppName":           appName,
			"RefreshIntervalMs": s.refreshIntervalMs,
		})
	})

	router.GET("/api/instruments", s.handleInstruments)
	router.GET("/api/summary", s.handleSummary)
	router.GET("/api/flows", s.handleFlows)
	router.GET("/api/flows/:symbol", s.handleInstrumentFlow)
	router.GET("/api/analysis", s.handleAnalysis)
	router.GET("/ws", func(c *gin.Context) { s.handleStream(ctx, c) })

	router.GET("/api/logs", func(c *gin.Context) {
		logsSnapshot := s.logStore.snapshot()
		payload := make([]gin.H, 0, len(logsSnapshot))
		for _, l := range logsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": l.Timestamp.Format(time.RFC3339Nano),
				"level":     l.Level,
				"component": l.Component,
				"message":   l.Message,
				"fields":    l.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"logs": payload})
	})

	router.GET("/api/metrics", func(c *gin.Context) {
		metricsSnapshot := s.metricStore.snapshot()
		payload := make([]gin.H, 0, len(metricsSnapshot))
		for _, m := range metricsSnapshot {
			payload = append(payload, gin.H{
				"timestamp": m.Timestamp.Format(time.RFC3339Nano),
				"component": m.Component,
				"name":      m.Name,
				"value":     m.Value,
				"type":      m.Type,
				"fields":    m.Fields,
			})
		}
		c.JSON(http.StatusOK, gin.H{"metrics": payload})
	})

	return router, nil
}

func (s *Server) handleInstruments(c *gin.Context) {
	filter := view.Parse(c.Query("filter"))
	instruments := s.market.Project(filter, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"instruments": instruments,
		"filter":      filter,
		"marketOpen":  s.market.MarketOpen(),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	snap := s.market.Snapshot()
	advances, declines := view.Breadth(snap)

	payload := gin.H{
		"marketOpen": s.market.MarketOpen(),
		"advances":   advances,
		"declines":   declines,
	}
	if top, ok := view.TopGainer(snap); ok {
		payload["topGainer"] = top
	}
	if bottom, ok := view.TopLoser(snap); ok {
		payload["topLoser"] = bottom
	}
	if leader, ok := view.VolumeLeader(snap); ok {
		payload["volumeLeader"] = leader
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleFlows(c *gin.Context) {
	c.JSON(http.StatusOK, s.market.MarketFlow())
}

func (s *Server) handleInstrumentFlow(c *gin.Context) {
	symbol := c.Param("symbol")
	flow, ok := s.market.InstrumentFlow(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol", "symbol": symbol})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": strings.ToUpper(symbol), "flow": flow})
}

func (s *Server) handleAnalysis(c *gin.Context) {
	if c.Query("refresh") == "1" {
		c.JSON(http.StatusOK, s.market.Analyze(c.Request.Context()))
		return
	}
	c.JSON(http.StatusOK, s.market.Analysis())
}

// handleStream upgrades to a websocket and pushes instrument snapshots
// on the dashboard refresh interval until the peer or the app goes away.
func (s *Server) handleStream(ctx context.Context, c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithComponent("dashboard").WithError(err).Warn("websocket upgrade failed")
		return
	}
	log := s.log.WithComponent("dashboard").WithFields(logger.Fields{"remote": conn.RemoteAddr().String()})
	log.Info("websocket client connected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		conn.Close()
		log.Info("websocket client disconnected")
	}()

	interval := s.cfg.RefreshInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.writeSnapshot(conn); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), deadline)
			return
		case <-closed:
			return
		case <-ticker.C:
			if err := s.writeSnapshot(conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) error {
	snap := s.market.Snapshot()
	advances, declines := view.Breadth(snap)
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(gin.H{
		"type":        "snapshot",
		"instruments": snap,
		"marketOpen":  s.market.MarketOpen(),
		"advances":    advances,
		"declines":    declines,
	})
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8880"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8880"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8880")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8880")
	}

	return addr
}
