package httpServer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"helmcam/internal/camera"
	"helmcam/internal/metrics"
	"helmcam/internal/mjpeg"
	"helmcam/internal/session"
	"helmcam/pkg/models"
)

// BuildInfo identifies the firmware build in status responses.
type BuildInfo struct {
	Service string
	Version string
	Built   string
}

// CaptureStatus is the read-only view of the capture supervisor. The
// supervisor finishes before the server starts, so these reads never race a
// state transition.
type CaptureStatus interface {
	State() models.CaptureState
	Health() string
}

// NetworkStatus is the read-only view of the network supervisor.
type NetworkStatus interface {
	State() models.NetworkState
}

// Server wraps the HTTP server with dependencies
type Server struct {
	router   *gin.Engine
	source   camera.FrameSource
	encoder  session.FrameEncoder
	capture  CaptureStatus
	network  NetworkStatus
	registry *session.Registry
	metrics  *metrics.Metrics
	log      *logrus.Logger
	build    BuildInfo
	started  time.Time
}

// New creates a new HTTP server
func New(
	source camera.FrameSource,
	encoder session.FrameEncoder,
	capture CaptureStatus,
	network NetworkStatus,
	registry *session.Registry,
	m *metrics.Metrics,
	log *logrus.Logger,
	build BuildInfo,
) *Server {
	s := &Server{
		source:   source,
		encoder:  encoder,
		capture:  capture,
		network:  network,
		registry: registry,
		metrics:  m,
		log:      log,
		build:    build,
		started:  time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/stream", s.handleStream)
	router.OPTIONS("/stream", s.handleStreamPreflight)
	router.GET("/still", s.handleStill)
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.GET("/api/ping", s.handlePing)

	s.router = router
}

// Handler exposes the router for serving and for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Handler implementations

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"time":    time.Now().Unix(),
	})
}

// corsHeaders are served on the stream endpoint and its preflight; the
// viewer app is served from a different origin.
func corsHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
}

func noCacheHeaders(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

func (s *Server) handleStreamPreflight(c *gin.Context) {
	corsHeaders(c)
	c.Status(http.StatusOK)
}

func (s *Server) handleStream(c *gin.Context) {
	if s.capture.State() != models.CaptureVerified {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "camera not verified"})
		return
	}

	writer, err := mjpeg.NewHTTPChunkWriter(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	corsHeaders(c)
	noCacheHeaders(c)
	c.Header("Content-Type", mjpeg.ContentType)
	c.Writer.WriteHeader(http.StatusOK)

	sess := models.NewStreamSession(uuid.NewString(), c.ClientIP())
	s.registry.Add(sess)
	s.metrics.RecordSessionStart()
	defer func() {
		s.registry.Remove(sess)
		s.metrics.RecordSessionStop()
	}()

	s.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"client":  sess.RemoteAddr,
	}).Info("stream session started")

	// Per-session failures end the session and are otherwise absorbed; the
	// client reconnects with a fresh request.
	loop := session.NewLoop(sess, s.source, s.encoder, mjpeg.NewEncoder(writer), s.log, s.metrics)
	loop.Run()
}

func (s *Server) handleStill(c *gin.Context) {
	fb, err := s.source.Acquire()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	jfb, err := s.encoder.Encode(fb)
	if err != nil {
		// The encoder released the raw input before reporting.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	noCacheHeaders(c)
	c.Header("Content-Disposition", "inline; filename=frame.jpg")
	c.Data(http.StatusOK, "image/jpeg", jfb.Data)

	s.source.Release(jfb)
	s.metrics.RecordStillServed()
}

func (s *Server) handleStatus(c *gin.Context) {
	net := s.network.State()
	sessions, frames, bytes := s.registry.Totals()

	status := http.StatusOK
	if s.capture.State() == models.CaptureFailedFatal {
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"service":         s.build.Service,
		"version":         s.build.Version,
		"built":           s.build.Built,
		"uptime_seconds":  int(time.Since(s.started).Seconds()),
		"camera":          s.capture.Health(),
		"capture_state":   string(s.capture.State()),
		"ssid":            net.Current.SSID,
		"ip_address":      net.Current.IPAddress,
		"rssi":            net.Current.RSSI,
		"active_sessions": s.registry.ActiveCount(),
		"sessions_total":  sessions,
		"frames_sent":     frames,
		"bytes_sent":      bytes,
	})
}
