package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"helmcam/config"
	"helmcam/httpServer"
	"helmcam/internal/camera"
	"helmcam/internal/encoder"
	"helmcam/internal/metrics"
	"helmcam/internal/netwatch"
	"helmcam/internal/session"
	"helmcam/internal/supervisor"
)

// Set at build time via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"http":    cfg.HTTPAddr,
		"camera":  cfg.CameraDevice,
	}).Info("starting helmcam")

	// Initialize metrics
	m := metrics.New()

	// Initialize camera and bring it up. The supervisor must finish before
	// any session can start; a camera that cannot pass self-test reboots
	// the device instead of serving.
	device := camera.NewV4L2(camera.Config{
		DevicePath:     cfg.CameraDevice,
		FrameWidth:     uint32(cfg.FrameWidth),
		FrameHeight:    uint32(cfg.FrameHeight),
		BufferCount:    cfg.BufferCount,
		PreallocateRAM: cfg.PreallocateRAM,
		CaptureTimeout: cfg.CaptureTimeout,
		Tuning: camera.Tuning{
			Brightness: int32(cfg.Brightness),
			Contrast:   int32(cfg.Contrast),
			Saturation: int32(cfg.Saturation),
		},
	}, log)
	defer device.Close()

	capture := supervisor.New(device, supervisor.RetryPolicy{
		MaxAttempts: cfg.InitMaxAttempts,
		Delay:       cfg.InitRetryDelay,
	}, log, m, supervisor.SystemReboot)
	if err := capture.Start(); err != nil {
		log.WithError(err).Fatal("camera bring-up failed")
	}

	// Bring the network up; no known network visible aborts service start.
	wireless := netwatch.NewNMCli(cfg.WirelessIface)
	network := netwatch.New(
		wireless,
		[]string{cfg.PrimarySSID, cfg.FallbackSSID},
		cfg.NetPollInterval,
		log,
		m,
	)
	if err := network.Connect(); err != nil {
		log.WithError(err).Fatal("network bring-up failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go network.Watch(ctx)

	// Wire the frame pipeline into the HTTP server.
	adapter := encoder.New(device, cfg.JPEGQuality)
	registry := session.NewRegistry()
	srv := httpServer.New(device, adapter, capture, network, registry, m, log, httpServer.BuildInfo{
		Service: "helmcam",
		Version: version,
		Built:   buildTime,
	})

	// No write timeout: the stream response is open-ended by design, a dead
	// peer surfaces as a failed chunk write instead.
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown incomplete")
	}
}
