package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration. Set once at startup, never
// mutated at runtime.
type Config struct {
	// HTTP Server
	HTTPAddr string

	// Camera
	CameraDevice   string
	FrameWidth     int
	FrameHeight    int
	JPEGQuality    int
	BufferCount    int
	PreallocateRAM bool
	CaptureTimeout time.Duration

	// Sensor tuning, applied post-init
	Brightness int
	Contrast   int
	Saturation int

	// Camera bring-up retry
	InitMaxAttempts int
	InitRetryDelay  time.Duration

	// Network
	WirelessIface   string
	PrimarySSID     string
	FallbackSSID    string
	NetPollInterval time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		CameraDevice:    getEnv("CAMERA_DEVICE", "/dev/video0"),
		FrameWidth:      getIntEnv("FRAME_WIDTH", 800),
		FrameHeight:     getIntEnv("FRAME_HEIGHT", 600),
		JPEGQuality:     getIntEnv("JPEG_QUALITY", 80),
		BufferCount:     getIntEnv("BUFFER_COUNT", 2),
		PreallocateRAM:  getBoolEnv("PREALLOCATE_RAM", true),
		CaptureTimeout:  getDurationEnv("CAPTURE_TIMEOUT", 2*time.Second),
		Brightness:      getIntEnv("SENSOR_BRIGHTNESS", 128),
		Contrast:        getIntEnv("SENSOR_CONTRAST", 128),
		Saturation:      getIntEnv("SENSOR_SATURATION", 128),
		InitMaxAttempts: getIntEnv("INIT_MAX_ATTEMPTS", 3),
		InitRetryDelay:  getDurationEnv("INIT_RETRY_DELAY", 2*time.Second),
		WirelessIface:   getEnv("WIRELESS_IFACE", "wlan0"),
		PrimarySSID:     getEnv("PRIMARY_SSID", "boat-net"),
		FallbackSSID:    getEnv("FALLBACK_SSID", "marina-guest"),
		NetPollInterval: getDurationEnv("NET_POLL_INTERVAL", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions to get environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
