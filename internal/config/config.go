package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/facegate/internal/constants"
)

type Config struct {
	MQTT      MQTTConfig
	Camera    CameraConfig
	Embedding EmbeddingConfig
	Roster    RosterConfig
	EventLog  EventLogConfig
	Web       WebConfig
	Metrics   MetricsConfig
}

type MQTTConfig struct {
	Broker    string
	Port      int
	ClientID  string
	KeepAlive time.Duration
	Topics    TopicsConfig
}

// BrokerURL returns the paho broker URL, e.g. tcp://192.168.137.1:1883
func (c *MQTTConfig) BrokerURL() string {
	if strings.Contains(c.Broker, "://") {
		return c.Broker
	}
	return "tcp://" + c.Broker + ":" + strconv.Itoa(c.Port)
}

type TopicsConfig struct {
	Alert    string // outbound authorization alerts
	Panic    string // inbound panic button
	Presence string // inbound presence sensor
}

type CameraConfig struct {
	Source  string // integer device index or snapshot URL
	Width   int
	Height  int
	MaxSize int // frames are downscaled to fit before recognition
}

// DeviceIndex returns the device index if Source is an integer.
func (c *CameraConfig) DeviceIndex() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Source))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type RosterConfig struct {
	Dir             string
	Tolerance       float64
	Metric          string // euclidean or cosine
	MultiFacePolicy string // last or worst
}

type EventLogConfig struct {
	Path              string // authoritative append-only CSV
	MirrorPath        string // atomically replaced copy read by the dashboard
	ReplicateInterval time.Duration
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS origins besides localhost
}

type MetricsConfig struct {
	Addr string // empty disables the metrics listener
}

// envString reads an environment variable, returning defaultVal if unset or blank.
func envString(key, defaultVal string) string {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	return s
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping blank items.
func envList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// envDuration reads an environment variable as a Go duration ("2s", "500ms").
// A bare integer is treated as seconds.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:    envString("MQTT_BROKER", "192.168.137.1"),
			Port:      envInt("MQTT_PORT", constants.DefaultMQTTPort),
			ClientID:  envString("MQTT_CLIENT_ID", "facegate-"+uuid.NewString()[:8]),
			KeepAlive: envDuration("MQTT_KEEPALIVE", 60*time.Second),
			Topics: TopicsConfig{
				Alert:    envString("MQTT_TOPIC_ALERT", "factory/alert"),
				Panic:    envString("MQTT_TOPIC_PANIC", "esp/panic"),
				Presence: envString("MQTT_TOPIC_PRESENCE", "esp/presence"),
			},
		},
		Camera: CameraConfig{
			Source:  envString("CAMERA_SOURCE", "0"),
			Width:   envInt("CAMERA_WIDTH", 640),
			Height:  envInt("CAMERA_HEIGHT", 480),
			MaxSize: envInt("CAMERA_MAX_SIZE", constants.MaxFrameSize),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		Roster: RosterConfig{
			Dir:             envString("ROSTER_DIR", "faces"),
			Tolerance:       envFloat("FACE_TOLERANCE", constants.DefaultTolerance),
			Metric:          strings.ToLower(envString("FACE_DISTANCE_METRIC", constants.DefaultDistanceMetric)),
			MultiFacePolicy: strings.ToLower(envString("FACEGATE_MULTI_FACE_POLICY", "last")),
		},
		EventLog: EventLogConfig{
			Path:              envString("EVENT_LOG_PATH", filepath.Join(os.TempDir(), "events_log.csv")),
			MirrorPath:        envString("EVENT_MIRROR_PATH", "latest_log.csv"),
			ReplicateInterval: envDuration("REPLICATE_INTERVAL", constants.ReplicateInterval),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),

			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Metrics: MetricsConfig{
			Addr: os.Getenv("METRICS_ADDR"),
		},
	}
}
