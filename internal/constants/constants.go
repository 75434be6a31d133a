// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// DefaultTolerance is the maximum distance between a detected face and a
	// reference encoding for the face to count as a match.
	// Lower values = stricter matching
	DefaultTolerance = 0.45

	// DefaultDistanceMetric is used when FACE_DISTANCE_METRIC is unset
	DefaultDistanceMetric = "euclidean"
)

// Event state machine constants
const (
	// DebounceWindow is the minimum time between two recorded state transitions
	DebounceWindow = 1 * time.Second

	// IdlePollInterval is how often the monitor re-checks presence while idle
	IdlePollInterval = 100 * time.Millisecond

	// FrameWaitTimeout bounds how long the monitor waits for the next frame
	FrameWaitTimeout = 1 * time.Second
)

// Alert payload constants
const (
	// AlertTypeAuthorized is the "type" field of outbound authorization alerts
	AlertTypeAuthorized = "AI_AUTH_OK"

	// EventTypeAI is the event_type of state machine records in the durable log
	EventTypeAI = "ai_event"

	// EventTypePanic is the event_type of panic records in the durable log
	EventTypePanic = "panic"

	// TimestampLayout is ISO-8601 with seconds precision, no zone (local time)
	TimestampLayout = "2006-01-02T15:04:05"
)

// Presence markers matched as substrings of presence payloads
const (
	PresenceEnterMarker = "enter"
	PresenceLeaveMarker = "leave"
)

// Log replication constants
const (
	// ReplicateInterval is the default period between mirror copies
	ReplicateInterval = 2 * time.Second
)

// Frame source constants
const (
	// FetchTimeout is the HTTP timeout for a single remote snapshot
	FetchTimeout = 1 * time.Second

	// FetchBackoff is the pause after a failed remote snapshot fetch
	FetchBackoff = 50 * time.Millisecond

	// DeviceWaitTimeout is the V4L2 frame wait timeout in seconds
	DeviceWaitTimeout = 1

	// MaxFrameSize is the maximum width or height of a frame sent for recognition
	MaxFrameSize = 960
)

// MQTT constants
const (
	// DefaultMQTTPort is the plain TCP MQTT port
	DefaultMQTTPort = 1883

	// PublishTimeout bounds how long a publish waits for its token
	PublishTimeout = 2 * time.Second

	// ConnectTimeout bounds the initial broker connection attempt
	ConnectTimeout = 5 * time.Second

	// DisconnectQuiesce is the grace period in milliseconds for in-flight work on disconnect
	DisconnectQuiesce = 250
)
