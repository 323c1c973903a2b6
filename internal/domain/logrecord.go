package domain

// EventKind is the stable enumeration of log-record event kinds.
type EventKind string

const (
	EventBeaconSent       EventKind = "beacon-sent"
	EventPacketTx         EventKind = "packet-tx"
	EventPacketRx         EventKind = "packet-rx"
	EventPacketDropReason EventKind = "packet-drop-reason"
	EventEnergyConsumed   EventKind = "energy-consumed"
	EventImageTaken       EventKind = "image-taken"
	EventPassStart        EventKind = "pass-start"
	EventPassEnd          EventKind = "pass-end"
	EventComputeEnqueued  EventKind = "compute-enqueued"
	EventComputeCompleted EventKind = "compute-completed"
)

// LogRecord is the line-oriented log record shape:
// (simulated_timestamp, node_id, level, event_kind, payload).
type LogRecord struct {
	SimTime   float64 // seconds since simulation epoch 0 (t_start)
	NodeID    int
	Level     LogLevel
	EventKind EventKind
	Payload   map[string]any
}
