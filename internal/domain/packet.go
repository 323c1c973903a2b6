package domain

import "time"

// Packet is a unit of data in flight over a radio link. A packet in flight
// at epoch e is delivered or dropped by the end of epoch e.
type Packet struct {
	ID         string
	SourceNode int
	Payload    []byte
	CreatedAt  time.Time
	// Frequency is the band the sender transmitted on; the Link Fabric only
	// considers receivers tuned to the same frequency.
	Frequency float64
}

// Size returns the packet's payload size in bytes.
func (p Packet) Size() int { return len(p.Payload) }
