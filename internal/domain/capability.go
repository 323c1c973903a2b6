// Package domain holds the simulator's pure data model: scenario/topology/
// node/model shapes, capability tags, dependency expressions, structured
// errors, and the log record schema. No infrastructure dependency; nothing
// here touches a file, a socket, or a clock.
package domain

// CapabilityTag is the coarse categorical label a model advertises so
// siblings can discover it without naming a concrete class.
type CapabilityTag string

const (
	TagOrbital       CapabilityTag = "ORBITAL"
	TagPower         CapabilityTag = "POWER"
	TagCompute       CapabilityTag = "COMPUTE"
	TagMAC           CapabilityTag = "MAC"
	TagScheduler     CapabilityTag = "SCHEDULER"
	TagDatastore     CapabilityTag = "DATASTORE"
	TagDataGenerator CapabilityTag = "DATAGENERATOR"
	TagViewOfNode    CapabilityTag = "VIEWOFNODE"
	TagBasicLoRa     CapabilityTag = "BASICLORARADIO"
	TagImagingRadio  CapabilityTag = "IMAGINGRADIO"
	TagISL           CapabilityTag = "ISL"
	TagADACS         CapabilityTag = "ADACS"
	TagImaging       CapabilityTag = "IMAGING"
	TagDatastoreRelay CapabilityTag = "DATASTORE-relay"
)

// NodeKind is the coarse owner-class filter used by model registration.
type NodeKind string

const (
	NodeSAT       NodeKind = "SAT"
	NodeGS        NodeKind = "GS"
	NodeIOTDevice NodeKind = "IOTDEVICE"
)

// DependencyExpr is a dependency expression in conjunctive normal form: an
// AND of OR-clauses over sibling model class names. Every clause must be
// satisfied by at least one sibling model in the owning node.
type DependencyExpr struct {
	Clauses [][]string
}

// Satisfied reports whether every clause has at least one class name present
// in the given set of sibling class names.
func (d DependencyExpr) Satisfied(siblingClasses map[string]bool) (bool, []string) {
	for _, clause := range d.Clauses {
		ok := false
		for _, name := range clause {
			if siblingClasses[name] {
				ok = true
				break
			}
		}
		if !ok {
			return false, clause
		}
	}
	return true, nil
}

// LogLevel is the scenario-schema loglevel enumeration.
type LogLevel string

const (
	LevelError LogLevel = "error"
	LevelWarn  LogLevel = "warn"
	LevelInfo  LogLevel = "info"
	LevelDebug LogLevel = "debug"
	LevelLogic LogLevel = "logic"
	LevelAll   LogLevel = "all"
)

// rank orders levels from least to most verbose for threshold comparisons.
var levelRank = map[LogLevel]int{
	LevelError: 0,
	LevelWarn:  1,
	LevelInfo:  2,
	LevelDebug: 3,
	LevelLogic: 4,
	LevelAll:   5,
}

// Enabled reports whether a message at level `msg` should be emitted for a
// node configured at level `floor`.
func (floor LogLevel) Enabled(msg LogLevel) bool {
	fr, ok := levelRank[floor]
	if !ok {
		fr = levelRank[LevelInfo]
	}
	mr, ok := levelRank[msg]
	if !ok {
		mr = levelRank[LevelInfo]
	}
	return mr <= fr
}
