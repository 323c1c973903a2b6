package imaging

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/macqueue"
	"github.com/orbsim/orbsim/internal/registry"
)

// RelayStore is the DATASTORE-relay capability model: the same ackable,
// non-destructive-peek store backing the TT&C downlink datastore,
// repurposed as the captured-image buffer an Imaging model fills and a
// downlink radio/MAC drains. Kept as a distinct capability tag rather than
// reusing TagDatastore so a node can carry both an onboard-telemetry
// datastore and an image relay without sibling tag lookups conflating the
// two.
type RelayStore struct {
	class string
	owner domain.NodeRef
	store *macqueue.AckableStore
}

// NewRelayStore builds an empty DATASTORE-relay model.
func NewRelayStore(className string) *RelayStore {
	return &RelayStore{class: className, store: macqueue.NewAckableStore()}
}

// ClassName implements domain.Model.
func (r *RelayStore) ClassName() string { return r.class }

// Tag implements domain.Model.
func (r *RelayStore) Tag() domain.CapabilityTag { return domain.TagDatastoreRelay }

// SetOwner implements domain.Model.
func (r *RelayStore) SetOwner(owner domain.NodeRef) { r.owner = owner }

// Advance implements domain.Model; the relay is a passive store with no
// per-epoch behavior of its own.
func (r *RelayStore) Advance(epochTime float64) error { return nil }

// Store exposes the backing AckableStore for same-node callers (the
// Imaging model filling it, a downlink MAC draining it) that prefer typed
// access over the Invoke surface.
func (r *RelayStore) Store() *macqueue.AckableStore { return r.store }

// Invoke implements domain.Model. Supported operations mirror
// macqueue.DatastoreModel's surface:
//
//	add_data(id string, payload bytes, source_node int) -> ()
//	get_data()                                           -> (found bool, id, payload, source_node)
//	get_queue()                                          -> (packets list)
//	peek(limit int)                                      -> (packets list)
//	ack(ids []string)                                     -> (removed int)
//	get_queue_size()                                      -> (size int)
func (r *RelayStore) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "add_data":
		id, ierr := args.RequireString(op, "id")
		if ierr != nil {
			return nil, ierr
		}
		var payload []byte
		if v, ok := args["payload"]; ok {
			payload = v.Bytes
		}
		source := args.OptionalInt("source_node", 0)
		r.store.Add(domain.Packet{ID: id, Payload: payload, SourceNode: int(source)})
		return domain.Args{}, nil
	case "get_data":
		pkts := r.store.Peek(1)
		if len(pkts) == 0 {
			return domain.Args{"found": domain.BoolValue(false)}, nil
		}
		r.store.Ack([]string{pkts[0].ID})
		return domain.Args{
			"found":       domain.BoolValue(true),
			"id":          domain.StringValue(pkts[0].ID),
			"payload":     {Bytes: pkts[0].Payload},
			"source_node": domain.IntValue(int64(pkts[0].SourceNode)),
		}, nil
	case "get_queue":
		return domain.Args{"packets": domain.ListValue(relayPacketValues(r.store.Peek(0)))}, nil
	case "peek":
		limit := int(args.OptionalInt("limit", 0))
		return domain.Args{"packets": domain.ListValue(relayPacketValues(r.store.Peek(limit)))}, nil
	case "ack":
		var ids []string
		if v, ok := args["ids"]; ok {
			ids = v.Strs
		}
		removed := r.store.Ack(ids)
		return domain.Args{"removed": domain.IntValue(int64(removed))}, nil
	case "get_queue_size":
		return domain.Args{"size": domain.IntValue(int64(r.store.Size()))}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

func relayPacketValues(pkts []domain.Packet) []domain.Value {
	items := make([]domain.Value, 0, len(pkts))
	for _, p := range pkts {
		items = append(items, domain.NestedValue(map[string]domain.Value{
			"id":          domain.StringValue(p.ID),
			"payload":     {Bytes: p.Payload},
			"source_node": domain.IntValue(int64(p.SourceNode)),
		}))
	}
	return items
}

// NewRelayFactory returns a registry.ModelFactory for DATASTORE-relay. The
// model spec carries no configuration of its own.
func NewRelayFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		return NewRelayStore(modelSpec.IName), nil
	}
}
