package macqueue

import (
	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// DatastoreModel is the DATASTORE capability model: an AckableStore exposed
// through the dynamic Invoke surface so sibling MAC models can peek,
// acknowledge, and insert packets without this package depending on theirs.
type DatastoreModel struct {
	class string
	owner domain.NodeRef
	store *AckableStore
}

// NewDatastoreModel builds a DatastoreModel.
func NewDatastoreModel(className string) *DatastoreModel {
	return &DatastoreModel{class: className, store: NewAckableStore()}
}

// ClassName implements domain.Model.
func (d *DatastoreModel) ClassName() string { return d.class }

// Tag implements domain.Model.
func (d *DatastoreModel) Tag() domain.CapabilityTag { return domain.TagDatastore }

// SetOwner implements domain.Model.
func (d *DatastoreModel) SetOwner(owner domain.NodeRef) { d.owner = owner }

// Advance implements domain.Model; the datastore is a passive store with no
// per-epoch behavior of its own.
func (d *DatastoreModel) Advance(epochTime float64) error { return nil }

// Store exposes the backing AckableStore directly for same-process,
// same-node callers that prefer typed access over the Invoke surface (e.g.
// this package's own MAC models).
func (d *DatastoreModel) Store() *AckableStore { return d.store }

// Invoke implements domain.Model. Supported operations:
//
//	add_data(id string, payload bytes, source_node int) -> ()
//	get_data()                                           -> (found bool, id, payload, source_node)
//	get_queue()                                          -> (packets list)
//	peek(limit int)                                      -> (packets list)
//	ack(ids []string)                                     -> (removed int)
//	get_queue_size()                                      -> (size int)
func (d *DatastoreModel) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
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
		d.store.Add(domain.Packet{ID: id, Payload: payload, SourceNode: int(source)})
		return domain.Args{}, nil
	case "get_data":
		pkts := d.store.Peek(1)
		if len(pkts) == 0 {
			return domain.Args{"found": domain.BoolValue(false)}, nil
		}
		d.store.Ack([]string{pkts[0].ID})
		return domain.Args{
			"found":       domain.BoolValue(true),
			"id":          domain.StringValue(pkts[0].ID),
			"payload":     {Bytes: pkts[0].Payload},
			"source_node": domain.IntValue(int64(pkts[0].SourceNode)),
		}, nil
	case "get_queue":
		return domain.Args{"packets": domain.ListValue(packetValues(d.store.Peek(0)))}, nil
	case "peek":
		limit := int(args.OptionalInt("limit", 0))
		return domain.Args{"packets": domain.ListValue(packetValues(d.store.Peek(limit)))}, nil
	case "ack":
		var ids []string
		if v, ok := args["ids"]; ok {
			ids = v.Strs
		}
		removed := d.store.Ack(ids)
		return domain.Args{"removed": domain.IntValue(int64(removed))}, nil
	case "get_queue_size":
		return domain.Args{"size": domain.IntValue(int64(d.store.Size()))}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

// packetValues encodes packets into the wire shape the Invoke surface uses
// everywhere a packet list crosses a model boundary.
func packetValues(pkts []domain.Packet) []domain.Value {
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

// NewDatastoreFactory returns a registry.ModelFactory for DATASTORE. The
// model spec carries no configuration of its own; every DatastoreModel
// starts empty.
func NewDatastoreFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		return NewDatastoreModel(modelSpec.IName), nil
	}
}
