package controlplane

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/kernel"
	"github.com/orbsim/orbsim/internal/metrics"
	"github.com/orbsim/orbsim/internal/orchestrator"
)

// callParams is the params shape for the "call" method: a
// (node_id, model_tag_or_class, operation) tuple plus its operation
// arguments. topology_id is accepted but unused; node ids
// are unique scenario-wide, so the tuple's real addressing power is node_id
// plus the model selector.
type callParams struct {
	TopologyID      int            `json:"topology_id"`
	NodeID          int            `json:"node_id"`
	ModelTagOrClass string         `json:"model"`
	Operation       string         `json:"operation"`
	Args            map[string]any `json:"args"`
}

// queuedCall is one pending request awaiting the next epoch boundary.
type queuedCall struct {
	req        Request
	done       chan Response
	cancelled  bool
}

// Gateway is the runtime control plane: it accepts JSON-RPC style calls from
// any number of producer goroutines (external HTTP callers, in-process
// test harnesses) and executes them against the live node graph only when
// the Manager calls Drain at an epoch boundary, so a runtime API call never
// runs concurrently with a node's own Advance.
type Gateway struct {
	result *orchestrator.Result

	mu      sync.Mutex
	pending []*queuedCall
	byID    map[any]*queuedCall
}

// NewGateway builds a Gateway bound to the live node graph produced by
// orchestrator.Build.
func NewGateway(result *orchestrator.Result) *Gateway {
	return &Gateway{result: result, byID: map[any]*queuedCall{}}
}

// Submit enqueues a raw JSON-RPC request and returns a channel that
// receives exactly one Response once Drain next runs: a one-shot completion
// handle for cross-goroutine call delivery. A malformed request
// short-circuits: the channel already holds its error response.
func (g *Gateway) Submit(raw []byte) <-chan Response {
	req, errResp := parseRequest(raw)
	done := make(chan Response, 1)
	if errResp != nil {
		done <- *errResp
		close(done)
		return done
	}

	qc := &queuedCall{req: req, done: done}
	g.mu.Lock()
	g.pending = append(g.pending, qc)
	if req.ID != nil {
		g.byID[req.ID] = qc
	}
	g.mu.Unlock()
	return done
}

// Cancel marks a still-queued request, identified by its JSON-RPC id, as
// cancelled; Drain skips it and delivers CodeInternalError in its place
// rather than dispatching a stale call.
func (g *Gateway) Cancel(id any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	qc, ok := g.byID[id]
	if !ok {
		return false
	}
	qc.cancelled = true
	return true
}

// Drain executes every call queued since the last Drain, in submission
// order, against the node graph at the given simulated epoch time. Intended
// to be called by the Manager at each epoch boundary, once every topology
// has finished Advance for that epoch.
func (g *Gateway) Drain(epochTime float64) {
	g.mu.Lock()
	batch := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, qc := range batch {
		g.mu.Lock()
		delete(g.byID, qc.req.ID)
		g.mu.Unlock()

		if qc.cancelled {
			qc.done <- newInternalError(qc.req.ID, "call cancelled before dispatch")
			close(qc.done)
			continue
		}
		resp := g.dispatch(qc.req, epochTime)
		qc.done <- resp
		close(qc.done)
	}
}

// dispatch routes one request to its handler.
func (g *Gateway) dispatch(req Request, epochTime float64) Response {
	var resp Response
	switch req.Method {
	case "ping":
		resp, _ = newResult(req.ID, map[string]string{"status": "ok"})
	case "call":
		resp = g.handleCall(req)
	case "snapshot":
		resp, _ = newResult(req.ID, g.Snapshot(epochTime))
	default:
		resp = newMethodNotFound(req.ID, req.Method)
	}
	outcome := "ok"
	if resp.Error != nil {
		outcome = "error"
	}
	metrics.ControlPlaneCalls.WithLabelValues(req.Method, outcome).Inc()
	return resp
}

func (g *Gateway) handleCall(req Request) Response {
	var params callParams
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return newInvalidParams(req.ID, "malformed call params: "+err.Error())
		}
	}
	node, ok := g.result.NodesByID[params.NodeID]
	if !ok {
		return newInvalidParams(req.ID, fmt.Sprintf("unknown node_id %d", params.NodeID))
	}
	model, ok := node.HasModelByClass(params.ModelTagOrClass)
	if !ok {
		model, ok = node.HasModelByTag(domain.CapabilityTag(params.ModelTagOrClass))
	}
	if !ok {
		return newInvalidParams(req.ID, fmt.Sprintf("node %d has no model %q", params.NodeID, params.ModelTagOrClass))
	}

	args := toDomainArgs(params.Args)
	result, ierr := model.Invoke(params.Operation, args)
	if ierr != nil {
		data, _ := json.Marshal(ierr)
		return Response{JSONRPC: JSONRPCVersion, ID: req.ID, Error: &RPCError{
			Code: CodeInvalidParams, Message: ierr.Error(), Data: data,
		}}
	}
	resp, err := newResult(req.ID, fromDomainArgs(result))
	if err != nil {
		return newInternalError(req.ID, err.Error())
	}
	return resp
}

// SnapshotNode is one node's point-in-time resident-model state summary.
type SnapshotNode struct {
	NodeID int                       `json:"node_id"`
	Models map[string]map[string]any `json:"models"`
}

// SnapshotResult is the Snapshot() operation's return shape: every node's
// resident model state, queried via whichever introspection operation each
// model class exposes (get_queue_size, get_capacity_joules, and so on),
// with no bespoke per-model plumbing in the control plane itself.
type SnapshotResult struct {
	EpochTime float64        `json:"epoch_time"`
	Nodes     []SnapshotNode `json:"nodes"`
}

// introspectionOps are invoked, best-effort, against every resident model:
// unsupported operations simply contribute nothing to that model's entry.
var introspectionOps = []string{"get_queue_size", "get_capacity_joules", "poll_completed"}

// Snapshot returns a summary of every node's resident model state as of the
// given epoch boundary.
func (g *Gateway) Snapshot(epochTime float64) SnapshotResult {
	out := SnapshotResult{EpochTime: epochTime}
	for _, node := range allNodesSorted(g.result) {
		sn := SnapshotNode{NodeID: node.ID(), Models: map[string]map[string]any{}}
		for _, m := range node.Models() {
			state := map[string]any{}
			for _, op := range introspectionOps {
				res, ierr := m.Invoke(op, domain.Args{})
				if ierr != nil {
					continue
				}
				for k, v := range res {
					state[k] = v.Native()
				}
			}
			if len(state) > 0 {
				sn.Models[m.ClassName()] = state
			}
		}
		out.Nodes = append(out.Nodes, sn)
	}
	return out
}

func allNodesSorted(result *orchestrator.Result) []*kernel.Node {
	out := make([]*kernel.Node, 0, len(result.NodesByID))
	for _, n := range result.NodesByID {
		out = append(out, n)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ID() > out[j].ID(); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func toDomainArgs(m map[string]any) domain.Args {
	args := domain.Args{}
	for k, v := range m {
		args[k] = nativeToValue(v)
	}
	return args
}

// nativeToValue converts a JSON-decoded call argument into a domain.Value.
// encoding/json decodes every bare JSON number as float64, so a whole-valued
// number is tagged as both Int and Float; whichever the target operation's
// Require{Int,Float} expects, it finds a populated field.
func nativeToValue(v any) domain.Value {
	switch t := v.(type) {
	case string:
		return domain.StringValue(t)
	case float64:
		val := domain.FloatValue(t)
		if t == float64(int64(t)) {
			i := int64(t)
			val.Int = &i
		}
		return val
	case bool:
		return domain.BoolValue(t)
	case []byte:
		return domain.Value{Bytes: t}
	default:
		return domain.Value{}
	}
}

func fromDomainArgs(args domain.Args) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v.Native()
	}
	return out
}
