package controlplane

import (
	"encoding/json"
	"testing"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/kernel"
	"github.com/orbsim/orbsim/internal/orchestrator"
)

type fakeQueueModel struct {
	class string
	size  int64
}

func (m *fakeQueueModel) ClassName() string         { return m.class }
func (m *fakeQueueModel) Tag() domain.CapabilityTag { return domain.TagCompute }
func (m *fakeQueueModel) SetOwner(domain.NodeRef)   {}
func (m *fakeQueueModel) Advance(float64) error      { return nil }
func (m *fakeQueueModel) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "get_queue_size":
		return domain.Args{"size": domain.IntValue(m.size)}, nil
	case "echo":
		v, ierr := args.RequireString(op, "msg")
		if ierr != nil {
			return nil, ierr
		}
		return domain.Args{"msg": domain.StringValue(v)}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op}
	}
}

func buildResult(models ...domain.Model) *orchestrator.Result {
	node := kernel.NewNode(kernel.Config{ID: 7, Kind: domain.NodeSAT, LogLevel: domain.LevelInfo}, models, []int{0})
	return &orchestrator.Result{
		Topologies: []orchestrator.Topology{{Name: "t", ID: 1, Nodes: []*kernel.Node{node}}},
		NodesByID:  map[int]*kernel.Node{7: node},
	}
}

func submitAndDrain(t *testing.T, g *Gateway, req map[string]any) Response {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	ch := g.Submit(raw)
	g.Drain(0)
	select {
	case resp := <-ch:
		return resp
	default:
		t.Fatal("Drain did not deliver a response")
		return Response{}
	}
}

func TestGatewayCallDispatchesToNamedModel(t *testing.T) {
	model := &fakeQueueModel{class: "Compute", size: 3}
	g := NewGateway(buildResult(model))

	resp := submitAndDrain(t, g, map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "call",
		"params": map[string]any{"node_id": 7, "model": "Compute", "operation": "get_queue_size"},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var result struct {
		Size int64 `json:"size"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Size != 3 {
		t.Errorf("size = %d, want 3", result.Size)
	}
}

func TestGatewayCallUnknownNodeReturnsInvalidParams(t *testing.T) {
	g := NewGateway(buildResult(&fakeQueueModel{class: "Compute"}))
	resp := submitAndDrain(t, g, map[string]any{
		"jsonrpc": "2.0", "id": 2, "method": "call",
		"params": map[string]any{"node_id": 99, "model": "Compute", "operation": "get_queue_size"},
	})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("expected CodeInvalidParams, got %+v", resp.Error)
	}
}

func TestGatewayCancelSkipsQueuedCall(t *testing.T) {
	g := NewGateway(buildResult(&fakeQueueModel{class: "Compute"}))
	raw, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": 3, "method": "call",
		"params": map[string]any{"node_id": 7, "model": "Compute", "operation": "get_queue_size"},
	})
	ch := g.Submit(raw)
	if !g.Cancel(float64(3)) {
		t.Fatal("expected Cancel to find the queued call")
	}
	g.Drain(0)
	resp := <-ch
	if resp.Error == nil {
		t.Fatal("expected cancelled call to resolve with an error response")
	}
}

func TestGatewaySnapshotReportsModelState(t *testing.T) {
	g := NewGateway(buildResult(&fakeQueueModel{class: "Compute", size: 2}))
	resp := submitAndDrain(t, g, map[string]any{"jsonrpc": "2.0", "id": 4, "method": "snapshot"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	var result SnapshotResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(result.Nodes) != 1 || result.Nodes[0].NodeID != 7 {
		t.Fatalf("unexpected snapshot nodes: %+v", result.Nodes)
	}
	if state, ok := result.Nodes[0].Models["Compute"]; !ok || state["size"].(float64) != 2 {
		t.Errorf("expected Compute model state size=2, got %+v", result.Nodes[0].Models)
	}
}
