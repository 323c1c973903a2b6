package kernel

import (
	"reflect"
	"testing"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
)

func TestKahnToposortRespectsDependenciesAndDeclarationOrder(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		before  map[string][]string
		want    []string
		cyclic  bool
	}{
		{
			name:    "no dependencies keeps declaration order",
			classes: []string{"C", "A", "B"},
			before:  map[string][]string{},
			want:    []string{"C", "A", "B"},
		},
		{
			name:    "single chain",
			classes: []string{"Power", "Radio", "MAC"},
			before:  map[string][]string{"Radio": {"Power"}, "MAC": {"Radio"}},
			want:    []string{"Power", "Radio", "MAC"},
		},
		{
			name:    "independent deps tie-broken by declaration order",
			classes: []string{"B", "A", "Dep"},
			before:  map[string][]string{"A": {"Dep"}, "B": {"Dep"}},
			want:    []string{"Dep", "B", "A"},
		},
		{
			name:    "cycle detected",
			classes: []string{"A", "B"},
			before:  map[string][]string{"A": {"B"}, "B": {"A"}},
			cyclic:  true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order, cycle := KahnToposort(tc.classes, tc.before)
			if tc.cyclic {
				if len(cycle) == 0 {
					t.Fatalf("expected cycle, got order %v", order)
				}
				return
			}
			if !reflect.DeepEqual(order, tc.want) {
				t.Errorf("order = %v, want %v", order, tc.want)
			}
		})
	}
}

type stubModel struct {
	class string
	tag   domain.CapabilityTag
	owner domain.NodeRef
	calls *[]string
}

func (s *stubModel) ClassName() string          { return s.class }
func (s *stubModel) Tag() domain.CapabilityTag  { return s.tag }
func (s *stubModel) SetOwner(o domain.NodeRef)  { s.owner = o }
func (s *stubModel) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op}
}
func (s *stubModel) Advance(epochTime float64) error {
	*s.calls = append(*s.calls, s.class)
	return nil
}

func TestNodeAdvanceRunsModelsInOrder(t *testing.T) {
	var calls []string
	power := &stubModel{class: "Power", tag: domain.TagPower, calls: &calls}
	radio := &stubModel{class: "Radio", tag: domain.TagBasicLoRa, calls: &calls}
	models := []domain.Model{power, radio}

	n := NewNode(Config{ID: 1, Kind: domain.NodeSAT, LogLevel: domain.LevelInfo}, models, []int{0, 1})
	if err := n.Advance(10); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !reflect.DeepEqual(calls, []string{"Power", "Radio"}) {
		t.Errorf("call order = %v, want [Power Radio]", calls)
	}
	if n.Now() != 10 {
		t.Errorf("Now() = %v, want 10", n.Now())
	}
	if m, ok := n.HasModelByClass("Power"); !ok || m != power {
		t.Error("HasModelByClass(Power) did not return the registered model")
	}
	if m, ok := n.HasModelByTag(domain.TagBasicLoRa); !ok || m != radio {
		t.Error("HasModelByTag did not return the registered radio")
	}
}

func TestNodeInactiveOutsideTimeWindowSkipsAdvance(t *testing.T) {
	var calls []string
	m := &stubModel{class: "Power", tag: domain.TagPower, calls: &calls}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	start := base.Add(1 * time.Hour)

	n := NewNode(Config{
		ID: 1, Kind: domain.NodeSAT, LogLevel: domain.LevelInfo,
		StartTime: &start, SimEpochWall: base,
	}, []domain.Model{m}, []int{0})

	if err := n.Advance(0); err != nil { // t=0 is before the 1h start offset
		t.Fatalf("advance: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("expected no model Advance calls before start window, got %v", calls)
	}
	if err := n.Advance(3600); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("expected one model Advance call at window start, got %v", calls)
	}
}

func TestNodeLogRespectsLevel(t *testing.T) {
	var got []domain.LogRecord
	n := NewNode(Config{
		ID: 2, Kind: domain.NodeGS, LogLevel: domain.LevelWarn,
		Sink: func(r domain.LogRecord) { got = append(got, r) },
	}, nil, nil)

	n.Log(domain.LevelDebug, domain.EventPacketTx, map[string]any{"x": 1})
	if len(got) != 0 {
		t.Errorf("expected debug record to be filtered at warn level, got %v", got)
	}
	n.Log(domain.LevelError, domain.EventPacketDropReason, map[string]any{"reason": "queue-full"})
	if len(got) != 1 {
		t.Fatalf("expected one error record to pass the warn filter, got %d", len(got))
	}
}
