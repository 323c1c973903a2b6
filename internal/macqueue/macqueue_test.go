package macqueue

import (
	"testing"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
)

func TestQueueAddGetRoundTrip(t *testing.T) {
	q := New(2, nil)
	if !q.AddData(domain.Packet{ID: "a"}) {
		t.Fatal("expected first add to succeed")
	}
	if !q.AddData(domain.Packet{ID: "b"}) {
		t.Fatal("expected second add to succeed")
	}
	var dropped []domain.Packet
	q2 := New(1, func(reason string, pkt domain.Packet) { dropped = append(dropped, pkt) })
	q2.AddData(domain.Packet{ID: "x"})
	if q2.AddData(domain.Packet{ID: "y"}) {
		t.Fatal("expected add over capacity to fail")
	}
	if len(dropped) != 1 || dropped[0].ID != "y" {
		t.Errorf("onDrop callback = %v, want one packet y", dropped)
	}

	if q.GetQueueSize() != 2 {
		t.Fatalf("size = %d, want 2", q.GetQueueSize())
	}
	first, ok := q.GetData()
	if !ok || first.ID != "a" {
		t.Errorf("GetData = %+v, want packet a (FIFO order)", first)
	}
	if q.GetQueueSize() != 1 {
		t.Errorf("size after one GetData = %d, want 1", q.GetQueueSize())
	}
}

func TestQueueGetDataEmpty(t *testing.T) {
	q := New(0, nil)
	if _, ok := q.GetData(); ok {
		t.Error("expected GetData on empty queue to return false")
	}
}

func TestGeneratorStopIsIdempotentAndStopsArrivals(t *testing.T) {
	gen := NewGenerator(Config{
		ClassName: "IoTGenerator", LambdaHz: 1000, PayloadSize: 8,
		DeltaSec: 1, StartWall: time.Now(), Seed: 1,
	}, nil)

	if err := gen.Advance(0); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if gen.Queue().GetQueueSize() == 0 {
		t.Fatal("expected at least one arrival with a high-rate generator over one epoch")
	}

	if _, err := gen.Invoke("stop", nil); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Idempotent: calling stop again must not error or change behavior.
	if _, err := gen.Invoke("stop", nil); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	sizeBefore := gen.Queue().GetQueueSize()
	if err := gen.Advance(1); err != nil {
		t.Fatalf("advance after stop: %v", err)
	}
	if gen.Queue().GetQueueSize() != sizeBefore {
		t.Errorf("queue grew after stop: before=%d after=%d", sizeBefore, gen.Queue().GetQueueSize())
	}
}

func TestGeneratorUnknownOperation(t *testing.T) {
	gen := NewGenerator(Config{ClassName: "G", DeltaSec: 1, StartWall: time.Now()}, nil)
	_, ierr := gen.Invoke("bogus", nil)
	if ierr == nil || ierr.Kind != domain.UnknownOperation {
		t.Errorf("expected UnknownOperation, got %v", ierr)
	}
}
