package macqueue

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/registry"
)

// Generator is the DATAGENERATOR capability model: a Poisson-arrival packet
// source feeding a bounded Queue. Stop is idempotent; once stopped,
// subsequent epochs add zero packets.
type Generator struct {
	class       string
	owner       domain.NodeRef
	queue       *Queue
	lambdaHz    float64 // mean arrivals per second
	payloadSize int
	deltaSec    float64
	startWall   time.Time
	rng         *rand.Rand
	stopped     bool
	nextPacketID uint64
}

// Config carries the generator's construction-time parameters.
type Config struct {
	ClassName   string
	LambdaHz    float64
	PayloadSize int
	Capacity    int
	DeltaSec    float64
	StartWall   time.Time // wall-clock instant corresponding to simulated t=0
	Seed        int64
}

// NewGenerator builds a Poisson data generator with its own bounded Queue.
func NewGenerator(cfg Config, onDrop func(reason string, pkt domain.Packet)) *Generator {
	return &Generator{
		class:       cfg.ClassName,
		queue:       New(cfg.Capacity, onDrop),
		lambdaHz:    cfg.LambdaHz,
		payloadSize: cfg.PayloadSize,
		deltaSec:    cfg.DeltaSec,
		startWall:   cfg.StartWall,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
	}
}

// ClassName implements domain.Model.
func (g *Generator) ClassName() string { return g.class }

// Tag implements domain.Model.
func (g *Generator) Tag() domain.CapabilityTag { return domain.TagDataGenerator }

// SetOwner implements domain.Model.
func (g *Generator) SetOwner(owner domain.NodeRef) { g.owner = owner }

// Advance samples a Poisson-distributed arrival count for this epoch and
// enqueues that many fixed-size packets. A no-op once stopped.
func (g *Generator) Advance(epochTime float64) error {
	if g.stopped {
		return nil
	}
	n := poissonSample(g.rng, g.lambdaHz*g.deltaSec)
	for i := 0; i < n; i++ {
		g.nextPacketID++
		pkt := domain.Packet{
			ID:         fmt.Sprintf("%d-%d", g.ownerID(), g.nextPacketID),
			SourceNode: g.ownerID(),
			Payload:    make([]byte, g.payloadSize),
			CreatedAt:  g.startWall.Add(time.Duration(epochTime * float64(time.Second))),
		}
		g.queue.AddData(pkt)
	}
	return nil
}

func (g *Generator) ownerID() int {
	if g.owner == nil {
		return 0
	}
	return g.owner.ID()
}

// Invoke implements domain.Model. Supported operations:
//
//	get_data()                  -> (found bool, id, payload)
//	get_queue()                 -> (packets list)
//	get_queue_size()            -> (size int)
//	stop()                      -> ()  idempotent
func (g *Generator) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "get_data":
		pkt, ok := g.queue.GetData()
		if !ok {
			return domain.Args{"found": domain.BoolValue(false)}, nil
		}
		return domain.Args{
			"found":   domain.BoolValue(true),
			"id":      domain.StringValue(pkt.ID),
			"payload": {Bytes: pkt.Payload},
		}, nil
	case "get_queue":
		return domain.Args{"packets": domain.ListValue(packetValues(g.queue.GetQueue()))}, nil
	case "get_queue_size":
		return domain.Args{"size": domain.IntValue(int64(g.queue.GetQueueSize()))}, nil
	case "stop":
		g.stopped = true
		return domain.Args{}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

// Queue exposes the generator's backing Queue directly for models within the
// same node (e.g. a MAC model) that want to poll it without going through
// Invoke's string-keyed dispatch.
func (g *Generator) Queue() *Queue { return g.queue }

// NewGeneratorFactory returns a registry.ModelFactory for DATAGENERATOR,
// configured from the model spec's Extra: lambda_hz (mean arrival rate),
// payload_size (bytes, default 32), capacity (0 = unbounded), seed (default
// 1, so runs are reproducible unless a scenario asks otherwise).
func NewGeneratorFactory() registry.ModelFactory {
	return func(nodeSpec domain.NodeSpec, modelSpec domain.ModelSpec, deps registry.Deps) (domain.Model, error) {
		extra := modelSpec.Extra
		cfg := Config{
			ClassName:   modelSpec.IName,
			LambdaHz:    extraFloat(extra, "lambda_hz", 0),
			PayloadSize: int(extraFloat(extra, "payload_size", 32)),
			Capacity:    int(extraFloat(extra, "capacity", 0)),
			DeltaSec:    deps.SimDelta.Seconds(),
			StartWall:   deps.SimStart,
			Seed:        int64(extraFloat(extra, "seed", 1)),
		}
		return NewGenerator(cfg, nil), nil
	}
}

func extraFloat(extra map[string]any, key string, def float64) float64 {
	if v, ok := extra[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

// poissonSample draws a Poisson(mean)-distributed integer via Knuth's
// algorithm. mean <= 0 always yields 0.
func poissonSample(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		k++
		p *= rng.Float64()
		if p <= l {
			return k - 1
		}
	}
}
