package radio

import (
	"math"
	"sync"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
	"github.com/orbsim/orbsim/internal/fov"
	"github.com/orbsim/orbsim/internal/macqueue"
	"github.com/orbsim/orbsim/internal/metrics"
	"github.com/orbsim/orbsim/internal/oracle"
)

// epochBudget tracks, for one frequency, how many delivery attempts and how
// many successful deliveries a receiving Radio has counted so far in the
// current epoch, for the "bits allowed" cap and collision accounting.
type epochBudget struct {
	epoch     float64
	attempts  int
	delivered int
}

// Config carries a Radio's construction-time parameters.
type Config struct {
	ClassName  string
	Tag        domain.CapabilityTag
	PHY        PHYParams
	SelfCtrl   bool
	TargetKind domain.NodeKind // candidate kind queried via the FoV sibling; ignored in ISL mode
	ISLPeerIDs []int           // non-empty selects ISL mode: bypass FoV, use this fixed peer list
	Oracle     *oracle.Oracle
	Directory  fov.Directory
	Predicate  SuccessPredicate
	SimEpoch   time.Time
	DeltaSec   float64 // epoch length, bounds the per-transmission energy draw
	OnDrop     func(reason string, pkt domain.Packet)
}

// txEnergyTag is the consumption tag a Radio charges its POWER sibling
// under for each transmission attempt.
const txEnergyTag = "TXRADIO"

// Radio is the shared Radio / Link Substrate model. Concrete radio classes
// (LoRa, X-band, ISL) are thin factories that supply a SuccessPredicate and
// PHY parameters to this same implementation.
type Radio struct {
	class      string
	tag        domain.CapabilityTag
	phy        PHYParams
	selfCtrl   bool
	targetKind domain.NodeKind
	islPeers   []int
	oracle     *oracle.Oracle
	dir        fov.Directory
	predicate  SuccessPredicate
	simEpoch   time.Time
	deltaSec   float64
	onDrop     func(reason string, pkt domain.Packet)

	owner domain.NodeRef

	mu       sync.Mutex
	txQueue  *macqueue.Queue
	rx       map[float64][]domain.Packet
	budgets  map[float64]*epochBudget
	peers    map[int]domain.NodeRef
	dirIndex map[int]fov.Candidate
}

// NewRadio builds a Radio bound to its physical-layer parameters and success
// predicate. Passing a non-empty cfg.ISLPeerIDs selects ISL mode.
func NewRadio(cfg Config) *Radio {
	var txQueue *macqueue.Queue
	if cfg.SelfCtrl {
		txQueue = macqueue.New(cfg.PHY.TxQueueCapacity, cfg.OnDrop)
	}
	return &Radio{
		class: cfg.ClassName, tag: cfg.Tag, phy: cfg.PHY, selfCtrl: cfg.SelfCtrl,
		targetKind: cfg.TargetKind, islPeers: cfg.ISLPeerIDs,
		oracle: cfg.Oracle, dir: cfg.Directory, predicate: cfg.Predicate,
		simEpoch: cfg.SimEpoch, deltaSec: cfg.DeltaSec, onDrop: cfg.OnDrop,
		txQueue: txQueue, rx: map[float64][]domain.Packet{}, budgets: map[float64]*epochBudget{},
	}
}

// ClassName implements domain.Model.
func (r *Radio) ClassName() string { return r.class }

// Tag implements domain.Model.
func (r *Radio) Tag() domain.CapabilityTag { return r.tag }

// SetOwner implements domain.Model.
func (r *Radio) SetOwner(owner domain.NodeRef) { r.owner = owner }

// PeerIDs implements domain.PeerResolver. ISL radios declare their fixed
// peer list; FoV-gated radios return nil; the Orchestrator resolves every
// registered PeerResolver against the full node map regardless, so a nil
// list here still yields a usable directory of every node.
func (r *Radio) PeerIDs() []int { return r.islPeers }

// ResolvePeers implements domain.PeerResolver.
func (r *Radio) ResolvePeers(peers map[int]domain.NodeRef) {
	r.mu.Lock()
	r.peers = peers
	r.mu.Unlock()
}

func (r *Radio) now() float64 {
	if r.owner == nil {
		return 0
	}
	return r.owner.Now()
}

// Advance implements domain.Model: self-controlled radios pull and attempt
// to send the head of their own transmit queue each epoch; radios driven by
// an explicit MAC sibling act only on transmit() invocations and no-op here.
func (r *Radio) Advance(epochTime float64) error {
	if !r.selfCtrl || r.txQueue == nil {
		return nil
	}
	pkt, ok := r.txQueue.GetData()
	if !ok {
		return nil
	}
	r.sendFrame(pkt.Frequency, pkt.ID, pkt.Payload)
	return nil
}

// Invoke implements domain.Model. Supported operations:
//
//	transmit(frequency float, payload bytes, packet_id string) -> (accepted bool)   (alias: send_packet)
//	poll_received(frequency float)                              -> (packets []{id, payload, source_node})
//	add_data(frequency float, payload bytes, packet_id string)  -> ()            (self_ctrl radios only)
//	get_queue_size()                                             -> (size int)
func (r *Radio) Invoke(op string, args domain.Args) (domain.Args, *domain.InvocationError) {
	switch op {
	case "transmit", "send_packet":
		freq, ierr := requireFloat(op, args, "frequency")
		if ierr != nil {
			return nil, ierr
		}
		packetID, ierr := args.RequireString(op, "packet_id")
		if ierr != nil {
			return nil, ierr
		}
		payload := args["payload"].Bytes
		accepted := r.sendFrame(freq, packetID, payload)
		return domain.Args{"accepted": domain.BoolValue(accepted)}, nil
	case "poll_received":
		freq, ierr := requireFloat(op, args, "frequency")
		if ierr != nil {
			return nil, ierr
		}
		return domain.Args{"packets": domain.ListValue(r.drainReceived(freq))}, nil
	case "add_data":
		if r.txQueue == nil {
			return nil, &domain.InvocationError{Kind: domain.PreconditionFailed, Operation: op, Detail: "radio is not self-controlled"}
		}
		freq, ierr := requireFloat(op, args, "frequency")
		if ierr != nil {
			return nil, ierr
		}
		packetID, ierr := args.RequireString(op, "packet_id")
		if ierr != nil {
			return nil, ierr
		}
		r.txQueue.AddData(domain.Packet{ID: packetID, Payload: args["payload"].Bytes, Frequency: freq, SourceNode: r.ownerID()})
		return domain.Args{}, nil
	case "get_queue_size":
		size := 0
		if r.txQueue != nil {
			size = r.txQueue.GetQueueSize()
		}
		return domain.Args{"size": domain.IntValue(int64(size))}, nil
	default:
		return nil, &domain.InvocationError{Kind: domain.UnknownOperation, Operation: op, Detail: op}
	}
}

func (r *Radio) ownerID() int {
	if r.owner == nil {
		return 0
	}
	return r.owner.ID()
}

func requireFloat(op string, args domain.Args, key string) (float64, *domain.InvocationError) {
	v, ok := args[key]
	if !ok || v.Float == nil {
		return 0, &domain.InvocationError{Kind: domain.MissingArgument, Operation: op, Detail: key}
	}
	return *v.Float, nil
}

// drainReceived pops and returns every packet received on frequency since
// the last poll, encoded as the wire shape internal/models/mac expects.
func (r *Radio) drainReceived(frequency float64) []domain.Value {
	r.mu.Lock()
	pkts := r.rx[frequency]
	delete(r.rx, frequency)
	r.mu.Unlock()

	out := make([]domain.Value, 0, len(pkts))
	for _, p := range pkts {
		out = append(out, domain.NestedValue(map[string]domain.Value{
			"id":          domain.StringValue(p.ID),
			"payload":     {Bytes: p.Payload},
			"source_node": domain.IntValue(int64(p.SourceNode)),
		}))
	}
	return out
}

// directoryIndex lazily builds and caches this Radio's node-id -> Candidate
// lookup from the shared scenario-wide Directory.
func (r *Radio) directoryIndex() map[int]fov.Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirIndex != nil {
		return r.dirIndex
	}
	idx := map[int]fov.Candidate{}
	if r.dir != nil {
		for _, c := range r.dir.Candidates() {
			idx[c.NodeID] = c
		}
	}
	r.dirIndex = idx
	return idx
}

// sendFrame is the shared entry point for both the explicit transmit()
// Invoke call and a self-controlled radio's own per-epoch pull. It discovers
// in-view (or ISL-peer) candidates of compatible tag/frequency, computes the
// link geometry, and hands the frame to each candidate's accept path.
func (r *Radio) sendFrame(frequency float64, packetID string, payload []byte) bool {
	if !r.phy.Accepts(frequency) {
		return false
	}
	t := r.now()
	wallT := r.simEpoch.Add(time.Duration(t * float64(time.Second)))
	pkt := domain.Packet{ID: packetID, SourceNode: r.ownerID(), Payload: payload, Frequency: frequency,
		CreatedAt: wallT}

	if !r.consumeTxEnergy() {
		r.drop("power-denied", pkt)
		return false
	}

	candidates := r.candidateIDs(t)
	delivered := false
	for _, nodeID := range candidates {
		peer := r.peerNode(nodeID)
		if peer == nil {
			continue
		}
		for _, m := range peer.ModelsByTag(r.tag) {
			recv, ok := m.(*Radio)
			if !ok || !recv.phy.Accepts(frequency) {
				continue
			}
			distM, ok := r.distanceTo(nodeID, wallT)
			if !ok {
				continue
			}
			if recv.accept(frequency, t, r.phy, r.predicate, distM, pkt) {
				delivered = true
			}
		}
	}
	if delivered && r.owner != nil {
		r.owner.Log(domain.LevelInfo, domain.EventPacketTx, map[string]any{
			"packet_id": packetID, "frequency": frequency, "class": r.class,
		})
		metrics.PacketsDelivered.WithLabelValues(string(r.tag)).Inc()
	}
	return delivered
}

// consumeTxEnergy charges the owner's POWER sibling, if any, for one
// transmission: the radiated power held for at most one epoch. A node with
// no POWER sibling transmits freely; a rejected draw means the battery is
// at its floor and nothing leaves the radio.
func (r *Radio) consumeTxEnergy() bool {
	if r.owner == nil {
		return true
	}
	power, ok := r.owner.HasModelByTag(domain.TagPower)
	if !ok {
		return true
	}
	duration := r.deltaSec
	if duration <= 0 {
		duration = 1
	}
	txWatts := math.Pow(10, (r.phy.TxPowerDbm-30)/10)
	res, ierr := power.Invoke("consume_energy", domain.Args{
		"tag":        domain.StringValue(txEnergyTag),
		"power_w":    domain.FloatValue(txWatts),
		"duration_s": domain.FloatValue(duration),
	})
	if ierr != nil {
		return false
	}
	return res["accepted"].Bool != nil && *res["accepted"].Bool
}

func (r *Radio) peerNode(nodeID int) domain.NodeRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.peers == nil {
		return nil
	}
	return r.peers[nodeID]
}

// candidateIDs resolves the set of node ids this radio may reach this
// epoch: the declared ISL peer list in ISL mode, or the FoV sibling's
// get_view result otherwise.
func (r *Radio) candidateIDs(t float64) []int {
	if len(r.islPeers) > 0 {
		return r.islPeers
	}
	if r.owner == nil {
		return nil
	}
	fovModel, ok := r.owner.HasModelByTag(domain.TagViewOfNode)
	if !ok {
		return nil
	}
	res, ierr := fovModel.Invoke("get_view", domain.Args{
		"target_kind": domain.StringValue(string(r.targetKind)),
		"at_time":     domain.FloatValue(t),
	})
	if ierr != nil || res == nil {
		return nil
	}
	list := res["node_ids"].List
	out := make([]int, 0, len(list))
	for _, v := range list {
		if v.Int != nil {
			out = append(out, int(*v.Int))
		}
	}
	return out
}

// distanceTo computes the slant range (meters) between this radio's owner
// and the given candidate node at time t, using whichever geometry identity
// (ground point or satellite id) each end's directory entry carries.
func (r *Radio) distanceTo(nodeID int, t time.Time) (float64, bool) {
	idx := r.directoryIndex()
	own, ok := idx[r.ownerID()]
	if !ok {
		return 0, false
	}
	peer, ok := idx[nodeID]
	if !ok {
		return 0, false
	}
	switch {
	case own.Kind == domain.NodeSAT && peer.Kind == domain.NodeSAT:
		d, err := r.oracle.SatDistance(own.SatID, peer.SatID, t)
		return d, err == nil
	case own.Kind == domain.NodeSAT:
		d, _, err := r.oracle.RelativeMotion(own.SatID, peer.Ground, t)
		return d, err == nil
	case peer.Kind == domain.NodeSAT:
		d, _, err := r.oracle.RelativeMotion(peer.SatID, own.Ground, t)
		return d, err == nil
	default:
		return 0, false
	}
}

// accept is invoked on the receiving Radio with the sender's PHY and
// predicate. It enforces the per-epoch "bits allowed" cap, evaluates the
// link-budget success predicate against the number of prior attempts this
// epoch (the collision/interference signal), and on success enqueues the
// packet into this radio's per-frequency receive queue.
func (r *Radio) accept(frequency, epochTime float64, txPHY PHYParams, predicate SuccessPredicate, distanceM float64, pkt domain.Packet) bool {
	r.mu.Lock()
	b, ok := r.budgets[frequency]
	if !ok || b.epoch != epochTime {
		b = &epochBudget{epoch: epochTime}
		r.budgets[frequency] = b
	}
	interferersBefore := b.attempts
	b.attempts++
	if r.phy.BitsAllowedPerEpoch > 0 && b.delivered >= r.phy.BitsAllowedPerEpoch {
		r.mu.Unlock()
		r.drop("bits-allowed-exceeded", pkt)
		return false
	}
	r.mu.Unlock()

	if predicate == nil || !predicate.Evaluate(distanceM, frequency, txPHY, r.phy, interferersBefore) {
		r.drop("link-budget-failed", pkt)
		return false
	}

	r.mu.Lock()
	if r.phy.RxQueueCapacity > 0 && len(r.rx[frequency]) >= r.phy.RxQueueCapacity {
		r.mu.Unlock()
		r.drop("queue-full", pkt)
		return false
	}
	r.rx[frequency] = append(r.rx[frequency], pkt)
	b.delivered++
	r.mu.Unlock()
	if r.owner != nil {
		r.owner.Log(domain.LevelInfo, domain.EventPacketRx, map[string]any{
			"packet_id": pkt.ID, "frequency": frequency, "source_node": pkt.SourceNode, "class": r.class,
		})
	}
	return true
}

func (r *Radio) drop(reason string, pkt domain.Packet) {
	if r.owner != nil {
		r.owner.Log(domain.LevelWarn, domain.EventPacketDropReason, map[string]any{
			"packet_id": pkt.ID, "reason": reason, "class": r.class,
		})
	}
	metrics.PacketsDropped.WithLabelValues(reason).Inc()
	if r.onDrop != nil {
		r.onDrop(reason, pkt)
	}
}

// FrequencyBand reports this radio's configured frequency set and whether
// it is a wildcard (answers any frequency), consulted by the Orchestrator
// to enforce (tag, frequency-band) uniqueness across sibling radios on one
// node.
func (r *Radio) FrequencyBand() (frequencies []float64, wildcard bool) {
	return r.phy.Frequencies, len(r.phy.Frequencies) == 0
}
