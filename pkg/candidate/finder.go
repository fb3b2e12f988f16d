package candidate

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/gatelib"
	"github.com/hwseclab/regscan/pkg/netlist"
	"github.com/hwseclab/regscan/pkg/observability"
)

// Finder discovers register candidates in a netlist.
//
// A Finder is stateless apart from its configuration and logger; one
// Finder may run searches over different netlists concurrently, and
// independent Finders may scan the same netlist in parallel since the
// search never mutates the graph.
type Finder struct {
	cfg    Config
	logger *log.Logger
}

// NewFinder creates a finder with the given search policy.
// If logger is nil, log.Default() is used.
func NewFinder(cfg Config, logger *log.Logger) *Finder {
	if logger == nil {
		logger = log.Default()
	}
	return &Finder{cfg: cfg, logger: logger}
}

// Find returns the complete, deduplicated set of register candidates for
// the netlist, sorted ascending by [RegisterCandidate.Compare].
//
// Flip-flops with missing pin classification or an unconnected clock are
// excluded from the search and logged, never fatal. Clock/control groups
// matching neither the round-based nor the pipelined pattern yield no
// candidate. Only a nil or empty netlist aborts the whole search, with a
// NIL_NETLIST or EMPTY_NETLIST error.
func (f *Finder) Find(ctx context.Context, nl *netlist.Netlist) ([]*RegisterCandidate, error) {
	if nl == nil {
		return nil, errors.New(errors.ErrCodeNilNetlist, "no netlist to search")
	}
	if nl.GateCount() == 0 {
		return nil, errors.New(errors.ErrCodeEmptyNetlist, "netlist %s has no gates", nl.Name())
	}
	if err := f.cfg.validate(); err != nil {
		return nil, err
	}
	cfg := f.cfg.withDefaults()

	hooks := observability.Scan()
	start := time.Now()
	hooks.OnScanStart(ctx, nl.Name(), nl.GateCount())

	groups := f.groupFlipFlops(ctx, nl, cfg)
	f.logger.Debug("partitioned flip-flops", "netlist", nl.Name(), "groups", len(groups))

	results := make([]*RegisterCandidate, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallelism)
	for i, grp := range groups {
		// Group boundaries are the search's suspension points.
		if err := ctx.Err(); err != nil {
			hooks.OnScanComplete(ctx, nl.Name(), 0, time.Since(start), err)
			return nil, err
		}
		eg.Go(func() error {
			cand, verdict := f.evaluateGroup(nl, grp, cfg)
			hooks.OnGroupEvaluated(egCtx, nl.Name(), len(grp.gates), verdict)
			results[i] = cand
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		hooks.OnScanComplete(ctx, nl.Name(), 0, time.Since(start), err)
		return nil, err
	}

	// Deterministic final pass: drop no-matches, order canonically,
	// collapse structural duplicates.
	candidates := make([]*RegisterCandidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, c)
		}
	}
	slices.SortFunc(candidates, func(a, b *RegisterCandidate) int { return a.Compare(b) })
	candidates = slices.CompactFunc(candidates, func(a, b *RegisterCandidate) bool { return a.Equal(b) })

	hooks.OnScanComplete(ctx, nl.Name(), len(candidates), time.Since(start), nil)
	f.logger.Info("candidate search finished",
		"netlist", nl.Name(),
		"groups", len(groups),
		"candidates", len(candidates),
		"duration", time.Since(start).Round(time.Millisecond))
	return candidates, nil
}

// ffGroup is one clock/control partition of the netlist's flip-flops.
type ffGroup struct {
	key   string
	gates []*netlist.Gate // ascending ID order
}

// groupFlipFlops partitions the netlist's storage gates by shared clock
// net and, per configuration, shared control nets. Gates that cannot be
// classified or have no clock connection are skipped.
func (f *Finder) groupFlipFlops(ctx context.Context, nl *netlist.Netlist, cfg Config) []ffGroup {
	hooks := observability.Scan()
	byKey := make(map[string][]*netlist.Gate)

	for _, g := range nl.FlipFlops() {
		key, skip := groupKey(g, cfg.SharedControls)
		if skip != nil {
			hooks.OnGateSkipped(ctx, nl.Name(), g.Name(), skip.Error())
			f.logger.Debug("skipping flip-flop", "gate", g.Name(), "err", skip)
			continue
		}
		byKey[key] = append(byKey[key], g)
	}

	groups := make([]ffGroup, 0, len(byKey))
	for key, gates := range byKey {
		groups = append(groups, ffGroup{key: key, gates: gates})
	}
	slices.SortFunc(groups, func(a, b ffGroup) int {
		if a.key < b.key {
			return -1
		}
		if a.key > b.key {
			return 1
		}
		return 0
	})
	return groups
}

// groupKey derives the partition key for a flip-flop: its clock net plus
// the nets on all configured shared control pins. The returned error
// carries UNCLASSIFIED_GATE when the gate cannot take part in any
// candidate.
func groupKey(g *netlist.Gate, controls []gatelib.PinClass) (key string, skip error) {
	typ := g.Type()

	clockPin, ok := typ.Pin(gatelib.PinClock)
	if !ok {
		return "", errors.New(errors.ErrCodeUnclassifiedGate, "type %s declares no clock pin", typ.Name)
	}
	if _, ok := typ.Pin(gatelib.PinDataIn); !ok {
		return "", errors.New(errors.ErrCodeUnclassifiedGate, "type %s declares no data-in pin", typ.Name)
	}
	if _, ok := typ.Pin(gatelib.PinDataOut); !ok {
		return "", errors.New(errors.ErrCodeUnclassifiedGate, "type %s declares no data-out pin", typ.Name)
	}

	clockNet, ok := g.InputNet(clockPin)
	if !ok {
		return "", errors.New(errors.ErrCodeUnclassifiedGate, "clock pin %s is unconnected", clockPin)
	}

	key = fmt.Sprintf("clk:%d", clockNet.ID())
	for _, class := range controls {
		// A missing or unconnected control pin groups as net 0, keeping
		// gates without that control separate from gates sharing one.
		var netID uint32
		if pin, ok := typ.Pin(class); ok {
			if net, ok := g.InputNet(pin); ok {
				netID = net.ID()
			}
		}
		key += fmt.Sprintf("|%s:%d", class, netID)
	}
	return key, nil
}

// evaluateGroup classifies one clock/control group as a round-based
// register, a pipelined register pair, or a no-match. The returned
// verdict is "round", "pipelined", or "no-match"; the candidate is nil
// for a no-match.
func (f *Finder) evaluateGroup(nl *netlist.Netlist, grp ffGroup, cfg Config) (*RegisterCandidate, string) {
	members := make(map[*netlist.Gate]bool, len(grp.gates))
	for _, g := range grp.gates {
		members[g] = true
	}

	// For each flip-flop, the in-group flip-flops whose data outputs reach
	// its data input through at most MaxLogicDepth combinational gates.
	drivers := make(map[*netlist.Gate][]*netlist.Gate, len(grp.gates))
	for _, g := range grp.gates {
		for _, d := range dataDrivers(g, cfg.MaxLogicDepth) {
			if members[d] {
				drivers[g] = append(drivers[g], d)
			}
		}
	}

	// Round-based: every gate's data input is driven from within the group.
	if len(drivers) == len(grp.gates) {
		cand, err := NewRoundBasedFromSet(nl, NewGateSet(grp.gates...))
		if err != nil {
			f.logger.Warn("rejecting round-based group", "err", err)
			return nil, "no-match"
		}
		return cand, "round"
	}

	// Pipelined: gates driven from within the group form the output
	// register, the rest the input register.
	var in, out []*netlist.Gate
	for _, g := range grp.gates {
		if len(drivers[g]) > 0 {
			out = append(out, g)
		} else {
			in = append(in, g)
		}
	}
	if len(in) == 0 || len(out) == 0 || len(in) != len(out) {
		return nil, "no-match"
	}

	// The stage must flow strictly from input to output register: no
	// output gate may be driven by another output gate, and every input
	// gate must actually drive the output register.
	inSet := NewGateSet(in...)
	feeding := make(map[*netlist.Gate]bool, len(in))
	for _, g := range out {
		for _, d := range drivers[g] {
			if !inSet.Contains(d) {
				return nil, "no-match"
			}
			feeding[d] = true
		}
	}
	if len(feeding) != len(in) {
		return nil, "no-match"
	}

	cand, err := NewPipelinedFromSets(nl, inSet, NewGateSet(out...))
	if err != nil {
		f.logger.Warn("rejecting pipelined group", "err", err)
		return nil, "no-match"
	}
	return cand, "pipelined"
}

// dataDrivers walks backward from the flip-flop's data input through
// combinational logic and collects the flip-flops whose data outputs
// drive it within maxDepth combinational gates. Ports and other
// non-combinational, non-storage gates terminate the walk.
func dataDrivers(ff *netlist.Gate, maxDepth int) []*netlist.Gate {
	dataInPin, ok := ff.Type().Pin(gatelib.PinDataIn)
	if !ok {
		return nil
	}
	start, ok := ff.InputNet(dataInPin)
	if !ok {
		return nil
	}

	type item struct {
		net   *netlist.Net
		depth int // combinational gates traversed so far
	}

	seen := make(map[*netlist.Net]int) // net -> shallowest depth visited
	found := make(map[*netlist.Gate]bool)
	queue := []item{{net: start, depth: 0}}
	seen[start] = 0

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		for _, src := range it.net.Sources() {
			typ := src.Gate.Type()
			switch {
			case typ.IsFlipFlop():
				if typ.ClassOf(src.Pin) == gatelib.PinDataOut {
					found[src.Gate] = true
				}
			case typ.IsCombinational():
				if it.depth >= maxDepth {
					continue
				}
				for _, fanin := range src.Gate.FaninNets() {
					d := it.depth + 1
					if prev, ok := seen[fanin]; ok && prev <= d {
						continue
					}
					seen[fanin] = d
					queue = append(queue, item{net: fanin, depth: d})
				}
			}
		}
	}

	out := make([]*netlist.Gate, 0, len(found))
	for g := range found {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *netlist.Gate) int { return int(a.ID()) - int(b.ID()) })
	return out
}
