package node

import (
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/google/uuid"
)

// ConservationListener implements component C: it is attached to every
// PhysicalNode's SpaceNode and enforces, for every extracellular substance
// touched by a triangulation topology change, that total quantity before ==
// total quantity after (spec §4.C). Each PhysicalNode owns its own
// listener instance, so a single pending snapshot field is enough — the
// triangulation only ever has one move/add/remove for this node in flight
// at a time (spec §5's serialization guarantee).
type ConservationListener struct {
	pending *snapshot
}

type snapshot struct {
	// quantities holds, per substance id, the pre-operation quantity of
	// every participant known at "before" time (self + old neighbors),
	// keyed by node id.
	quantities map[string]map[uuid.UUID]float64
	// estimate holds, per substance id, the concentration estimated for the
	// node's destination (move) or initial value (add).
	estimate map[string]float64
}

// NewConservationListener returns a listener with no operation in flight.
func NewConservationListener() *ConservationListener {
	return &ConservationListener{}
}

func substanceIDsOf(nodes []*spatial.SpaceNode[Site]) map[string]bool {
	ids := make(map[string]bool)
	for _, n := range nodes {
		for id := range n.Payload.Substances() {
			ids[id] = true
		}
	}
	return ids
}

func quantityOf(pn Site, id string) float64 {
	if s, ok := pn.Substance(id); ok {
		return s.Quantity
	}
	return 0
}

// estimateConcentration interpolates substance id's concentration at
// destination using barycentric interpolation in a containing tetrahedron
// of node's current star, falling back to linear gradient extrapolation
// from the nearest neighbor (§4.C).
func estimateConcentration(node *spatial.SpaceNode[Site], destination geom.Vec3, id string) float64 {
	for _, tet := range node.AdjacentTetrahedra() {
		var positions [4]geom.Vec3
		for i, v := range tet.Nodes {
			positions[i] = v.Position
		}
		weights, ok := geom.BarycentricCoordinates(destination, positions)
		if !ok {
			continue
		}
		inside := true
		for _, w := range weights {
			if w < -1e-6 || w > 1+1e-6 {
				inside = false
				break
			}
		}
		if !inside {
			continue
		}
		var c float64
		for i, v := range tet.Nodes {
			c += weights[i] * v.Payload.GetExtracellularConcentration(id)
		}
		return c
	}

	base := node.Payload.GetExtracellularConcentration(id)
	neighbors := node.AdjacentNodes()
	if len(neighbors) == 0 {
		return base
	}
	nb := neighbors[0]
	for _, cand := range neighbors[1:] {
		if geom.Distance(cand.Position, node.Position) < geom.Distance(nb.Position, node.Position) {
			nb = cand
		}
	}
	dir := nb.Position.Sub(node.Position)
	dist := dir.Len()
	if dist < 1e-9 {
		return base
	}
	diff := nb.Payload.GetExtracellularConcentration(id) - base
	gradient := dir.Mul(diff / (dist * dist))
	delta := destination.Sub(node.Position)
	return ComputeConcentrationAtDistanceBasedOnGradient(base, gradient, delta)
}

func unionNodes(a, b []*spatial.SpaceNode[Site]) []*spatial.SpaceNode[Site] {
	seen := make(map[uuid.UUID]*spatial.SpaceNode[Site])
	for _, n := range a {
		seen[n.Payload.ID()] = n
	}
	for _, n := range b {
		seen[n.Payload.ID()] = n
	}
	out := make([]*spatial.SpaceNode[Site], 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	return out
}

// BeforeMove captures Q_before (self + current neighbors) and estimates the
// destination concentration for every substance in play.
func (l *ConservationListener) BeforeMove(node *spatial.SpaceNode[Site], newPosition geom.Vec3) {
	neighbors := node.AdjacentNodes()
	participants := append([]*spatial.SpaceNode[Site]{node}, neighbors...)
	ids := substanceIDsOf(participants)

	snap := &snapshot{
		quantities: make(map[string]map[uuid.UUID]float64, len(ids)),
		estimate:   make(map[string]float64, len(ids)),
	}
	for id := range ids {
		m := make(map[uuid.UUID]float64, len(participants))
		for _, p := range participants {
			m[p.Payload.ID()] = quantityOf(p.Payload, id)
		}
		snap.quantities[id] = m
		snap.estimate[id] = estimateConcentration(node, newPosition, id)
	}
	l.pending = snap
}

// AfterMove rescales every participant (self, old neighbors, and any newly
// adjacent node) so that total quantity matches Q_before.
func (l *ConservationListener) AfterMove(node *spatial.SpaceNode[Site], before, after []*spatial.SpaceNode[Site]) {
	snap := l.pending
	l.pending = nil
	if snap == nil {
		return
	}
	beforeSet := make(map[uuid.UUID]bool, len(before))
	for _, n := range before {
		beforeSet[n.Payload.ID()] = true
	}
	all := unionNodes(before, after)

	for id, beforeQuantities := range snap.quantities {
		qBefore := 0.0
		for _, q := range beforeQuantities {
			qBefore += q
		}
		for _, n := range all {
			if !beforeSet[n.Payload.ID()] {
				qBefore += quantityOf(n.Payload, id)
			}
		}

		selfQAfter := snap.estimate[id] * node.Volume
		qAfter := selfQAfter
		participantQAfter := make(map[uuid.UUID]float64, len(all))
		for _, n := range all {
			q := quantityOf(n.Payload, id)
			if s, ok := n.Payload.Substance(id); ok {
				q = s.Concentration * n.Volume
			}
			participantQAfter[n.Payload.ID()] = q
			qAfter += q
		}

		ratio := 0.0
		if qAfter > 1e-14 {
			ratio = qBefore / qAfter
		}

		node.Payload.SetExtracellularQuantity(id, selfQAfter*ratio)
		for _, n := range all {
			n.Payload.SetExtracellularQuantity(id, participantQAfter[n.Payload.ID()]*ratio)
		}
	}
}

// BeforeRemove captures Q_before over self + current neighbors.
func (l *ConservationListener) BeforeRemove(node *spatial.SpaceNode[Site]) {
	neighbors := node.AdjacentNodes()
	participants := append([]*spatial.SpaceNode[Site]{node}, neighbors...)
	ids := substanceIDsOf(participants)

	snap := &snapshot{quantities: make(map[string]map[uuid.UUID]float64, len(ids))}
	for id := range ids {
		m := make(map[uuid.UUID]float64, len(participants))
		for _, p := range participants {
			m[p.Payload.ID()] = quantityOf(p.Payload, id)
		}
		snap.quantities[id] = m
	}
	l.pending = snap
}

// AfterRemove redistributes the removed node's share of each substance
// across its former neighbors, conserving total quantity (the self-term is
// simply omitted after removal, per §4.C).
func (l *ConservationListener) AfterRemove(node *spatial.SpaceNode[Site], before []*spatial.SpaceNode[Site]) {
	snap := l.pending
	l.pending = nil
	if snap == nil {
		return
	}
	for id, beforeQuantities := range snap.quantities {
		qBefore := 0.0
		for _, q := range beforeQuantities {
			qBefore += q
		}
		qAfter := 0.0
		participantQAfter := make(map[uuid.UUID]float64, len(before))
		for _, n := range before {
			q := quantityOf(n.Payload, id)
			if s, ok := n.Payload.Substance(id); ok {
				q = s.Concentration * n.Volume
			}
			participantQAfter[n.Payload.ID()] = q
			qAfter += q
		}
		ratio := 0.0
		if qAfter > 1e-14 {
			ratio = qBefore / qAfter
		}
		for _, n := range before {
			n.Payload.SetExtracellularQuantity(id, participantQAfter[n.Payload.ID()]*ratio)
		}
	}
}

// BeforeAdd is a no-op: the node being inserted has no prior quantities.
func (l *ConservationListener) BeforeAdd(node *spatial.SpaceNode[Site]) {}

// AfterAdd seeds the new node's substances with the mean concentration of
// its new neighbors, then rescales all participants (new node + neighbors) so total
// quantity is conserved (the symmetric counterpart of AfterRemove).
func (l *ConservationListener) AfterAdd(node *spatial.SpaceNode[Site], after []*spatial.SpaceNode[Site]) {
	ids := substanceIDsOf(after)
	for id := range ids {
		qBefore := 0.0
		for _, n := range after {
			qBefore += quantityOf(n.Payload, id)
		}

		c := 0.0
		for _, n := range after {
			c += n.Payload.GetExtracellularConcentration(id)
		}
		if len(after) > 0 {
			c /= float64(len(after))
		}
		selfQ := c * node.Volume

		qAfter := selfQ
		participantQAfter := make(map[uuid.UUID]float64, len(after))
		for _, n := range after {
			q := quantityOf(n.Payload, id)
			if s, ok := n.Payload.Substance(id); ok {
				q = s.Concentration * n.Volume
			}
			participantQAfter[n.Payload.ID()] = q
			qAfter += q
		}

		ratio := 0.0
		if qAfter > 1e-14 {
			ratio = qBefore / qAfter
		}
		node.Payload.SetExtracellularQuantity(id, selfQ*ratio)
		for _, n := range after {
			n.Payload.SetExtracellularQuantity(id, participantQAfter[n.Payload.ID()]*ratio)
		}
	}
}
