package core

import "time"

// PendingSend tracks one optimistic send awaiting reconciliation.
type PendingSend struct {
	TentativeID string
	Body        string
	SubmittedAt time.Time
	Deadline    time.Time
}

// pendingSet keeps pending sends in submission order so heuristic echo
// matching always picks the oldest candidate.
type pendingSet struct {
	order []*PendingSend
	byID  map[string]*PendingSend
}

func newPendingSet() *pendingSet {
	return &pendingSet{byID: make(map[string]*PendingSend)}
}

func (p *pendingSet) add(ps *PendingSend) {
	p.order = append(p.order, ps)
	p.byID[ps.TentativeID] = ps
}

// remove deletes by tentative id. Removing an unknown id is a no-op, which
// makes rollback idempotent.
func (p *pendingSet) remove(tentativeID string) bool {
	if _, ok := p.byID[tentativeID]; !ok {
		return false
	}
	delete(p.byID, tentativeID)
	for i, ps := range p.order {
		if ps.TentativeID == tentativeID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

func (p *pendingSet) get(tentativeID string) (*PendingSend, bool) {
	ps, ok := p.byID[tentativeID]
	return ps, ok
}

// matchOldestByBody returns the oldest unexpired pending with the given
// body. Best-effort: two rapid identical sends can be matched to the wrong
// echo, which is why exact tentative-id matching is preferred when available.
func (p *pendingSet) matchOldestByBody(body string, now time.Time) (*PendingSend, bool) {
	for _, ps := range p.order {
		if ps.Body == body && now.Before(ps.Deadline) {
			return ps, true
		}
	}
	return nil, false
}

// expired returns the tentative ids of all pendings past their deadline.
func (p *pendingSet) expired(now time.Time) []string {
	var ids []string
	for _, ps := range p.order {
		if !now.Before(ps.Deadline) {
			ids = append(ids, ps.TentativeID)
		}
	}
	return ids
}

func (p *pendingSet) len() int {
	return len(p.order)
}
