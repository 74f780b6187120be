package pileup

import "testing"

func newTestPosition() *Position {
	p := &Position{}
	p.set("chr1", 100)
	return p
}

func TestPositionAppendBaseSameVoteIsIdempotent(t *testing.T) {
	p := newTestPosition()
	obs := Observation{Qual: 'I', Converted: true}
	p.AppendBase(obs, 1)
	p.AppendBase(obs, 1)
	if len(p.convertedQualities) != 1 {
		t.Errorf("expected one surviving converted quality, got %d", len(p.convertedQualities))
	}
}

func TestPositionAppendBaseConflictingVoteRemovesBoth(t *testing.T) {
	p := newTestPosition()
	p.AppendBase(Observation{Qual: 'I', Converted: true}, 1)
	p.AppendBase(Observation{Qual: 'J', Converted: false}, 1)
	if !p.Empty() {
		t.Errorf("expected a conflicting second vote to retract the first and not register the second; got converted=%q unconverted=%q",
			p.convertedQualities, p.unconvertedQualities)
	}
}

func TestPositionAppendBaseDistinctReadsBothCount(t *testing.T) {
	p := newTestPosition()
	p.AppendBase(Observation{Qual: 'I', Converted: true}, 1)
	p.AppendBase(Observation{Qual: 'J', Converted: false}, 2)
	if len(p.convertedQualities) != 1 || len(p.unconvertedQualities) != 1 {
		t.Errorf("expected one converted and one unconverted vote from two distinct reads, got converted=%q unconverted=%q",
			p.convertedQualities, p.unconvertedQualities)
	}
}

func TestPositionSearchReadNameIDKeepsSortedOrder(t *testing.T) {
	p := newTestPosition()
	for _, id := range []uint64{5, 1, 3} {
		p.AppendBase(Observation{Qual: 'I', Converted: true}, id)
	}
	for i := 1; i < len(p.uniqueIDs); i++ {
		if p.uniqueIDs[i-1].readNameID >= p.uniqueIDs[i].readNameID {
			t.Fatalf("uniqueIDs not sorted ascending: %v", p.uniqueIDs)
		}
	}
}

func TestPositionResetClearsState(t *testing.T) {
	p := newTestPosition()
	p.Strand = '+'
	p.AppendBase(Observation{Qual: 'I', Converted: true}, 1)
	p.reset()
	if p.Chromosome != "" || p.Location != -1 || p.Strand != '?' {
		t.Errorf("reset did not clear identity fields: %+v", p)
	}
	if !p.Empty() || len(p.uniqueIDs) != 0 {
		t.Error("reset did not clear accumulated observations")
	}
}

func TestPositionPoolRecyclesResetPositions(t *testing.T) {
	pool := newPositionPool()
	p := pool.get()
	p.set("chr1", 42)
	p.AppendBase(Observation{Qual: 'I', Converted: true}, 1)
	pool.put(p)

	p2 := pool.get()
	if p2 != p {
		t.Fatal("expected the pool to recycle the same *Position instance")
	}
	if p2.Chromosome != "" || !p2.Empty() {
		t.Error("expected a recycled Position to come back reset")
	}
}
