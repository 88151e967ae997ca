package game

import "testing"

func TestGenerateCard_ColumnRanges(t *testing.T) {
	for id := 1; id <= PoolSize; id++ {
		c := generateCard(id)
		for col := 0; col < 5; col++ {
			lo, hi := col*15+1, col*15+15
			seen := map[int]bool{}
			for row := 0; row < 5; row++ {
				n := c.Grid[col][row]
				if col == freeCol && row == freeRow {
					if n != 0 {
						t.Fatalf("card %d: free cell holds %d", id, n)
					}
					continue
				}
				if n < lo || n > hi {
					t.Fatalf("card %d col %d: %d out of range [%d,%d]", id, col, n, lo, hi)
				}
				if seen[n] {
					t.Fatalf("card %d col %d: duplicate %d", id, col, n)
				}
				seen[n] = true
			}
		}
	}
}

func TestGenerateCard_Deterministic(t *testing.T) {
	a, b := generateCard(42), generateCard(42)
	if a.Grid != b.Grid {
		t.Fatal("same card id produced different grids")
	}
	if generateCard(42).Grid == generateCard(43).Grid {
		t.Fatal("different card ids produced identical grids")
	}
}

func TestPool_ReserveMutualExclusion(t *testing.T) {
	p := NewPool()

	card, ok := p.Reserve(5, 100, false)
	if !ok || card.ID != 5 {
		t.Fatalf("first reserve failed: ok=%v", ok)
	}
	if _, ok := p.Reserve(5, 200, false); ok {
		t.Fatal("second taken reserve should be rejected")
	}

	// reservedNext is an independent flag on the same card
	if _, ok := p.Reserve(5, 200, true); !ok {
		t.Fatal("next-round reserve on a taken card should succeed")
	}
	if _, ok := p.Reserve(5, 300, true); ok {
		t.Fatal("second next-round reserve should be rejected")
	}
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewPool()
	p.Reserve(7, 100, false)
	p.Release(7, false)
	p.Release(7, false)
	if _, ok := p.Reserve(7, 200, false); !ok {
		t.Fatal("card should be free after release")
	}
}

func TestPool_RotatePromotesNextRound(t *testing.T) {
	p := NewPool()
	p.Reserve(1, 100, false)
	p.Reserve(2, 200, true)

	p.Rotate()

	snap := p.Snapshot()
	if snap[0].Taken {
		t.Fatal("card 1 should be freed by rotation")
	}
	if !snap[1].Taken || snap[1].ReservedNext {
		t.Fatalf("card 2 should be taken (not reservedNext) after rotation: %+v", snap[1])
	}
	// the promoted reservation still belongs to user 200
	if _, ok := p.Reserve(2, 300, false); ok {
		t.Fatal("rotated card must stay reserved")
	}
}

func TestPool_SnapshotDistinguishesFlags(t *testing.T) {
	p := NewPool()
	p.Reserve(3, 100, false)
	p.Reserve(4, 200, true)

	snap := p.Snapshot()
	if len(snap) != PoolSize {
		t.Fatalf("snapshot size %d", len(snap))
	}
	if !snap[2].Taken || snap[2].ReservedNext {
		t.Fatalf("card 3 flags wrong: %+v", snap[2])
	}
	if snap[3].Taken || !snap[3].ReservedNext {
		t.Fatalf("card 4 flags wrong: %+v", snap[3])
	}
}
