package bingo

// nextTurn returns the slot after from, stepping over disconnected players for at most
// one full cycle. If nobody can act, from is returned unchanged and the room stalls.
func (g *Game) nextTurn(from int) int {
	n := len(g.TurnOrder)
	if n == 0 {
		return 0
	}
	for step := 1; step <= n; step++ {
		idx := (from + step) % n
		if p := g.Players[g.TurnOrder[idx]]; p != nil && p.Connected {
			return idx
		}
	}
	return from
}

// settleTurn moves off the current slot if its holder cannot act.
func (g *Game) settleTurn() bool {
	if g.Status != StatusPlaying || len(g.TurnOrder) == 0 {
		return false
	}
	if p := g.Players[g.TurnOrder[g.CurrentTurn]]; p != nil && p.Connected {
		return false
	}
	next := g.nextTurn(g.CurrentTurn)
	if next == g.CurrentTurn {
		return false
	}
	g.CurrentTurn = next
	return true
}

func (g *Game) removeFromTurnOrder(id string) {
	idx := g.TurnIndexOf(id)
	if idx < 0 {
		return
	}
	g.TurnOrder = append(g.TurnOrder[:idx], g.TurnOrder[idx+1:]...)
	if len(g.TurnOrder) == 0 {
		g.CurrentTurn = 0
		return
	}
	if idx < g.CurrentTurn {
		g.CurrentTurn--
	}
	if g.CurrentTurn >= len(g.TurnOrder) {
		g.CurrentTurn = 0
	}
}
