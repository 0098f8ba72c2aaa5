package board

// GameState classifies a position.
type GameState uint8

const (
	Play GameState = iota
	Check
	Mate
	Stalemate
	DrawMaterial
	Draw50
	DrawRepeat
	Invalid
)

func (s GameState) String() string {
	switch s {
	case Play:
		return "PLAY"
	case Check:
		return "CHECK"
	case Mate:
		return "MATE"
	case Stalemate:
		return "STALEMATE"
	case DrawMaterial:
		return "DRAW_MATERIAL"
	case Draw50:
		return "DRAW_50"
	case DrawRepeat:
		return "DRAW_REPEAT"
	case Invalid:
		return "INVALID"
	}
	return "UNKNOWN"
}

// IsTerminal reports whether the game is over.
func (s GameState) IsTerminal() bool {
	switch s {
	case Mate, Stalemate, DrawMaterial, Draw50, DrawRepeat, Invalid:
		return true
	}
	return false
}

// State classifies the position from its own legal moves.
func (p *Position) State() GameState {
	return Evaluate(p, p.GenerateLegalMoves().Len(), p.InCheck(p.SideToMove))
}

// Evaluate classifies p given its legal move count and whether the side
// to move is in check. Invalid outranks mate and stalemate, which
// outrank the draws; check is reported only when nothing else applies.
func Evaluate(p *Position, legalMoves int, inCheck bool) GameState {
	us := p.SideToMove
	them := us.Other()
	r := p.Variant.rules()
	kings := [2]int{p.Pieces[White][King].PopCount(), p.Pieces[Black][King].PopCount()}

	if r.kingCapture {
		switch {
		case kings[White] > 1 || kings[Black] > 1 || kings[them] == 0:
			return Invalid
		case kings[us] == 0:
			return Mate
		}
	} else {
		if kings[White] != 1 || kings[Black] != 1 {
			return Invalid
		}
		if !p.DuckPending && p.InCheck(them) {
			return Invalid
		}
	}

	if legalMoves == 0 {
		if inCheck {
			return Mate
		}
		return Stalemate
	}
	if p.RepetitionCount() >= 3 {
		return DrawRepeat
	}
	if p.HalfMoveClock >= 100 {
		return Draw50
	}
	if r.materialDraws && p.IsInsufficientMaterial() {
		return DrawMaterial
	}
	if inCheck {
		return Check
	}
	return Play
}

// IsInsufficientMaterial reports king against king, king and one minor
// piece against king, and opposing bishops on squares of one color.
// Pieces in a pocket always count as mating material.
func (p *Position) IsInsufficientMaterial() bool {
	if p.HasPocketPieces() {
		return false
	}
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wKnights := p.Pieces[White][Knight].PopCount()
	wBishops := p.Pieces[White][Bishop].PopCount()
	bKnights := p.Pieces[Black][Knight].PopCount()
	bBishops := p.Pieces[Black][Bishop].PopCount()
	wMinors, bMinors := wKnights+wBishops, bKnights+bBishops

	switch {
	case wMinors+bMinors == 0:
		return true
	case wMinors <= 1 && bMinors == 0, bMinors <= 1 && wMinors == 0:
		return true
	case wKnights == 0 && bKnights == 0 && wBishops == 1 && bBishops == 1:
		wLight := p.Pieces[White][Bishop]&LightSquares != 0
		bLight := p.Pieces[Black][Bishop]&LightSquares != 0
		return wLight == bLight
	}
	return false
}
