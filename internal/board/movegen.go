package board

// GenerateLegalMoves generates all legal moves for the position. Every
// returned move carries FlagCheck when it leaves the enemy king attacked.
func (p *Position) GenerateLegalMoves() *MoveList {
	return p.filterLegalMoves(p.GeneratePseudoLegalMoves())
}

// GeneratePseudoLegalMoves generates moves that obey piece movement but
// may leave the own king attacked.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	if p.gameOverByCapture() {
		return ml
	}
	if p.DuckPending {
		p.generateDuckPlacements(ml)
		return ml
	}
	p.generatePieceMoves(ml, false)
	if p.Variant.rules().drops {
		p.generateDrops(ml)
	}
	return ml
}

// GenerateCaptures generates legal captures and promotions. It is empty
// while a duck placement is pending.
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	if p.gameOverByCapture() || p.DuckPending {
		return ml
	}
	p.generatePieceMoves(ml, true)
	return p.filterLegalMoves(ml)
}

// DuckPlacements returns the legal duck placements, empty unless a
// placement is pending.
func (p *Position) DuckPlacements() *MoveList {
	ml := NewMoveList()
	if p.DuckPending {
		p.generateDuckPlacements(ml)
	}
	return ml
}

// GenerateDrops returns the legal house-mode drops.
func (p *Position) GenerateDrops() *MoveList {
	ml := NewMoveList()
	if p.gameOverByCapture() || p.DuckPending || !p.Variant.rules().drops {
		return ml
	}
	p.generateDrops(ml)
	return p.filterLegalMoves(ml)
}

// gameOverByCapture reports a king-capture variant position whose side
// to move has lost its king.
func (p *Position) gameOverByCapture() bool {
	return p.Variant.rules().kingCapture && p.Pieces[p.SideToMove][King] == 0
}

func (p *Position) generatePieceMoves(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove
	them := us.Other()
	occupied := p.AllOccupied
	enemies := p.Occupied[them]

	targets := ^occupied | enemies
	if capturesOnly {
		targets = enemies
	}

	p.generatePawnMoves(ml, us, enemies, occupied, capturesOnly)

	for pt := Knight; pt <= King; pt++ {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			var attacks Bitboard
			switch pt {
			case Knight:
				attacks = KnightAttacks(from)
			case Bishop:
				attacks = BishopAttacks(from, occupied)
			case Rook:
				attacks = RookAttacks(from, occupied)
			case Queen:
				attacks = QueenAttacks(from, occupied)
			case King:
				attacks = KingAttacks(from)
			}
			attacks &= targets
			for attacks != 0 {
				to := attacks.PopLSB()
				ml.Add(NewMove(from, to, pt, p.capturedAt(to, them)))
			}
		}
	}

	if !capturesOnly {
		p.generateCastlingMoves(ml, us)
	}
}

func (p *Position) capturedAt(sq Square, them Color) PieceType {
	if p.Occupied[them]&SquareBB(sq) == 0 {
		return NoPieceType
	}
	return p.PieceAt(sq).Type()
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard, capturesOnly bool) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied
	them := us.Other()

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	if !capturesOnly {
		nonPromo := push1 &^ promotionRank
		for nonPromo != 0 {
			to := nonPromo.PopLSB()
			ml.Add(NewMove(Square(int(to)-pushDir), to, Pawn, NoPieceType))
		}
		for push2 != 0 {
			to := push2.PopLSB()
			m := NewMove(Square(int(to)-2*pushDir), to, Pawn, NoPieceType)
			m.Flags |= FlagDoublePush
			ml.Add(m)
		}
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to, NoPieceType)
	}

	for _, side := range [2]struct {
		targets Bitboard
		delta   int
	}{{attackL, pushDir - 1}, {attackR, pushDir + 1}} {
		bb := side.targets
		for bb != 0 {
			to := bb.PopLSB()
			from := Square(int(to) - side.delta)
			captured := p.capturedAt(to, them)
			if promotionRank.IsSet(to) {
				addPromotions(ml, from, to, captured)
			} else {
				ml.Add(NewMove(from, to, Pawn, captured))
			}
		}
	}

	if p.EnPassant != NoSquare && p.IsEmpty(p.EnPassant) {
		epAttackers := PawnAttacks(p.EnPassant, them) & pawns
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			m := NewMove(from, p.EnPassant, Pawn, Pawn)
			m.Flags |= FlagEnPassant
			ml.Add(m)
		}
	}
}

func addPromotions(ml *MoveList, from, to Square, captured PieceType) {
	ml.Add(NewPromotion(from, to, captured, Queen))
	ml.Add(NewPromotion(from, to, captured, Rook))
	ml.Add(NewPromotion(from, to, captured, Bishop))
	ml.Add(NewPromotion(from, to, captured, Knight))
}

type castleRoute struct {
	right    CastlingRights
	rookFrom Square
	kingTo   Square
	empty    Bitboard // squares between king and rook
	safe     [3]Square
}

var castleRoutes = [2][2]castleRoute{
	White: {
		{WhiteKingSideCastle, H1, G1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}},
		{WhiteQueenSideCastle, A1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}},
	},
	Black: {
		{BlackKingSideCastle, H8, G8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}},
		{BlackQueenSideCastle, A8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}},
	},
}

// generateCastlingMoves requires the king and rook on their home squares
// in addition to the right, since rights are kept as given by setup.
// Without self-check rules the king may castle out of or through attack.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	home := E1
	if us == Black {
		home = E8
	}
	if !p.Pieces[us][King].IsSet(home) {
		return
	}
	them := us.Other()
	checkSafe := p.Variant.rules().selfCheck

routes:
	for _, r := range castleRoutes[us] {
		if p.CastlingRights&r.right == 0 || !p.Pieces[us][Rook].IsSet(r.rookFrom) {
			continue
		}
		if p.AllOccupied&r.empty != 0 {
			continue
		}
		if checkSafe {
			for _, sq := range r.safe {
				if p.IsSquareAttacked(sq, them) {
					continue routes
				}
			}
		}
		m := NewMove(home, r.kingTo, King, NoPieceType)
		m.Flags |= FlagCastling
		ml.Add(m)
	}
}

// generateDuckPlacements adds a placement for every empty square.
// The duck must move, so its current square is excluded.
func (p *Position) generateDuckPlacements(ml *MoveList) {
	empty := ^p.AllOccupied
	for empty != 0 {
		ml.Add(NewDuckMove(p.Duck, empty.PopLSB()))
	}
}

// generateDrops adds house-mode drops. Pawns never land on the first or
// last rank.
func (p *Position) generateDrops(ml *MoveList) {
	us := p.SideToMove
	empty := ^p.AllOccupied
	for pt := Pawn; pt <= Queen; pt++ {
		if p.Pockets[us][pt] == 0 {
			continue
		}
		squares := empty
		if pt == Pawn {
			squares &^= Rank1 | Rank8
		}
		for squares != 0 {
			ml.Add(NewDrop(pt, squares.PopLSB()))
		}
	}
}

// filterLegalMoves applies the variant's self-check rule by make/unmake
// and annotates checking moves.
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()
	us := p.SideToMove
	them := us.Other()
	selfCheck := p.Variant.rules().selfCheck

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := p.MakeMove(m)
		if selfCheck && p.InCheck(us) {
			p.UnmakeMove(undo)
			continue
		}
		if p.InCheck(them) {
			m.Flags |= FlagCheck
		}
		p.UnmakeMove(undo)
		result.Add(m)
	}
	return result
}

// IsLegal reports whether m is among the legal moves.
func (p *Position) IsLegal(m Move) bool {
	return p.GenerateLegalMoves().Contains(m)
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	return p.GenerateLegalMoves().Len() > 0
}
