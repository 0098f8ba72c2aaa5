package board

// Ray directions. The first four walk toward higher square indices.
const (
	dirNorth = iota
	dirEast
	dirNorthEast
	dirNorthWest
	dirSouth
	dirWest
	dirSouthEast
	dirSouthWest
)

var rayStep = [8][2]int{ // file, rank deltas
	{0, 1}, {1, 0}, {1, 1}, {-1, 1},
	{0, -1}, {-1, 0}, {1, -1}, {-1, -1},
}

// Pre-computed attack tables
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]
	rays          [8][64]Bitboard // [direction][Square], origin excluded
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		knightAttacks[sq] = (bb<<17)&NotFileA | (bb<<15)&NotFileH |
			(bb>>17)&NotFileH | (bb>>15)&NotFileA |
			(bb<<10)&NotFileAB | (bb<<6)&NotFileGH |
			(bb>>10)&NotFileGH | (bb>>6)&NotFileAB

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()

		for dir, step := range rayStep {
			f, r := sq.File()+step[0], sq.Rank()+step[1]
			for f >= 0 && f < 8 && r >= 0 && r < 8 {
				rays[dir][sq] |= SquareBB(NewSquare(f, r))
				f += step[0]
				r += step[1]
			}
		}
	}
}

// slide returns the attacks along one ray, stopping at (and including)
// the first occupied square.
func slide(dir int, sq Square, occupied Bitboard) Bitboard {
	attacks := rays[dir][sq]
	blockers := attacks & occupied
	if blockers == 0 {
		return attacks
	}
	var first Square
	if dir < dirSouth {
		first = blockers.LSB()
	} else {
		first = blockers.MSB()
	}
	return attacks &^ rays[dir][first]
}

// KnightAttacks returns the knight attack set for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack set for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns diagonal attacks for the given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(dirNorthEast, sq, occupied) | slide(dirNorthWest, sq, occupied) |
		slide(dirSouthEast, sq, occupied) | slide(dirSouthWest, sq, occupied)
}

// RookAttacks returns straight-line attacks for the given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(dirNorth, sq, occupied) | slide(dirEast, sq, occupied) |
		slide(dirSouth, sq, occupied) | slide(dirWest, sq, occupied)
}

// QueenAttacks returns the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// AttackersByColor returns the pieces of color c attacking sq under the
// given occupancy. Pins are ignored; the duck only matters as a blocker.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked reports whether any piece of byColor attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	if !sq.IsValid() {
		return false
	}
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// InCheck reports whether the king of color c is attacked.
// A side without a king is never in check.
func (p *Position) InCheck(c Color) bool {
	ksq := p.Pieces[c][King].LSB()
	return p.IsSquareAttacked(ksq, c.Other())
}
