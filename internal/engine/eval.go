// Package engine searches positions of every board variant with
// iterative deepening alpha-beta.
package engine

import (
	"github.com/hailam/duckplay/internal/board"
)

// Material in centipawns.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// Indexed by board.PieceType.
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// A piece in hand can land anywhere, so it is worth a little more than
// the same piece on the board.
var pocketBonus = [5]int{20, 30, 30, 40, 60}

// Indexed by relative rank.
var passedPawnMg = [8]int{0, 5, 10, 20, 35, 60, 100, 0}
var passedPawnEg = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

// Per attacked square, indexed by board.PieceType.
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0} // Pawn, Knight, Bishop, Rook, Queen, King
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

// Two or more bishops on one side.
const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

// Rooks on files with no pawns (open) or no own pawns (half-open).
const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

// Applied per extra pawn on a file and per pawn without neighbours.
const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
)

// Side to move.
const tempoBonus = 10

// Piece-square tables, drawn with rank 8 on top from White's side.
// White squares are flipped vertically to index them.

// Pawns.
var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// Knights.
var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

// Bishops.
var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

// Rooks.
var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

// Queens.
var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King while queens and minor pieces remain.
var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

// King once the board has thinned out.
var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var psts = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST,
}

func pstIndex(sq board.Square, c board.Color) board.Square {
	if c == board.White {
		return sq.Mirror()
	}
	return sq
}

func fileMask(file int) board.Bitboard {
	return board.FileA << file
}

func adjacentFiles(file int) board.Bitboard {
	var bb board.Bitboard
	if file > 0 {
		bb |= fileMask(file - 1)
	}
	if file < 7 {
		bb |= fileMask(file + 1)
	}
	return bb
}

// Evaluate returns the static evaluation of the position from the side
// to move's perspective.
func Evaluate(pos *board.Position) int {
	return EvaluateWithPawnTable(pos, nil)
}

// EvaluateWithPawnTable is like Evaluate but caches pawn structure in pt.
func EvaluateWithPawnTable(pos *board.Position, pt *PawnTable) int {
	var mgScore, egScore int
	var phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}

		for t := board.Pawn; t <= board.King; t++ {
			bb := pos.Pieces[c][t]
			for bb != 0 {
				sq := pstIndex(bb.PopLSB(), c)

				if t == board.King {
					mgScore += sign * kingMidgamePST[sq]
					egScore += sign * kingEndgamePST[sq]
					continue
				}
				mgScore += sign * (pieceValues[t] + psts[t][sq])
				egScore += sign * (pieceValues[t] + psts[t][sq])

				switch t {
				case board.Knight, board.Bishop:
					phase++
				case board.Rook:
					phase += 2
				case board.Queen:
					phase += 4
				}
			}
		}

		for t := board.Pawn; t <= board.Queen; t++ {
			n := pos.Pockets[c][t]
			mgScore += sign * n * (pieceValues[t] + pocketBonus[t])
			egScore += sign * n * (pieceValues[t] + pocketBonus[t])
		}
	}

	psMg, psEg := pawnStructure(pos, pt)
	mgScore += psMg
	egScore += psEg

	mobMg, mobEg := evaluateMobility(pos)
	mgScore += mobMg
	egScore += mobEg

	bpMg, bpEg := evaluateBishopPair(pos)
	mgScore += bpMg
	egScore += bpEg

	rfMg, rfEg := evaluateRooksOnFiles(pos)
	mgScore += rfMg
	egScore += rfEg

	const maxPhase = 24
	if phase > maxPhase {
		phase = maxPhase
	}
	score := (mgScore*phase + egScore*(maxPhase-phase)) / maxPhase
	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

// pawnStructure scores passed, doubled and isolated pawns from White's
// perspective, through the cache when one is given.
func pawnStructure(pos *board.Position, pt *PawnTable) (mg, eg int) {
	white := pos.Pieces[board.White][board.Pawn]
	black := pos.Pieces[board.Black][board.Pawn]
	if pt != nil {
		if mg, eg, ok := pt.Probe(white, black); ok {
			return mg, eg
		}
	}
	mg, eg = evaluatePawns(white, black)
	if pt != nil {
		pt.Store(white, black, mg, eg)
	}
	return mg, eg
}

func evaluatePawns(white, black board.Bitboard) (mg, eg int) {
	pawns := [2]board.Bitboard{white, black}
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		own := pawns[color]
		enemy := pawns[color.Other()]

		bb := own
		for bb != 0 {
			sq := bb.PopLSB()
			file := sq.File()

			onFile := own & fileMask(file)
			if onFile.PopCount() > 1 {
				// Count the rearmost pawn of the file once.
				rear := onFile.LSB()
				if color == board.Black {
					rear = onFile.MSB()
				}
				if sq == rear {
					mg += sign * doubledPawnMgPenalty
					eg += sign * doubledPawnEgPenalty
				}
			}

			if own&adjacentFiles(file) == 0 {
				mg += sign * isolatedPawnMgPenalty
				eg += sign * isolatedPawnEgPenalty
			}

			if enemy&frontSpan(sq, color) == 0 && own&fileMask(file)&frontSpan(sq, color) == 0 {
				rank := sq.RelativeRank(color)
				mg += sign * passedPawnMg[rank]
				eg += sign * passedPawnEg[rank]
			}
		}
	}
	return mg, eg
}

// frontSpan covers the pawn's file and both neighbours on every rank
// ahead of it.
func frontSpan(sq board.Square, c board.Color) board.Bitboard {
	files := fileMask(sq.File()) | adjacentFiles(sq.File())
	var ahead board.Bitboard
	if c == board.White {
		for r := sq.Rank() + 1; r < 8; r++ {
			ahead |= board.Rank1 << (8 * r)
		}
	} else {
		for r := 0; r < sq.Rank(); r++ {
			ahead |= board.Rank1 << (8 * r)
		}
	}
	return files & ahead
}

func evaluateMobility(pos *board.Position) (mgBonus, egBonus int) {
	occupied := pos.AllOccupied

	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}

		enemyPawns := pos.Pieces[color.Other()][board.Pawn]
		var unsafeSquares board.Bitboard
		if color == board.White {
			unsafeSquares = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			unsafeSquares = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}
		blocked := unsafeSquares | pos.Occupied[color] | board.SquareBB(pos.Duck)

		for t := board.Knight; t <= board.Queen; t++ {
			pieces := pos.Pieces[color][t]
			for pieces != 0 {
				sq := pieces.PopLSB()
				var attacks board.Bitboard
				switch t {
				case board.Knight:
					attacks = board.KnightAttacks(sq)
				case board.Bishop:
					attacks = board.BishopAttacks(sq, occupied)
				case board.Rook:
					attacks = board.RookAttacks(sq, occupied)
				case board.Queen:
					attacks = board.QueenAttacks(sq, occupied)
				}
				count := (attacks &^ blocked).PopCount()
				mgBonus += sign * mobilityMgWeight[t] * count
				egBonus += sign * mobilityEgWeight[t] * count
			}
		}
	}
	return mgBonus, egBonus
}

// evaluateBishopPair scores the bishop pair for both sides, White minus Black.
func evaluateBishopPair(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		if pos.Pieces[color][board.Bishop].PopCount() >= 2 {
			mgBonus += sign * bishopPairMgBonus
			egBonus += sign * bishopPairEgBonus
		}
	}
	return mgBonus, egBonus
}

// evaluateRooksOnFiles scores rooks on open and half-open files, White minus Black.
func evaluateRooksOnFiles(pos *board.Position) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}

		ownPawns := pos.Pieces[color][board.Pawn]
		enemyPawns := pos.Pieces[color.Other()][board.Pawn]

		rooks := pos.Pieces[color][board.Rook]
		for rooks != 0 {
			file := fileMask(rooks.PopLSB().File())
			if ownPawns&file != 0 {
				continue
			}
			if enemyPawns&file == 0 {
				mgBonus += sign * rookOpenFileMg
				egBonus += sign * rookOpenFileEg
			} else {
				mgBonus += sign * rookSemiOpenFileMg
				egBonus += sign * rookSemiOpenFileEg
			}
		}
	}
	return mgBonus, egBonus
}
