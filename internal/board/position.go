package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// Position represents a complete game position of any variant.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	Occupied    [2]Bitboard // All pieces of each color
	AllOccupied Bitboard    // All pieces on the board, the duck included

	Duck        Square // NoSquare until the duck is first placed
	DuckPending bool   // the side to move must place the duck next

	// Pockets hold house-mode captures: [Color][Pawn..Queen].
	Pockets [2][5]int

	Variant        Variant
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int
	StartMove      int // FullMoveNumber when the position was loaded
	Turns          int // completed turns since the position was loaded

	Hash uint64

	// History holds the hashes of earlier positions since the last
	// irreversible move, oldest first.
	History []uint64
}

// UndoInfo stores everything MakeMove changes.
type UndoInfo struct {
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Duck           Square
	DuckPending    bool
	Pockets        [2][5]int
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
	Turns          int
	Hash           uint64
	History        []uint64
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	np := *p
	np.History = append([]uint64(nil), p.History...)
	return &np
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	if sq == p.Duck {
		return DuckPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// KingSquare returns the king square of color c, or NoSquare.
func (p *Position) KingSquare(c Color) Square {
	return p.Pieces[c][King].LSB()
}

func (p *Position) addPiece(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Hash ^= zobristPiece[c][pt][sq]
}

func (p *Position) removePiece(c Color, pt PieceType, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.Hash ^= zobristPiece[c][pt][sq]
}

// setDuck moves the duck to sq. The caller maintains the state key.
func (p *Position) setDuck(sq Square) {
	p.AllOccupied &^= SquareBB(p.Duck)
	p.Duck = sq
	p.AllOccupied |= SquareBB(sq)
}

func (p *Position) addPocket(c Color, pt PieceType, delta int) {
	n := p.Pockets[c][pt]
	p.Hash ^= pocketKey(c, pt, n) ^ pocketKey(c, pt, n+delta)
	p.Pockets[c][pt] = n + delta
}

// HasPocketPieces reports whether either side holds a piece to drop.
func (p *Position) HasPocketPieces() bool {
	return p.Pockets != [2][5]int{}
}

// MakeMove applies a move to the position and returns undo information.
// The move must come from this position's move generator or be a
// decoded Code of such a move; it is not validated.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		Pieces:         p.Pieces,
		Occupied:       p.Occupied,
		AllOccupied:    p.AllOccupied,
		Duck:           p.Duck,
		DuckPending:    p.DuckPending,
		Pockets:        p.Pockets,
		SideToMove:     p.SideToMove,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
		Turns:          p.Turns,
		Hash:           p.Hash,
		History:        p.History,
	}

	p.Hash ^= p.stateKey()
	if m.IsDuck() {
		p.setDuck(m.To)
		p.DuckPending = false
		p.History = append(p.History, undo.Hash)
		p.endTurn()
		p.Hash ^= p.stateKey()
		return undo
	}

	us := p.SideToMove
	them := us.Other()
	r := p.Variant.rules()
	captured := NoPieceType

	p.EnPassant = NoSquare

	if m.IsDrop() {
		p.addPiece(us, m.Piece, m.To)
		p.addPocket(us, m.Piece, -1)
		if m.Piece == Pawn {
			p.HalfMoveClock = 0
		} else {
			p.HalfMoveClock++
		}
	} else {
		pt := p.PieceAt(m.From).Type()
		if m.IsEnPassant() {
			capSq := m.To - 8
			if us == Black {
				capSq = m.To + 8
			}
			p.removePiece(them, Pawn, capSq)
			captured = Pawn
		} else if target := p.PieceAt(m.To); target != NoPiece && target.Color() == them {
			captured = target.Type()
			p.removePiece(them, captured, m.To)
		}

		p.removePiece(us, pt, m.From)
		if m.IsPromotion() {
			p.addPiece(us, m.Promotion, m.To)
		} else {
			p.addPiece(us, pt, m.To)
		}

		if m.IsCastling() {
			rank := m.From.Rank()
			rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
			if m.To < m.From {
				rookFrom, rookTo = NewSquare(0, rank), NewSquare(3, rank)
			}
			p.removePiece(us, Rook, rookFrom)
			p.addPiece(us, Rook, rookTo)
		}

		if pt == King {
			if us == White {
				p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
			} else {
				p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
			}
		}
		p.CastlingRights &^= castleMask(m.From) | castleMask(m.To)

		if pt == Pawn && (int(m.To)-int(m.From) == 16 || int(m.From)-int(m.To) == 16) {
			p.EnPassant = Square((int(m.From) + int(m.To)) / 2)
		}

		if pt == Pawn || captured != NoPieceType {
			p.HalfMoveClock = 0
		} else {
			p.HalfMoveClock++
		}

		if r.drops && captured != NoPieceType && captured != King {
			p.addPocket(us, captured, 1)
		}
	}

	if p.HalfMoveClock == 0 {
		p.History = make([]uint64, 0, 16)
	} else {
		p.History = append(p.History, undo.Hash)
	}

	if r.duckPhase && captured != King {
		p.DuckPending = true
	} else {
		p.endTurn()
	}
	p.Hash ^= p.stateKey()
	return undo
}

// endTurn hands the move to the other side. The full move number
// advances once per two completed turns.
func (p *Position) endTurn() {
	p.SideToMove = p.SideToMove.Other()
	p.Turns++
	p.FullMoveNumber = p.StartMove + p.Turns/2
}

func castleMask(sq Square) CastlingRights {
	switch sq {
	case A1:
		return WhiteQueenSideCastle
	case H1:
		return WhiteKingSideCastle
	case A8:
		return BlackQueenSideCastle
	case H8:
		return BlackKingSideCastle
	}
	return NoCastling
}

// UnmakeMove restores the position saved by MakeMove.
func (p *Position) UnmakeMove(undo UndoInfo) {
	p.Pieces = undo.Pieces
	p.Occupied = undo.Occupied
	p.AllOccupied = undo.AllOccupied
	p.Duck = undo.Duck
	p.DuckPending = undo.DuckPending
	p.Pockets = undo.Pockets
	p.SideToMove = undo.SideToMove
	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.FullMoveNumber = undo.FullMoveNumber
	p.Turns = undo.Turns
	p.Hash = undo.Hash
	p.History = undo.History
}

// RepetitionCount returns how often the current position has occurred,
// counting the current occurrence.
func (p *Position) RepetitionCount() int {
	n := 1
	for _, h := range p.History {
		if h == p.Hash {
			n++
		}
	}
	return n
}

// IsRepetition reports whether the position occurred before.
func (p *Position) IsRepetition() bool {
	for i := len(p.History) - 1; i >= 0; i-- {
		if p.History[i] == p.Hash {
			return true
		}
	}
	return false
}

// Material returns the material balance (positive favors white),
// pocket pieces included.
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += (p.Pieces[White][pt].PopCount() + p.Pockets[White][pt]) * PieceValue[pt]
		score -= (p.Pieces[Black][pt].PopCount() + p.Pockets[Black][pt]) * PieceValue[pt]
	}
	return score
}

// HasNonPawnMaterial returns true if the side to move has non-pawn material.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Variant: %s\n", p.Variant)
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	if p.DuckPending {
		sb.WriteString("Duck placement pending\n")
	}
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}
