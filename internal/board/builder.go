package board

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition is returned when a drafted position breaks the
// piece-count or pawn-placement rules.
var ErrInvalidPosition = errors.New("invalid position")

// Builder drafts a position square by square. The draft is not a legal
// game position until Commit validates it.
type Builder struct {
	pos Position
}

// NewBuilder returns a builder holding an empty standard board with white
// to move.
func NewBuilder() *Builder {
	b := &Builder{}
	b.Reset()
	return b
}

// Reset clears the draft.
func (b *Builder) Reset() {
	b.pos = Position{
		Duck:           NoSquare,
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
}

// Put places a piece of type pt and color c on sq, replacing whatever
// was there. Putting the duck moves it and ignores c.
func (b *Builder) Put(sq Square, pt PieceType, c Color) {
	if !sq.IsValid() || pt > Duck {
		return
	}
	if pt == Duck {
		b.PutDuck(sq)
		return
	}
	if c > Black {
		return
	}
	b.Remove(sq)
	b.pos.addPiece(c, pt, sq)
}

// Remove clears sq.
func (b *Builder) Remove(sq Square) {
	p := &b.pos
	switch old := p.PieceAt(sq); old {
	case NoPiece:
	case DuckPiece:
		p.setDuck(NoSquare)
	default:
		p.removePiece(old.Color(), old.Type(), sq)
	}
}

// PutDuck places the duck and switches the draft to duck chess.
func (b *Builder) PutDuck(sq Square) {
	if !sq.IsValid() {
		return
	}
	b.Remove(sq)
	b.pos.setDuck(sq)
	b.pos.Variant = DuckChess
}

// SetTurn sets the side to move.
func (b *Builder) SetTurn(c Color) {
	b.pos.SideToMove = c
}

// SetCastlingsEPAnd50 sets castling rights, the en passant target
// (NoSquare for none) and the half-move clock. Rights are kept as given.
func (b *Builder) SetCastlingsEPAnd50(wKing, wQueen, bKing, bQueen bool, ep Square, halfMoves int) {
	cr := NoCastling
	if wKing {
		cr |= WhiteKingSideCastle
	}
	if wQueen {
		cr |= WhiteQueenSideCastle
	}
	if bKing {
		cr |= BlackKingSideCastle
	}
	if bQueen {
		cr |= BlackQueenSideCastle
	}
	b.pos.CastlingRights = cr
	b.pos.EnPassant = ep
	b.pos.HalfMoveClock = halfMoves
}

// SetFullMove sets the full move number.
func (b *Builder) SetFullMove(n int) {
	b.pos.FullMoveNumber = n
}

// SetVariant selects the rule set.
func (b *Builder) SetVariant(v Variant) {
	b.pos.Variant = v
}

// SetPocket sets the number of pieces of type pt held by c.
func (b *Builder) SetPocket(c Color, pt PieceType, n int) {
	if pt > Queen || c > Black {
		return
	}
	b.pos.Pockets[c][pt] = n
}

// Commit validates the draft and returns it as a game position. The
// builder keeps its draft.
func (b *Builder) Commit() (*Position, error) {
	p := b.pos
	for c := White; c <= Black; c++ {
		if n := p.Pieces[c][King].PopCount(); n != 1 {
			return nil, fmt.Errorf("%w: %s has %d kings", ErrInvalidPosition, c, n)
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return nil, fmt.Errorf("%w: pawn on first or last rank", ErrInvalidPosition)
	}
	if p.EnPassant != NoSquare {
		epRank := 5
		if p.SideToMove == Black {
			epRank = 2
		}
		if p.EnPassant.Rank() != epRank {
			return nil, fmt.Errorf("%w: en passant square %s with %s to move", ErrInvalidPosition, p.EnPassant, p.SideToMove)
		}
	}
	if p.Variant != House {
		p.Pockets = [2][5]int{}
	}
	p.DuckPending = false
	p.StartMove = p.FullMoveNumber
	p.Turns = 0
	p.History = nil
	p.Hash = p.ComputeHash()
	return &p, nil
}
