package board

import (
	"fmt"
	"strings"
)

// MoveFlags annotate a move with its special kind.
type MoveFlags uint8

// Move flags
const (
	FlagDoublePush MoveFlags = 1 << iota // first pawn move of two squares; sets the en passant target
	FlagEnPassant
	FlagCastling
	FlagCheck // the move attacks the enemy king
	FlagDuck  // duck placement
	FlagDrop  // house-mode drop from the pocket
)

// Move is an immutable move value. From is NoSquare for drops and for the
// first placement of the duck.
type Move struct {
	From      Square
	To        Square
	Piece     PieceType
	Captured  PieceType
	Promotion PieceType
	Flags     MoveFlags
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Piece: NoPieceType, Captured: NoPieceType, Promotion: NoPieceType}

// Code is the compact integer form of a Move.
//
//	bits  0-6:  from square (64 = none)
//	bits  7-13: to square
//	bits 14-16: moving piece type
//	bits 17-19: captured piece type (7 = none)
//	bits 20-22: promotion piece type (7 = none)
//	bits 23-28: flags
//
// Code 0 is NoMove.
type Code uint32

// NewMove creates a plain move of piece pt, capturing captured (NoPieceType if none).
func NewMove(from, to Square, pt, captured PieceType) Move {
	return Move{From: from, To: to, Piece: pt, Captured: captured, Promotion: NoPieceType}
}

// NewPromotion creates a pawn promotion.
func NewPromotion(from, to Square, captured, promo PieceType) Move {
	return Move{From: from, To: to, Piece: Pawn, Captured: captured, Promotion: promo}
}

// NewDuckMove creates a duck placement from the duck's current square.
func NewDuckMove(from, to Square) Move {
	return Move{From: from, To: to, Piece: Duck, Captured: NoPieceType, Promotion: NoPieceType, Flags: FlagDuck}
}

// NewDrop creates a house-mode drop.
func NewDrop(pt PieceType, to Square) Move {
	return Move{From: NoSquare, To: to, Piece: pt, Captured: NoPieceType, Promotion: NoPieceType, Flags: FlagDrop}
}

// Encode packs the move into its Code.
func (m Move) Encode() Code {
	if m == NoMove {
		return 0
	}
	return Code(m.From) | Code(m.To)<<7 | Code(m.Piece)<<14 |
		Code(m.Captured)<<17 | Code(m.Promotion)<<20 | Code(m.Flags)<<23
}

// DecodeMove unpacks a Code produced by Encode.
func DecodeMove(c Code) Move {
	if c == 0 {
		return NoMove
	}
	return Move{
		From:      Square(c & 0x7F),
		To:        Square(c >> 7 & 0x7F),
		Piece:     PieceType(c >> 14 & 7),
		Captured:  PieceType(c >> 17 & 7),
		Promotion: PieceType(c >> 20 & 7),
		Flags:     MoveFlags(c >> 23 & 0x3F),
	}
}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPieceType
}

// IsPromotion reports whether a pawn promotes.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// IsQuiet is true for moves that neither capture nor promote.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

func (m Move) IsDuck() bool      { return m.Flags&FlagDuck != 0 }
func (m Move) IsDrop() bool      { return m.Flags&FlagDrop != 0 }
func (m Move) IsCastling() bool  { return m.Flags&FlagCastling != 0 }
func (m Move) IsEnPassant() bool { return m.Flags&FlagEnPassant != 0 }
func (m Move) GivesCheck() bool  { return m.Flags&FlagCheck != 0 }

// SameAction reports whether two moves describe the same action,
// ignoring the check annotation.
func (m Move) SameAction(o Move) bool {
	m.Flags &^= FlagCheck
	o.Flags &^= FlagCheck
	return m == o
}

// String returns the move in UCI form ("e2e4", "e7e8q"). Drops use the
// crazyhouse form "N@e4" and duck placements "$@e6".
func (m Move) String() string {
	switch {
	case m == NoMove:
		return "0000"
	case m.IsDuck():
		return "$@" + m.To.String()
	case m.IsDrop():
		return strings.ToUpper(string(m.Piece.Char())) + "@" + m.To.String()
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// DebugString returns a short diagnostic form such as "Pe5xd4" or "Qd8-h4+".
func (m Move) DebugString() string {
	if m == NoMove {
		return "--"
	}
	var sb strings.Builder
	switch {
	case m.IsDuck():
		sb.WriteString("$")
		sb.WriteString(m.From.String())
		sb.WriteString("@")
		sb.WriteString(m.To.String())
	case m.IsDrop():
		sb.WriteString(m.String())
	default:
		sb.WriteString(strings.ToUpper(string(m.Piece.Char())))
		sb.WriteString(m.From.String())
		if m.IsCapture() {
			sb.WriteByte('x')
		} else {
			sb.WriteByte('-')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteString(strings.ToUpper(string(m.Promotion.Char())))
		}
		if m.IsEnPassant() {
			sb.WriteString(" ep")
		}
	}
	if m.GivesCheck() {
		sb.WriteByte('+')
	}
	return sb.String()
}

// ParseMove parses a move string and resolves it against the legal
// moves of pos, so the result carries the right capture and flags.
func ParseMove(s string, pos *Position) (Move, error) {
	legal := pos.GenerateLegalMoves()

	if strings.HasPrefix(s, "$@") || (strings.Contains(s, "@") && len(s) == 4) {
		to, err := ParseSquare(s[len(s)-2:])
		if err != nil {
			return NoMove, err
		}
		pt := PieceTypeFromChar(s[0])
		for _, m := range legal.Slice() {
			if m.To == to && m.Piece == pt && (m.IsDuck() || m.IsDrop()) {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("illegal move: %s", s)
	}

	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}
	promo := NoPieceType
	if len(s) == 5 {
		promo = PieceTypeFromChar(s[4])
		if promo < Knight || promo > Queen {
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
	}
	if m, ok := legal.Find(from, to, promo); ok {
		return m, nil
	}
	return NoMove, fmt.Errorf("illegal move: %s", s)
}

// MaxMoves bounds a move list: piece moves plus every possible drop.
const MaxMoves = 640

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Contains reports whether the list holds a move with the same action.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i].SameAction(m) {
			return true
		}
	}
	return false
}

// Find returns the board move from -> to. For promotions promo selects
// the piece; NoPieceType means a queen.
func (ml *MoveList) Find(from, to Square, promo PieceType) (Move, bool) {
	if promo == NoPieceType {
		promo = Queen
	}
	for i := 0; i < ml.count; i++ {
		m := ml.moves[i]
		if m.From != from || m.To != to || m.IsDuck() || m.IsDrop() {
			continue
		}
		if m.IsPromotion() && m.Promotion != promo {
			continue
		}
		return m, true
	}
	return NoMove, false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
