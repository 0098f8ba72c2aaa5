package board

// Color is a side: White or Black. The duck belongs to NoColor.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType represents the type of a piece. Duck is the neutral blocker
// of duck chess and has no color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	Duck
	NoPieceType PieceType = 7
)

func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	case Duck:
		return "Duck"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase, '$' for the duck).
func (pt PieceType) Char() byte {
	if pt > NoPieceType {
		return ' '
	}
	return "pnbrqk$ "[pt]
}

// PieceTypeFromChar parses a piece letter in either case.
func PieceTypeFromChar(c byte) PieceType {
	switch c {
	case 'p', 'P':
		return Pawn
	case 'n', 'N':
		return Knight
	case 'b', 'B':
		return Bishop
	case 'r', 'R':
		return Rook
	case 'q', 'Q':
		return Queen
	case 'k', 'K':
		return King
	case '$':
		return Duck
	}
	return NoPieceType
}

// PieceValue is the material of each PieceType in centipawns.
var PieceValue = [8]int{100, 320, 330, 500, 900, 20000, 0, 0}

// Piece is a colored piece, White pieces first, then Black, then the duck.
// For colored pieces the value is pieceType + 6*color.
type Piece uint8

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
	DuckPiece
	NoPiece
)

// NewPiece returns the piece of type pt and color c. The duck ignores c.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == Duck {
		return DuckPiece
	}
	if pt >= Duck || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

func (p Piece) Type() PieceType {
	switch {
	case p == DuckPiece:
		return Duck
	case p >= NoPiece:
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the Color of the piece. The duck has NoColor.
func (p Piece) Color() Color {
	if p >= DuckPiece {
		return NoColor
	}
	return Color(p / 6)
}

// String returns the FEN letter, upper case for White.
func (p Piece) String() string {
	if p > DuckPiece {
		return " "
	}
	return string("PNBRQKpnbrqk$"[p])
}

// PieceFromChar parses a FEN letter; the case picks the color.
func PieceFromChar(c byte) Piece {
	pt := PieceTypeFromChar(c)
	switch {
	case pt == NoPieceType:
		return NoPiece
	case pt == Duck:
		return DuckPiece
	case c >= 'a' && c <= 'z':
		return NewPiece(pt, Black)
	}
	return NewPiece(pt, White)
}

func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
