package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrMalformedFEN is wrapped by every FEN parse error.
var ErrMalformedFEN = errors.New("malformed FEN")

func fenError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFEN, fmt.Sprintf(format, args...))
}

// ParseFEN parses a FEN string and returns a Position.
//
// A '$' in the placement marks the duck and selects duck chess. A
// bracketed pocket after the placement ("...R[Qnp]") selects house mode.
// The two move counters are optional but come as a pair.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 4 && len(parts) != 6 {
		return nil, fenError("need 4 or 6 fields, got %d", len(parts))
	}

	pos := &Position{
		Duck:           NoSquare,
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}

	placement := parts[0]
	if i := strings.IndexByte(placement, '['); i >= 0 {
		if !strings.HasSuffix(placement, "]") {
			return nil, fenError("unterminated pocket in %q", placement)
		}
		if err := parsePocket(pos, placement[i+1:len(placement)-1]); err != nil {
			return nil, err
		}
		placement = placement[:i]
		pos.Variant = House
	}
	if err := parsePiecePlacement(pos, placement); err != nil {
		return nil, err
	}
	if pos.Duck != NoSquare {
		if pos.Variant == House {
			return nil, fenError("duck and pocket in one position")
		}
		pos.Variant = DuckChess
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fenError("invalid side to move: %s", parts[1])
	}

	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		// The square the opponent's pawn skipped: rank 6 with White to
		// move, rank 3 with Black to move.
		epRank := 5
		if pos.SideToMove == Black {
			epRank = 2
		}
		sq, err := ParseSquare(parts[3])
		if err != nil || sq.Rank() != epRank {
			return nil, fenError("invalid en passant square: %s", parts[3])
		}
		pos.EnPassant = sq
	}

	if len(parts) == 6 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fenError("invalid half-move clock: %s", parts[4])
		}
		pos.HalfMoveClock = hmc

		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 0 {
			return nil, fenError("invalid full-move number: %s", parts[5])
		}
		pos.FullMoveNumber = fmn
	}
	pos.StartMove = pos.FullMoveNumber

	pos.Hash = pos.ComputeHash()
	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fenError("need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // rank 8 comes first
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fenError("too many squares in rank %d", rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fenError("invalid piece character: %c", c)
			}
			sq := NewSquare(file, rank)
			if piece == DuckPiece {
				if pos.Duck != NoSquare {
					return fenError("more than one duck")
				}
				pos.setDuck(sq)
			} else {
				pos.addPiece(piece.Color(), piece.Type(), sq)
			}
			file++
		}

		if file != 8 {
			return fenError("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}
	return nil
}

func parsePocket(pos *Position, pocket string) error {
	for i := 0; i < len(pocket); i++ {
		piece := PieceFromChar(pocket[i])
		if piece == NoPiece || piece.Type() > Queen {
			return fenError("invalid pocket piece: %c", pocket[i])
		}
		pos.Pockets[piece.Color()][piece.Type()]++
	}
	return nil
}

func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		pos.CastlingRights = NoCastling
		return nil
	}

	for i, c := range castling {
		if strings.ContainsRune(castling[:i], c) {
			return fenError("repeated castling character: %c", c)
		}
		switch c {
		case 'K':
			pos.CastlingRights |= WhiteKingSideCastle
		case 'Q':
			pos.CastlingRights |= WhiteQueenSideCastle
		case 'k':
			pos.CastlingRights |= BlackKingSideCastle
		case 'q':
			pos.CastlingRights |= BlackQueenSideCastle
		default:
			return fenError("invalid castling character: %c", c)
		}
	}
	return nil
}

// ToFEN returns the FEN representation of the position. A pending duck
// placement is not representable and is omitted.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	if p.Variant == House {
		sb.WriteByte('[')
		for c := White; c <= Black; c++ {
			for pt := Queen; ; pt-- {
				sb.WriteString(strings.Repeat(NewPiece(pt, c).String(), p.Pockets[c][pt]))
				if pt == Pawn {
					break
				}
			}
		}
		sb.WriteByte(']')
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}
