package board

import (
	"fmt"
	"strings"
)

// ToSAN converts a legal move of pos to Standard Algebraic Notation.
// Drops are written "N@e4" and duck placements "@e6".
func (m Move) ToSAN(pos *Position) string {
	switch {
	case m == NoMove:
		return "-"
	case m.IsDuck():
		return "@" + m.To.String()
	case m.IsDrop():
		return m.String() + checkSuffix(pos, m)
	case m.IsCastling():
		if m.To > m.From {
			return "O-O" + checkSuffix(pos, m)
		}
		return "O-O-O" + checkSuffix(pos, m)
	}

	var sb strings.Builder
	if m.Piece != Pawn {
		sb.WriteByte("PNBRQK"[m.Piece])
		sb.WriteString(disambiguation(pos, m))
	}
	if m.IsCapture() {
		if m.Piece == Pawn {
			sb.WriteByte('a' + byte(m.From.File()))
		}
		sb.WriteByte('x')
	}
	sb.WriteString(m.To.String())
	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promotion])
	}
	sb.WriteString(checkSuffix(pos, m))
	return sb.String()
}

func checkSuffix(pos *Position, m Move) string {
	next := pos.Copy()
	next.MakeMove(m)
	if !next.InCheck(next.SideToMove) {
		return ""
	}
	if next.DuckPending || next.HasLegalMoves() {
		return "+"
	}
	return "#"
}

// disambiguation returns the file, rank or square needed to tell m apart
// from moves of same-type pieces to the same square.
func disambiguation(pos *Position, m Move) string {
	var candidates []Square
	for _, o := range pos.GenerateLegalMoves().Slice() {
		if o.To == m.To && o.From != m.From && o.Piece == m.Piece && !o.IsDrop() {
			candidates = append(candidates, o.From)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN parses a SAN string against the legal moves of pos.
func ParseSAN(s string, pos *Position) (Move, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "+#!?")
	legal := pos.GenerateLegalMoves()

	if strings.HasPrefix(s, "@") {
		return ParseMove("$"+s, pos)
	}
	if strings.Contains(s, "@") {
		return ParseMove(s, pos)
	}

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		long := len(s) == 5
		for _, m := range legal.Slice() {
			if m.IsCastling() && (m.To < m.From) == long {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("illegal move: %s", s)
	}

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 && idx+1 < len(s) {
		promo = PieceTypeFromChar(s[idx+1])
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		pt = PieceTypeFromChar(s[0])
		s = s[1:]
	}
	if len(s) < 2 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}

	file, rank := -1, -1
	for _, c := range s[:len(s)-2] {
		if c >= 'a' && c <= 'h' {
			file = int(c - 'a')
		} else if c >= '1' && c <= '8' {
			rank = int(c - '1')
		}
	}

	for _, m := range legal.Slice() {
		if m.To != dest || m.Piece != pt || m.IsDrop() || m.IsDuck() {
			continue
		}
		if (file >= 0 && m.From.File() != file) || (rank >= 0 && m.From.Rank() != rank) {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if m.IsPromotion() && m.Promotion != promo && !(promo == NoPieceType && m.Promotion == Queen) {
			continue
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("illegal move: %s", s)
}

// MovesToSAN converts a sequence of moves played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()
	for i, m := range moves {
		result[i] = m.ToSAN(p)
		p.MakeMove(m)
	}
	return result
}
