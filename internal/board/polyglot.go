package board

// Opening-book keys. The book format stores a 64-bit key per position;
// these tables are independent of the search keys so book files stay
// valid if the search hashing changes.
var (
	bookPieceKeys     [12][64]uint64 // [kind][square], black kinds first
	bookCastlingKeys  [4]uint64      // KQkq
	bookEnPassantKeys [8]uint64      // [file]
	bookSideKey       uint64
)

func init() {
	s := uint64(0x37b4a4b3f0d1c0d0)
	next := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545F4914F6CDD1D
	}
	for kind := range bookPieceKeys {
		for sq := range bookPieceKeys[kind] {
			bookPieceKeys[kind][sq] = next()
		}
	}
	for i := range bookCastlingKeys {
		bookCastlingKeys[i] = next()
	}
	for i := range bookEnPassantKeys {
		bookEnPassantKeys[i] = next()
	}
	bookSideKey = next()
}

// bookKind orders pieces black pawn..king, then white pawn..king.
func bookKind(c Color, pt PieceType) int {
	if c == White {
		return 6 + int(pt)
	}
	return int(pt)
}

// PolyglotHash computes the opening-book key of a standard position.
// The en passant file only counts when a pawn can actually capture.
func (p *Position) PolyglotHash() uint64 {
	var hash uint64

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				hash ^= bookPieceKeys[bookKind(c, pt)][bb.PopLSB()]
			}
		}
	}

	for i := range bookCastlingKeys {
		if p.CastlingRights&(1<<i) != 0 {
			hash ^= bookCastlingKeys[i]
		}
	}

	if p.EnPassant != NoSquare {
		them := p.SideToMove.Other()
		if PawnAttacks(p.EnPassant, them)&p.Pieces[p.SideToMove][Pawn] != 0 {
			hash ^= bookEnPassantKeys[p.EnPassant.File()]
		}
	}

	if p.SideToMove == White {
		hash ^= bookSideKey
	}
	return hash
}
