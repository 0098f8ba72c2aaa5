package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [2][6][64]uint64 // [Color][PieceType][Square]
	zobristEnPassant  [8]uint64        // One per file
	zobristCastling   [16]uint64       // All 16 castling combinations
	zobristSideToMove uint64           // XOR when black to move
	zobristDuck       [65]uint64       // index 64 (no duck) stays zero
	zobristDuckTurn   uint64           // XOR while a duck placement is pending
	zobristPocket     [2][5]uint64     // multiplied by the pocket count
)

func init() {
	rng := newPRNG(0x98F107A2BEEF1234)

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}
	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()

	for sq := A1; sq <= H8; sq++ {
		zobristDuck[sq] = rng.next()
	}
	zobristDuckTurn = rng.next()
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= Queen; pt++ {
			zobristPocket[c][pt] = rng.next()
		}
	}
}

type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64*
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// stateKey folds everything except piece placement and pockets into one key.
// MakeMove xors it out before mutating and back in afterwards.
func (p *Position) stateKey() uint64 {
	k := zobristCastling[p.CastlingRights] ^ zobristDuck[p.Duck]
	if p.SideToMove == Black {
		k ^= zobristSideToMove
	}
	if p.EnPassant != NoSquare {
		k ^= zobristEnPassant[p.EnPassant.File()]
	}
	if p.DuckPending {
		k ^= zobristDuckTurn
	}
	return k
}

func pocketKey(c Color, pt PieceType, n int) uint64 {
	return zobristPocket[c][pt] * uint64(n)
}

// ComputeHash computes the Zobrist hash from scratch.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				h ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
		for pt := Pawn; pt <= Queen; pt++ {
			h ^= pocketKey(c, pt, p.Pockets[c][pt])
		}
	}
	return h ^ p.stateKey()
}
