package board

import (
	"fmt"
	"strings"
)

// Variant selects the rule set a position is played under.
type Variant uint8

const (
	Standard Variant = iota
	DuckChess
	House
)

// rules holds the per-variant switches consulted by move generation,
// make/unmake and state classification.
type rules struct {
	selfCheck     bool // moves may not leave the own king attacked
	kingCapture   bool // kings can be taken; losing the king loses the game
	duckPhase     bool // every piece move is followed by a duck placement
	drops         bool // captured pieces go to the capturer's pocket
	materialDraws bool
}

var variantRules = [...]rules{
	Standard:  {selfCheck: true, materialDraws: true},
	DuckChess: {kingCapture: true, duckPhase: true},
	House:     {selfCheck: true, drops: true, materialDraws: true},
}

func (v Variant) rules() rules {
	if int(v) >= len(variantRules) {
		return variantRules[Standard]
	}
	return variantRules[v]
}

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case Standard:
		return "standard"
	case DuckChess:
		return "duck"
	case House:
		return "house"
	}
	return fmt.Sprintf("variant(%d)", v)
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "standard", "chess", "":
		return Standard, nil
	case "duck":
		return DuckChess, nil
	case "house", "crazyhouse":
		return House, nil
	}
	return Standard, fmt.Errorf("unknown variant %q", s)
}

// SetVariant switches the rule set of a position. Leaving duck chess
// removes the duck and any pending placement; leaving house mode empties
// the pockets.
func (p *Position) SetVariant(v Variant) {
	if v != DuckChess {
		p.setDuck(NoSquare)
		p.DuckPending = false
	}
	if v != House {
		p.Pockets = [2][5]int{}
	}
	p.Variant = v
	p.Hash = p.ComputeHash()
}
