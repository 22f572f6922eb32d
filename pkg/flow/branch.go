package flow

import "github.com/dexlens/dexlens/pkg/model"

// DeadSide names which successor of a conditional, if any, is
// statically unreachable.
type DeadSide int

const (
	// DeadSideNone means both successors are potentially reachable —
	// either the guard genuinely depends on runtime state, or (per the
	// dead-branch rule) at least one operand wasn't fully concrete.
	DeadSideNone DeadSide = iota
	DeadSideTaken
	DeadSideFallthrough
)

func (d DeadSide) String() string {
	switch d {
	case DeadSideTaken:
		return "taken"
	case DeadSideFallthrough:
		return "fallthrough"
	default:
		return "none"
	}
}

// Branching is one conditional encountered during analysis: its code
// index, both successor code indices, which side (if either) is dead,
// and the method it belongs to.
type Branching struct {
	PC            int
	TakenPC       int
	FallthroughPC int
	DeadSide      DeadSide
	Method        *model.Method
}
