// Package reactions computes image reaction summaries and the per-user
// reaction toggle.
package reactions

import (
	"strconv"
	"strings"

	"github.com/petermazzocco/photo-lobby/models"
)

const (
	// MaxSymbols is how many distinct glyphs a summary shows.
	MaxSymbols = 4
	// MaxValueLength bounds a reaction value in runes. Compound emoji can
	// run to a dozen code points.
	MaxValueLength = 32
)

// Aggregate returns the display string for an image's reactions: the total
// count followed by up to MaxSymbols distinct non-like values in the order
// they were first seen. No reactions yields "0".
func Aggregate(values []string) string {
	if len(values) == 0 {
		return models.InitialReactions
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(values)))

	seen := make(map[string]struct{}, MaxSymbols)
	for _, v := range values {
		if len(seen) == MaxSymbols {
			break
		}
		if v == models.LikeReaction {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		b.WriteString(v)
	}
	return b.String()
}

type Action int

const (
	Insert Action = iota + 1
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Transition is the row change needed to move a user's reaction slot to its
// next state. Value is empty for Delete.
type Transition struct {
	Action Action
	Value  string
}

// Next decides what submitting a reaction does to the slot holding current
// (nil when the user has not reacted). Submitting the current value again
// clears it, and submitting like over any reaction clears it too.
func Next(current *string, submitted string) Transition {
	if current == nil {
		return Transition{Action: Insert, Value: submitted}
	}
	if submitted == *current || submitted == models.LikeReaction {
		return Transition{Action: Delete}
	}
	return Transition{Action: Update, Value: submitted}
}

// Result returns the value the slot holds after t, or nil when it is empty.
func (t Transition) Result() *string {
	if t.Action == Delete {
		return nil
	}
	v := t.Value
	return &v
}
