package reactions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   string
	}{
		{"empty", nil, "0"},
		{"likes only", []string{"like", "like"}, "2"},
		{"mixed", []string{"🔥", "🔥", "💀", "like"}, "4🔥💀"},
		{"capped at four symbols", []string{"a", "b", "c", "d", "e"}, "5abcd"},
		{"first seen order", []string{"b", "a", "a", "a", "b"}, "5ba"},
		{"like between", []string{"like", "😂", "like", "😂"}, "4😂"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Aggregate(c.values))
		})
	}
}

func ptr(s string) *string { return &s }

func TestNext(t *testing.T) {
	assert.Equal(t, Transition{Action: Insert, Value: "🔥"}, Next(nil, "🔥"))
	assert.Equal(t, Transition{Action: Insert, Value: "like"}, Next(nil, "like"))
	assert.Equal(t, Transition{Action: Delete}, Next(ptr("🔥"), "🔥"))
	assert.Equal(t, Transition{Action: Delete}, Next(ptr("like"), "like"))
	assert.Equal(t, Transition{Action: Update, Value: "💀"}, Next(ptr("🔥"), "💀"))
	assert.Equal(t, Transition{Action: Update, Value: "🔥"}, Next(ptr("like"), "🔥"))
}

func TestNextLikeAlwaysClears(t *testing.T) {
	for _, v := range []string{"🔥", "💀", "like", "anything"} {
		tr := Next(ptr(v), "like")
		assert.Equal(t, Delete, tr.Action, v)
		assert.Nil(t, tr.Result())
	}
}

func TestNextTwiceReturnsToUnset(t *testing.T) {
	var slot *string
	for i := 0; i < 2; i++ {
		slot = Next(slot, "🎉").Result()
	}
	assert.Nil(t, slot)
}

func TestTransitionResult(t *testing.T) {
	r := Transition{Action: Update, Value: "x"}.Result()
	require.NotNil(t, r)
	assert.Equal(t, "x", *r)
	assert.Equal(t, "delete", Delete.String())
}
