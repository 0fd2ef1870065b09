package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixelcourt/pixelcourt/internal/narration"
)

func ts(word string, start float64) narration.WordTimestamp {
	return narration.WordTimestamp{Word: word, Start: start, End: start + 0.1}
}

func TestJoinWords(t *testing.T) {
	timestamps := []narration.WordTimestamp{
		ts("Order", 0.0),
		ts("in", 0.2),
		ts("the", 0.4),
		ts("court", 0.6),
		ts("!", 0.8),
	}

	assert.Equal(t, "Order in the court!", JoinWords(timestamps))
}

func TestJoinWords_PunctuationVariants(t *testing.T) {
	timestamps := []narration.WordTimestamp{
		ts("Yes", 0.0),
		ts(",", 0.1),
		ts("it", 0.2),
		ts("worked", 0.3),
		ts(".", 0.4),
	}

	assert.Equal(t, "Yes, it worked.", JoinWords(timestamps))
}

func TestJoinWords_Empty(t *testing.T) {
	assert.Equal(t, "", JoinWords(nil))
}

func TestRevealAt(t *testing.T) {
	timestamps := []narration.WordTimestamp{
		ts("Order", 0.0),
		ts("in", 0.5),
		ts("the", 1.0),
		ts("court", 1.5),
	}

	assert.Equal(t, "Order", RevealAt(timestamps, 0.1))
	assert.Equal(t, "Order in", RevealAt(timestamps, 0.5))
	assert.Equal(t, "Order in the", RevealAt(timestamps, 1.2))
	assert.Equal(t, "Order in the court", RevealAt(timestamps, 10.0))
}

func TestRevealAt_BeforeFirstWord(t *testing.T) {
	timestamps := []narration.WordTimestamp{ts("Order", 0.5)}

	assert.Equal(t, "", RevealAt(timestamps, 0.0))
}

func TestRevealAt_MonotonicPrefix(t *testing.T) {
	timestamps := []narration.WordTimestamp{
		ts("a", 0.0),
		ts("b", 0.3),
		ts(",", 0.4),
		ts("c", 0.6),
	}

	prev := ""
	for _, pos := range []float64{0.0, 0.1, 0.3, 0.4, 0.5, 0.6, 0.7} {
		got := RevealAt(timestamps, pos)
		assert.GreaterOrEqual(t, len(got), len(prev), "reveal shrank at position %v", pos)
		prev = got
	}
	assert.Equal(t, "a b, c", prev)
}
