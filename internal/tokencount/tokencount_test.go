package tokencount

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	require.Equal(t, 0, Estimate(""))
	require.Greater(t, Estimate("hello"), 0)

	short := Estimate("hello world")
	long := Estimate("hello world, this is a much longer sentence with many more words in it")
	require.Greater(t, long, short)
}

func TestHeuristic(t *testing.T) {
	require.Equal(t, 0, heuristic(""))
	require.Equal(t, 1, heuristic("ab"))
	require.Equal(t, 3, heuristic("hello world!"))
}
