package signal

import (
	"errors"
	"fmt"
)

var (
	ErrNoStreams            = errors.New("consolidation requires at least one signal stream")
	ErrStreamLengthMismatch = errors.New("signal streams must have equal length")
)

// Consolidate merges independently generated signal streams into one net
// position series. Each index is reduced on its own, no cross-index memory:
// the first nonzero value in list order wins, so earlier streams take
// precedence when several hold a position at once. All-zero columns stay 0.
func Consolidate(streams [][]int) ([]int, error) {
	if len(streams) == 0 {
		return nil, ErrNoStreams
	}
	n := len(streams[0])
	for i, s := range streams[1:] {
		if len(s) != n {
			return nil, fmt.Errorf("%w: stream 0 has %d points, stream %d has %d",
				ErrStreamLengthMismatch, n, i+1, len(s))
		}
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		for _, s := range streams {
			if s[i] != 0 {
				out[i] = s[i]
				break
			}
		}
	}
	return out, nil
}
