package shotload

import (
	"errors"
	"fmt"
)

// VerifyLeaderboard checks that board is ordered by accuracy desc then
// player asc, that ranks run 1..n, and that every GET /rank row inside the
// board agrees with it.
func VerifyLeaderboard(board, ranks []Entry) error {
	if len(board) == 0 {
		if len(ranks) > 0 {
			return errors.New("empty leaderboard with trained players")
		}
		return nil
	}
	for i, e := range board {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d (%s) has rank %d", i, e.Player, e.Rank)
		}
		if i == 0 {
			continue
		}
		prev := board[i-1]
		if e.Accuracy > prev.Accuracy || (e.Accuracy == prev.Accuracy && e.Player < prev.Player) {
			return fmt.Errorf("leaderboard not sorted at rank %d: %s (%.4f) after %s (%.4f)",
				e.Rank, e.Player, e.Accuracy, prev.Player, prev.Accuracy)
		}
	}

	byPlayer := make(map[string]Entry, len(board))
	for _, e := range board {
		byPlayer[e.Player] = e
	}
	for _, r := range ranks {
		if r.Rank < 1 {
			return fmt.Errorf("%s has invalid rank %d", r.Player, r.Rank)
		}
		if r.Rank > len(board) {
			continue
		}
		b, ok := byPlayer[r.Player]
		if !ok {
			return fmt.Errorf("%s has rank %d but is missing from the leaderboard", r.Player, r.Rank)
		}
		if b.Rank != r.Rank || b.Accuracy != r.Accuracy {
			return fmt.Errorf("%s: leaderboard says rank %d (%.4f), rank endpoint says %d (%.4f)",
				r.Player, b.Rank, b.Accuracy, r.Rank, r.Accuracy)
		}
	}
	return nil
}
