package service

import (
	"giveaway-bot/internal/utils/random"
)

// SelectWinners draws winners from the participant pool:
//
//   - empty pool: no winners
//   - pool no larger than winnerCount: every participant wins
//   - otherwise: exactly winnerCount distinct participants, uniformly at
//     random without replacement
//
// The pool itself is never modified, so a reroll against the same pool is an
// independent draw.
func SelectWinners(participants []string, winnerCount int) ([]string, error) {
	if len(participants) == 0 {
		return nil, nil
	}
	return random.Sample(participants, winnerCount)
}
