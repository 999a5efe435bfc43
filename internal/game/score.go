package game

import (
	"slices"
	"strings"

	"github.com/promptfall/promptfall/internal"
)

// =============================================================================
// ROUND SCORING
// =============================================================================

// RankRound turns a finished voting phase into an ordered result list.
// Pure over its inputs so the same collections always produce the same
// ranking. Each valid vote is worth one point; ranking is by votes
// received this round, with submission order breaking ties.
//
// Votes are dropped when the voter or target is no longer in the roster,
// when the target never produced a non-empty response, or when voter and
// target are the same player.
func RankRound(players map[string]*internal.Player, responses map[string]*internal.PlayerResponse, votes map[string]string) []internal.RoundResult {
	// 1. Tally valid votes per target.
	tally := make(map[string]int, len(players))
	for voterId, targetId := range votes {
		if voterId == targetId {
			continue
		}
		if _, ok := players[voterId]; !ok {
			continue
		}
		if _, ok := players[targetId]; !ok {
			continue
		}
		resp, ok := responses[targetId]
		if !ok || resp.Text == "" {
			continue
		}
		tally[targetId]++
	}

	// 2. One result row per roster entry, whether or not they submitted.
	results := make([]internal.RoundResult, 0, len(players))
	order := make(map[string]int, len(players))
	for id, player := range players {
		row := internal.RoundResult{
			PlayerId:   id,
			PlayerName: player.DisplayName,
			VoteCount:  tally[id],
			TotalScore: player.Score + tally[id],
		}
		if resp, ok := responses[id]; ok {
			row.ResponseText = resp.Text
			order[id] = resp.Order
		} else {
			order[id] = len(players) + len(responses)
		}
		results = append(results, row)
	}

	// 3. Votes descending, submission order ascending, player id as the
	// terminal tie-break so the ranking is total over any input.
	slices.SortFunc(results, func(a, b internal.RoundResult) int {
		if a.VoteCount != b.VoteCount {
			return b.VoteCount - a.VoteCount
		}
		if order[a.PlayerId] != order[b.PlayerId] {
			return order[a.PlayerId] - order[b.PlayerId]
		}
		return strings.Compare(a.PlayerId, b.PlayerId)
	})
	for idx := range results {
		results[idx].Rank = idx + 1
	}

	return results
}
