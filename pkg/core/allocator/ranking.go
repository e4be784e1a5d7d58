package allocator

import "sort"

// RankVolunteerGroups sorts the group pool in place, highest score first.
// The sort is stable so equal-scored groups keep their deterministic
// init order.
func RankVolunteerGroups(state *RotaState, criteria []Criterion, targetFrequency float64) {
	groups := state.VolunteerState.VolunteerGroups

	groupScores := make(map[*VolunteerGroup]float64, len(groups))
	for _, group := range groups {
		groupScores[group] = calculateGroupRankingScore(state, group, criteria, targetFrequency)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groupScores[groups[i]] > groupScores[groups[j]]
	})
}

// calculateGroupRankingScore scores a group for queue priority. Three
// built-in terms (urgency within this rota, fairness across rotas, a
// fixed bump for multi-member groups) plus every criterion's weighted
// promotion. Higher scores are allocated earlier.
func calculateGroupRankingScore(state *RotaState, group *VolunteerGroup, criteria []Criterion, targetFrequency float64) float64 {
	totalScore := 0.0

	remainingAvailability := len(group.AvailableShiftIndices) - len(group.AllocatedShiftIndices)

	// Urgency: how tight is this group's remaining availability against
	// what it still needs from this rota? Never below 1 so every live
	// group carries the base weight.
	if remainingAvailability > 0 {
		targetAllocationsThisRota := int(float64(len(state.Shifts)) * targetFrequency)
		remainingNeededThisRota := targetAllocationsThisRota - len(group.AllocatedShiftIndices)

		urgency := float64(remainingNeededThisRota) / float64(remainingAvailability)
		if urgency < 1.0 {
			urgency = 1.0
		}

		totalScore += urgency * state.WeightCurrentRotaUrgency
	}

	// Fairness: groups behind their long-run target frequency move up,
	// groups ahead move down. Normalised by rota length, clamped to [-1, 1].
	if len(state.Shifts) > 0 {
		desiredRemaining := group.DesiredRemainingAllocations(
			len(state.HistoricalShifts),
			len(state.Shifts),
			targetFrequency,
		)

		fairness := float64(desiredRemaining) / float64(len(state.Shifts))
		if fairness > 1.0 {
			fairness = 1.0
		}
		if fairness < -1.0 {
			fairness = -1.0
		}

		totalScore += fairness * state.WeightOverallFrequencyFairness
	}

	// Multi-member groups go early while shifts still have room for them
	if len(group.Members) > 1 {
		totalScore += state.WeightPromoteGroup
	}

	for _, criterion := range criteria {
		totalScore += criterion.PromoteVolunteerGroup(state, group) * criterion.GroupWeight()
	}

	return totalScore
}
