package insurance

// claimTransitions is the allowed status transition table. A denied claim
// may be resubmitted; paid is terminal.
var claimTransitions = map[string][]string{
	ClaimDraft:         {ClaimSubmitted},
	ClaimSubmitted:     {ClaimInProcess, ClaimDenied, ClaimPartiallyPaid, ClaimPaid},
	ClaimInProcess:     {ClaimDenied, ClaimPartiallyPaid, ClaimPaid},
	ClaimDenied:        {ClaimSubmitted},
	ClaimPartiallyPaid: {ClaimPaid},
	ClaimPaid:          {},
}

// CanTransition reports whether a claim may move from one status to another.
// Keeping the current status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, t := range claimTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
