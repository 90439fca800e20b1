package conversation

import "github.com/jonathan/executive-intake/internal/types"

// ComputeProgress derives the progress record from a conversation. It has no side effects
// and is recomputed on every read.
func ComputeProgress(conv *types.Conversation) types.Progress {
	if conv == nil {
		return types.Progress{}
	}

	total := len(conv.QuestionQueue)
	current := conv.CurrentIndex
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}

	denominator := total
	if denominator < 1 {
		denominator = 1
	}
	pct := float64(current) / float64(denominator) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return types.Progress{
		CurrentQuestion:    current,
		TotalQuestions:     total,
		ProgressPercentage: pct,
		IsComplete:         conv.Phase == types.PhaseCompleted,
	}
}
