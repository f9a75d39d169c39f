package intent

import (
	"github.com/hrygo/habitsense/engine/stats"
)

// State labels the user's emotional relationship with a habit.
type State string

const (
	StateConfident  State = "confident"
	StateStruggling State = "struggling"
	StateBuilding   State = "building"
	StateRecovering State = "recovering"
	StateStable     State = "stable"
	StateNeutral    State = "neutral"
)

// EmotionalState describes the detected state and what it calls for.
type EmotionalState struct {
	State      State  `json:"state"`
	Energy     string `json:"energy"`
	Needs      string `json:"needs"`
	Motivation string `json:"motivation"`
	RiskLevel  string `json:"riskLevel"`
}

// DetectEmotionalState runs the ordered decision table over the
// canonical statistics. Rules are evaluated top to bottom; the first
// match wins.
func DetectEmotionalState(sum stats.Summary) EmotionalState {
	switch {
	case sum.Streak > 14 && sum.CompletionRate > 0.9 && sum.SnoozeFrequency < 0.2:
		return EmotionalState{
			State:      StateConfident,
			Energy:     "high",
			Needs:      "celebration_and_recognition",
			Motivation: "strong",
			RiskLevel:  "low",
		}

	case sum.ConsecutiveMisses > 3 || (sum.CompletionRate < 0.4 && sum.SnoozeFrequency > 0.5):
		return EmotionalState{
			State:      StateStruggling,
			Energy:     "low",
			Needs:      "empathy_and_gentle_encouragement",
			Motivation: "weak",
			RiskLevel:  "high",
		}

	case sum.Streak > 0 && sum.Streak < 7 && sum.CompletionRate > 0.5:
		return EmotionalState{
			State:      StateBuilding,
			Energy:     "moderate",
			Needs:      "support_and_consistency_reminder",
			Motivation: "moderate",
			RiskLevel:  "medium",
		}

	case sum.ConsecutiveMisses > 0 && sum.ConsecutiveMisses <= 2 && sum.Streak == 0 &&
		sum.DaysSinceLastCompletion >= 0 && sum.DaysSinceLastCompletion <= 3:
		return EmotionalState{
			State:      StateRecovering,
			Energy:     "moderate",
			Needs:      "recovery_support",
			Motivation: "moderate",
			RiskLevel:  "medium",
		}

	case sum.Streak > 7 && sum.Streak <= 14 && sum.CompletionRate > 0.7:
		return EmotionalState{
			State:      StateStable,
			Energy:     "moderate",
			Needs:      "standard_reminder",
			Motivation: "moderate",
			RiskLevel:  "low",
		}

	default:
		return EmotionalState{
			State:      StateNeutral,
			Energy:     "moderate",
			Needs:      "standard_reminder",
			Motivation: "moderate",
			RiskLevel:  "medium",
		}
	}
}
