package pipeline

import "fmt"

// Discrepancy detection thresholds.
const (
	spreadThreshold    = 0.40 // (max-min)/min across vote values
	lowConfidence      = 50.0 // consensus confidence, 0..100 scale
	agreementThreshold = 0.60 // majority share; strictly below triggers
	outlierThreshold   = 0.50 // single vote's deviation from consensus value
)

// Discrepancy kinds.
const (
	DiscrepancyPriceSpread   = "price_spread"
	DiscrepancyLowConfidence = "low_confidence"
	DiscrepancyDecisionSplit = "decision_split"
	DiscrepancyOutlier       = "outlier"
)

// Discrepancy is one flagged inconsistency with the context needed for
// narration or QA.
type Discrepancy struct {
	Kind      string  `json:"kind"`
	Provider  string  `json:"provider,omitempty"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

// DiscrepancyReport is the detector's output.
type DiscrepancyReport struct {
	Found bool          `json:"found"`
	Items []Discrepancy `json:"items,omitempty"`
}

// DetectDiscrepancies is a pure function over the consensus and the full
// vote list. It requires at least two successful votes to run at all, and
// never mutates a vote or the consensus. Each check contributes
// independently.
func DetectDiscrepancies(consensus ConsensusResult, votes []ModelVote) DiscrepancyReport {
	successful := make([]ModelVote, 0, len(votes))
	for _, v := range votes {
		if v.Success {
			successful = append(successful, v)
		}
	}
	if len(successful) < 2 {
		return DiscrepancyReport{}
	}

	var items []Discrepancy

	// Price spread across votes that produced a usable value.
	var values []float64
	for _, v := range successful {
		if v.EstimatedValue > 0 {
			values = append(values, v.EstimatedValue)
		}
	}
	if len(values) >= 2 {
		low, high := values[0], values[0]
		for _, v := range values[1:] {
			if v < low {
				low = v
			}
			if v > high {
				high = v
			}
		}
		if spread := (high - low) / low; spread > spreadThreshold {
			items = append(items, Discrepancy{
				Kind:      DiscrepancyPriceSpread,
				Value:     spread,
				Threshold: spreadThreshold,
				Message:   fmt.Sprintf("vote values span $%.2f to $%.2f (spread %.0f%%)", low, high, spread*100),
			})
		}
	}

	if consensus.Confidence < lowConfidence {
		items = append(items, Discrepancy{
			Kind:      DiscrepancyLowConfidence,
			Value:     consensus.Confidence,
			Threshold: lowConfidence,
			Message:   fmt.Sprintf("consensus confidence %.0f is below %.0f", consensus.Confidence, lowConfidence),
		})
	}

	// Strictly below: a 60% majority share sits exactly at the threshold
	// and is not a split.
	if consensus.Metrics.AgreementRatio < agreementThreshold {
		items = append(items, Discrepancy{
			Kind:      DiscrepancyDecisionSplit,
			Value:     consensus.Metrics.AgreementRatio,
			Threshold: agreementThreshold,
			Message:   fmt.Sprintf("only %.0f%% of votes agree with the majority decision", consensus.Metrics.AgreementRatio*100),
		})
	}

	if consensus.EstimatedValue > 0 {
		for _, v := range successful {
			if v.EstimatedValue <= 0 {
				continue
			}
			deviation := abs(v.EstimatedValue-consensus.EstimatedValue) / consensus.EstimatedValue
			if deviation > outlierThreshold {
				items = append(items, Discrepancy{
					Kind:      DiscrepancyOutlier,
					Provider:  v.Provider,
					Value:     deviation,
					Threshold: outlierThreshold,
					Message:   fmt.Sprintf("%s voted $%.2f, %.0f%% away from consensus $%.2f", v.Provider, v.EstimatedValue, deviation*100, consensus.EstimatedValue),
				})
			}
		}
	}

	return DiscrepancyReport{Found: len(items) > 0, Items: items}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
