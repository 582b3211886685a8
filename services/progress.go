package services

import (
	"math"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

// BountyProgress is derived per request from a bounty and its submissions.
// It is never persisted.
type BountyProgress struct {
	TotalViews       int64   `json:"total_views"`
	UsedBudget       float64 `json:"used_budget"`
	CappedUsedBudget float64 `json:"capped_used_budget"`
	Percentage       float64 `json:"percentage"`
	IsCompleted      bool    `json:"is_completed"`
}

// CalculateBountyProgress aggregates approved submissions only.
// IsCompleted compares the uncapped budget, so a zero-budget bounty is
// always complete while its percentage stays 0.
func CalculateBountyProgress(totalBounty, ratePer1kViews float64, submissions []models.Submission) BountyProgress {
	var totalViews int64
	for _, s := range submissions {
		if s.Status != models.SubmissionApproved {
			continue
		}
		totalViews += s.ViewCount
	}

	used := (float64(totalViews) / 1000) * ratePer1kViews

	var percentage float64
	if totalBounty > 0 {
		percentage = math.Min(used/totalBounty*100, 100)
	}

	return BountyProgress{
		TotalViews:       totalViews,
		UsedBudget:       used,
		CappedUsedBudget: math.Min(used, totalBounty),
		Percentage:       percentage,
		IsCompleted:      used >= totalBounty,
	}
}

// ProgressFor is CalculateBountyProgress over a bounty record.
func ProgressFor(b *models.Bounty, submissions []models.Submission) BountyProgress {
	return CalculateBountyProgress(b.TotalBounty, b.RatePer1kViews, submissions)
}

// CalculateSubmissionEarnings is not capped; the cap only applies to the
// bounty aggregate.
func CalculateSubmissionEarnings(viewCount int64, ratePer1kViews float64) float64 {
	return (float64(viewCount) / 1000) * ratePer1kViews
}
