package services

import (
	"testing"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"

	"github.com/stretchr/testify/assert"
)

func approved(views int64) models.Submission {
	return models.Submission{Status: models.SubmissionApproved, ViewCount: views}
}

func TestCalculateBountyProgressHalfway(t *testing.T) {
	p := CalculateBountyProgress(1000, 10, []models.Submission{approved(50000)})

	assert.Equal(t, int64(50000), p.TotalViews)
	assert.InDelta(t, 500, p.UsedBudget, 1e-9)
	assert.InDelta(t, 500, p.CappedUsedBudget, 1e-9)
	assert.InDelta(t, 50, p.Percentage, 1e-9)
	assert.False(t, p.IsCompleted)
}

func TestCalculateBountyProgressOverspent(t *testing.T) {
	p := CalculateBountyProgress(1000, 10, []models.Submission{approved(200000)})

	assert.Equal(t, int64(200000), p.TotalViews)
	assert.InDelta(t, 2000, p.UsedBudget, 1e-9)
	assert.InDelta(t, 1000, p.CappedUsedBudget, 1e-9)
	assert.InDelta(t, 100, p.Percentage, 1e-9)
	assert.True(t, p.IsCompleted)
}

func TestCalculateBountyProgressIgnoresUnapproved(t *testing.T) {
	subs := []models.Submission{
		{Status: models.SubmissionPending, ViewCount: 1000000},
		{Status: models.SubmissionRejected, ViewCount: 1000000},
	}
	p := CalculateBountyProgress(1000, 10, subs)

	assert.Zero(t, p.TotalViews)
	assert.Zero(t, p.CappedUsedBudget)
	assert.Zero(t, p.Percentage)
	assert.False(t, p.IsCompleted)
}

func TestCalculateBountyProgressZeroBudget(t *testing.T) {
	for _, subs := range [][]models.Submission{
		nil,
		{approved(10)},
		{{Status: models.SubmissionPending, ViewCount: 99}},
	} {
		p := CalculateBountyProgress(0, 10, subs)
		assert.True(t, p.IsCompleted)
		assert.Zero(t, p.Percentage)
	}
}

func TestCalculateBountyProgressNoSubmissions(t *testing.T) {
	p := CalculateBountyProgress(250, 3, nil)

	assert.Equal(t, BountyProgress{}, p)
}

func TestCalculateBountyProgressCapsAndMonotonic(t *testing.T) {
	var subs []models.Submission
	prev := CalculateBountyProgress(500, 7.5, subs)

	for _, views := range []int64{1, 999, 12000, 40000, 80000, 3} {
		subs = append(subs, approved(views))
		p := CalculateBountyProgress(500, 7.5, subs)

		assert.GreaterOrEqual(t, p.TotalViews, prev.TotalViews)
		assert.GreaterOrEqual(t, p.UsedBudget, prev.UsedBudget)
		assert.GreaterOrEqual(t, p.Percentage, prev.Percentage)
		assert.LessOrEqual(t, p.CappedUsedBudget, 500.0)
		assert.LessOrEqual(t, p.Percentage, 100.0)
		prev = p
	}
	assert.True(t, prev.IsCompleted)
}

func TestCalculateBountyProgressOrderIndependent(t *testing.T) {
	a := []models.Submission{approved(100), approved(2500), {Status: models.SubmissionPending, ViewCount: 7}}
	b := []models.Submission{a[2], a[1], a[0]}

	assert.Equal(t, CalculateBountyProgress(100, 2, a), CalculateBountyProgress(100, 2, b))
}

func TestCalculateSubmissionEarnings(t *testing.T) {
	assert.InDelta(t, 500, CalculateSubmissionEarnings(50000, 10), 1e-9)
	assert.InDelta(t, 2000, CalculateSubmissionEarnings(200000, 10), 1e-9)
	assert.Zero(t, CalculateSubmissionEarnings(0, 10))
	assert.InDelta(t, 0.0125, CalculateSubmissionEarnings(5, 2.5), 1e-12)
}
