package models

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

const (
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformX         = "x"
)

// Submission is a creator's content link entered against a bounty.
// ViewCount and EarnedAmount are refreshed by the view-refresh worker.
type Submission struct {
	ID                    string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	BountyID              string           `gorm:"uniqueIndex:idx_submission_bounty_url;not null" json:"bounty_id"`
	UserID                string           `gorm:"index;not null" json:"user_id"`
	VideoURL              string           `gorm:"uniqueIndex:idx_submission_bounty_url;type:text;not null" json:"video_url"`
	ViewCount             int64            `gorm:"not null;default:0" json:"view_count"`
	Status                SubmissionStatus `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	ValidationExplanation *string          `gorm:"type:text" json:"validation_explanation,omitempty"`
	EarnedAmount          float64          `gorm:"not null;default:0" json:"earned_amount"`

	// Extracted link metadata
	Title         *string `gorm:"type:text" json:"title,omitempty"`
	Description   *string `gorm:"type:text" json:"description,omitempty"`
	CoverImageURL *string `gorm:"type:text" json:"cover_image_url,omitempty"`
	Author        *string `json:"author,omitempty"`
	Platform      *string `gorm:"type:varchar(16)" json:"platform,omitempty"`

	ViewsRefreshedAt *time.Time `json:"views_refreshed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
