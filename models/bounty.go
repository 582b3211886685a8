package models

import "time"

// Bounty is a business-funded campaign paying RatePer1kViews for every
// thousand views on approved submissions, until TotalBounty is used up.
type Bounty struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Slug           string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	Instructions   *string   `gorm:"type:text" json:"instructions,omitempty"`
	TotalBounty    float64   `gorm:"not null" json:"total_bounty"`
	RatePer1kViews float64   `gorm:"column:rate_per_1k_views;not null" json:"rate_per_1k_views"`
	CreatorID      string    `gorm:"index;not null" json:"creator_id"`
	LogoURL        *string   `gorm:"type:text" json:"logo_url,omitempty"`
	CompanyName    *string   `json:"company_name,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Submissions []Submission `gorm:"foreignKey:BountyID" json:"-"`
}
