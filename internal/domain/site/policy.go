package site

import "time"

// Visible reports whether a site with this status may be served publicly.
// Drafts and paused sites are hidden.
func Visible(status Status) bool {
	return status == StatusActive
}

// NewTrialSite builds an unsaved draft site whose trial ends trialWindow after now.
func NewTrialSite(userID uint, content Content, now time.Time, trialWindow time.Duration) Site {
	return Site{
		UserID:    userID,
		Status:    StatusDraft,
		IsPaid:    false,
		ExpiresAt: now.Add(trialWindow),
		Content:   content,
	}
}
