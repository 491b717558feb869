package model

import "time"

// VoteDuration is how long a single vote keeps the role granted.
const VoteDuration = 7 * 24 * time.Hour

// VoteRecord tracks an active role grant for a user.
type VoteRecord struct {
	UserID    string `db:"user_id"`
	ExpiresAt int64  `db:"expires_at"` // epoch milliseconds
}

// ExpiresTime returns ExpiresAt as a time.Time.
func (v VoteRecord) ExpiresTime() time.Time {
	return time.UnixMilli(v.ExpiresAt)
}
