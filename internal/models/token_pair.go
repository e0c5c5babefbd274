package models

import "time"

// TokenPair — выданная при логине/refresh пара токенов.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
