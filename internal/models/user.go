package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
// RefreshToken хранит дайджест единственного активного refresh-токена;
// пустая строка означает, что сессии нет (logout или принудительный сброс).
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Avatar       string    `json:"avatar"`
	RefreshToken string    `json:"refresh_token"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
