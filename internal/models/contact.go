package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact — запись адресной книги, принадлежащая пользователю UserID.
type Contact struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	BornDate    time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContactInput — изменяемые поля контакта (создание и полное обновление).
type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	BornDate    time.Time
	Description string
}
