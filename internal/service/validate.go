package service

import (
	"crypto/md5"
	"encoding/hex"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/go-contacts-api/internal/models"
)

// Ограничения входных данных.
const (
	usernameMin = 3
	usernameMax = 16

	passwordMin = 6
	passwordMax = 16

	nameMax        = 50
	emailMax       = 100
	phoneMax       = 15
	descriptionMax = 150
	searchQueryMax = 100

	defaultLimit = 100
	maxLimit     = 1000
)

// normalizeEmail обрезает пробелы, проверяет формат и приводит к нижнему регистру.
// Адрес с отображаемым именем ("Bob <b@x.com>") не принимается.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", invalid("email", "is required")
	}

	if utf8.RuneCountInString(email) > emailMax {
		return "", invalid("email", "is too long")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "is not a valid address")
	}

	return strings.ToLower(email), nil
}

func validatePassword(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < passwordMin || n > passwordMax {
		return invalid("password", "must be 6 to 16 characters long")
	}

	return nil
}

func normalizeUsername(raw, email string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return email[:strings.IndexByte(email, '@')], nil
	}

	n := utf8.RuneCountInString(name)
	if n < usernameMin || n > usernameMax {
		return "", invalid("username", "must be 3 to 16 characters long")
	}

	return name, nil
}

// normalizeContact проверяет и нормализует поля контакта.
func normalizeContact(in models.ContactInput) (models.ContactInput, error) {
	out := models.ContactInput{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Description: strings.TrimSpace(in.Description),
		BornDate:    in.BornDate,
	}

	if err := lengthBetween("first_name", out.FirstName, 1, nameMax); err != nil {
		return out, err
	}
	if err := lengthBetween("last_name", out.LastName, 1, nameMax); err != nil {
		return out, err
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return out, err
	}
	out.Email = email

	if err := lengthBetween("phone_number", out.PhoneNumber, 1, phoneMax); err != nil {
		return out, err
	}
	if err := lengthBetween("description", out.Description, 0, descriptionMax); err != nil {
		return out, err
	}

	if out.BornDate.IsZero() {
		return out, invalid("born_date", "is required")
	}

	return out, nil
}

func lengthBetween(field, v string, lo, hi int) error {
	n := utf8.RuneCountInString(v)
	switch {
	case n < lo && lo == 1:
		return invalid(field, "is required")
	case n < lo || n > hi:
		return invalid(field, "length is out of range")
	}

	return nil
}

// page нормализует пагинацию: limit по умолчанию 100, не больше 1000.
func page(limit, offset int) (int, int, error) {
	if offset < 0 {
		return 0, 0, invalid("skip", "must not be negative")
	}

	switch {
	case limit == 0:
		limit = defaultLimit
	case limit < 0 || limit > maxLimit:
		return 0, 0, invalid("limit", "must be between 1 and 1000")
	}

	return limit, offset, nil
}

// gravatarURL — аватар по умолчанию (identicon) для нового пользователя.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}
