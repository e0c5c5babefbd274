package handlers

import (
	"time"

	"github.com/pribylovaa/go-contacts-api/internal/models"
)

const dateLayout = "2006-01-02"

// Запросы.

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest — JSON-вариант; форма OAuth2 передаёт e-mail в поле username.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type requestEmailRequest struct {
	Email string `json:"email"`
}

type contactRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	BornDate    string `json:"born_date"`
	Description string `json:"description"`
}

// toInput разбирает дату рождения (YYYY-MM-DD); остальное проверяет сервис.
func (c contactRequest) toInput() (models.ContactInput, error) {
	in := models.ContactInput{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Description: c.Description,
	}

	if c.BornDate == "" {
		return in, badRequest("born_date", "is required")
	}

	d, err := time.Parse(dateLayout, c.BornDate)
	if err != nil {
		return in, badRequest("born_date", "must be YYYY-MM-DD")
	}
	in.BornDate = d

	return in, nil
}

// Ответы.

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userFromModel(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type signupResponse struct {
	User   userResponse `json:"user"`
	Detail string       `json:"detail"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func tokensFromModel(p *models.TokenPair, now time.Time) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(p.AccessExpiresAt.Sub(now).Round(time.Second) / time.Second),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type contactResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	BornDate    string    `json:"born_date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func contactFromModel(c *models.Contact) contactResponse {
	return contactResponse{
		ID:          c.ID.String(),
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		BornDate:    c.BornDate.Format(dateLayout),
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func contactsFromModel(cs []models.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(cs))
	for i := range cs {
		out = append(out, contactFromModel(&cs[i]))
	}
	return out
}
