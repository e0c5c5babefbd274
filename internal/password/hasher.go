// password — одностороннее хэширование паролей (bcrypt, соль внутри дайджеста).
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher хэширует и проверяет пароли с заданной стоимостью bcrypt.
type Hasher struct {
	cost int
}

// New создаёт Hasher. cost вне [bcrypt.MinCost, bcrypt.MaxCost] заменяется на bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Hasher{cost: cost}
}

// Hash возвращает bcrypt-дайджест пароля.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.hasher.Hash"

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(b), nil
}

// Verify сравнивает пароль с дайджестом за постоянное время.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
