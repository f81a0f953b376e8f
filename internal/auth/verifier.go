package auth

import (
	"strings"

	"github.com/mercalog/go-backend/pkg/e"
	"golang.org/x/crypto/bcrypt"
)

// HashCost — стоимость bcrypt при генерации хэша кода доступа.
const HashCost = 10

// Verifier сверяет предъявленный код доступа с сохранённым bcrypt-хэшем.
// Единственная точка сравнения: схема хэширования меняется только здесь.
type Verifier struct {
	hash []byte
}

// NewVerifier возвращает ошибку конфигурации при пустом хэше —
// проверка обязана отказывать, а не пропускать.
func NewVerifier(storedHash string) (*Verifier, error) {
	if strings.TrimSpace(storedHash) == "" {
		return nil, e.ErrMissingAccessHash
	}

	return &Verifier{hash: []byte(storedHash)}, nil
}

// Verify сравнивает кандидата с хэшем. Открытый текст нигде не сохраняется.
func (v *Verifier) Verify(candidate string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(candidate)) == nil
}

// GenerateHash строит bcrypt-хэш кода доступа с заданной стоимостью.
func GenerateHash(accessCode string, cost int) (string, error) {
	if cost == 0 {
		cost = HashCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
