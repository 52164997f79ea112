package hashing

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength: короче не принимаем ни при регистрации, ни при смене пароля.
const MinPasswordLength = 6

type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	return string(h), err
}

// Compare: false и для неверного пароля, и для битого хэша.
func (b *Bcrypt) Compare(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
