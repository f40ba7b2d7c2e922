package impl

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"

	"userauth/internal/service"

	"golang.org/x/crypto/argon2"
)

// Argon2Params is stored alongside the hash so verification uses the cost the
// hash was created with.
type Argon2Params struct {
	Time    uint32 `json:"t"` // iterations
	Memory  uint32 `json:"m"` // KiB
	Threads uint8  `json:"p"`
	KeyLen  uint32 `json:"k"`
	SaltLen uint32 `json:"s"`
}

type PasswordServiceImpl struct {
	currentVer int
	cur        Argon2Params
	algoName   string
}

func NewPasswordServiceArgon2id() *PasswordServiceImpl {
	return NewPasswordServiceWithParams(1, Argon2Params{
		Time:    3,
		Memory:  64 * 1024,
		Threads: 1,
		KeyLen:  32,
		SaltLen: 16,
	})
}

// NewPasswordServiceWithParams builds a hasher for an explicit policy version.
// Credentials hashed under any other version or parameters are reported as
// needing a rehash on their next successful verification.
func NewPasswordServiceWithParams(ver int, p Argon2Params) *PasswordServiceImpl {
	return &PasswordServiceImpl{currentVer: ver, cur: p, algoName: "argon2id"}
}

func (p *PasswordServiceImpl) Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
	if password == "" {
		return nil, nil, nil, "", 0, ErrEmptyPassword
	}
	salt = make([]byte, p.cur.SaltLen)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, nil, "", 0, err
	}
	hash = argon2.IDKey([]byte(password), salt, p.cur.Time, p.cur.Memory, p.cur.Threads, p.cur.KeyLen)
	paramsJSON, err = json.Marshal(p.cur)
	if err != nil {
		return nil, nil, nil, "", 0, err
	}
	return hash, salt, paramsJSON, p.algoName, p.currentVer, nil
}

func (p *PasswordServiceImpl) Verify(password string, cred service.StoredPassword) (rehashNeeded bool, ok bool) {
	if cred == nil || cred.GetAlgo() != p.algoName {
		return false, false
	}
	var stored Argon2Params
	if err := json.Unmarshal(cred.GetParamsJSON(), &stored); err != nil {
		return false, false
	}
	calculated := argon2.IDKey([]byte(password), cred.GetSalt(), stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	ok = subtle.ConstantTimeCompare(calculated, cred.GetHash()) == 1

	rehashNeeded = ok && (cred.GetPasswordVer() != p.currentVer || stored != p.cur)
	return rehashNeeded, ok
}
