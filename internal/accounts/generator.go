// internal/accounts/generator.go
package accounts

import (
	"errors"
	"fmt"
	mrand "math/rand" // Account data is not security sensitive.
	"strings"
	"time"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/config"
)

// DefaultBatchSize is the number of accounts in a standard run.
const DefaultBatchSize = 10

// emailDomain is the RFC 2606 reserved testing domain.
const emailDomain = "example.com"

// maxCollisionRetries bounds how often a random username is redrawn.
const maxCollisionRetries = 100

var (
	ErrInvalidCount  = errors.New("account count must be positive")
	ErrUnknownScheme = errors.New("unknown account scheme")
	ErrExhausted     = errors.New("could not draw a unique username")
)

var (
	adjectives = []string{"Quick", "Bright", "Swift", "Smart", "Clever", "Rapid", "Fast", "Sharp", "Keen", "Alert"}
	nouns      = []string{"Doctor", "Nurse", "Medic", "Surgeon", "Physician", "Therapist", "Student", "Resident", "Intern", "Specialist"}
)

// Generator produces batches of synthetic accounts.
type Generator struct {
	scheme string
	rng    *mrand.Rand
}

// NewGenerator returns a generator for scheme. A zero seed draws one from the
// clock.
func NewGenerator(scheme string, seed int64) (*Generator, error) {
	switch scheme {
	case config.SchemeSequential, config.SchemeRandom:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{scheme: scheme, rng: mrand.New(mrand.NewSource(seed))}, nil
}

// Generate returns n accounts with usernames unique within the batch.
func (g *Generator) Generate(n int) ([]*schemas.AccountRecord, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}
	if g.scheme == config.SchemeSequential {
		return sequential(n), nil
	}
	return g.random(n)
}

func sequential(n int) []*schemas.AccountRecord {
	batch := make([]*schemas.AccountRecord, 0, n)
	for i := 1; i <= n; i++ {
		acc := schemas.NewAccountRecord(i, fmt.Sprintf("testuser%d", i), fmt.Sprintf("SecurePass%d!", i))
		acc.Email = fmt.Sprintf("test%d@%s", i, emailDomain)
		acc.FirstName = fmt.Sprintf("Test%d", i)
		acc.LastName = fmt.Sprintf("User%d", i)
		batch = append(batch, acc)
	}
	return batch
}

func (g *Generator) random(n int) ([]*schemas.AccountRecord, error) {
	batch := make([]*schemas.AccountRecord, 0, n)
	seen := make(map[string]bool, n)

	for i := 1; i <= n; i++ {
		var adjective, noun, username string
		for attempt := 0; ; attempt++ {
			if attempt == maxCollisionRetries {
				return nil, fmt.Errorf("account %d: %w", i, ErrExhausted)
			}
			adjective = adjectives[g.rng.Intn(len(adjectives))]
			noun = nouns[g.rng.Intn(len(nouns))]
			username = fmt.Sprintf("%s%s%d", adjective, noun, 100+g.rng.Intn(900))
			if !seen[username] {
				break
			}
		}
		seen[username] = true

		acc := schemas.NewAccountRecord(i, username, fmt.Sprintf("Test%d!", 1000+g.rng.Intn(9000)))
		acc.Email = strings.ToLower(username) + "@" + emailDomain
		acc.FirstName = adjective
		acc.LastName = noun
		batch = append(batch, acc)
	}
	return batch, nil
}
