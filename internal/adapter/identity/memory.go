package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Messages returned by the in-memory service, matching the account API's wording.
const (
	MsgInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	MsgInvalidEmail       = "INVALID_EMAIL"
)

var _ domain.IdentityService = (*MemoryService)(nil)

type memoryUser struct {
	id   string
	hash []byte
}

// MemoryService is an identity service held entirely in process memory. Passwords are
// stored as bcrypt hashes.
type MemoryService struct {
	cost int

	mu      sync.RWMutex
	users   map[string]memoryUser
	current *domain.Principal
	resets  []string
}

// NewMemoryService creates an empty service. cost 0 uses bcrypt.DefaultCost.
func NewMemoryService(cost int) *MemoryService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &MemoryService{
		cost:  cost,
		users: make(map[string]memoryUser),
	}
}

// AddUser registers an account and returns its id.
func (s *MemoryService) AddUser(email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.users[normalizeEmail(email)] = memoryUser{id: id, hash: hash}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryService) CurrentPrincipal(_ context.Context) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, nil
	}
	p := *s.current
	return &p, nil
}

func (s *MemoryService) SignIn(_ context.Context, email, password string) (*domain.Principal, error) {
	s.mu.RLock()
	user, ok := s.users[normalizeEmail(email)]
	s.mu.RUnlock()

	if !ok {
		// same answer as a wrong password
		return nil, domain.NewServiceError(400, MsgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(user.hash, []byte(password)); err != nil {
		return nil, domain.NewServiceError(400, MsgInvalidCredentials)
	}

	p := domain.Principal{ID: user.id, Email: email}
	s.mu.Lock()
	s.current = &p
	s.mu.Unlock()

	out := p
	return &out, nil
}

// SendPasswordReset records the request. It succeeds for unknown addresses too.
func (s *MemoryService) SendPasswordReset(_ context.Context, email string) error {
	if !strings.Contains(email, "@") {
		return domain.NewServiceError(400, MsgInvalidEmail)
	}
	s.mu.Lock()
	s.resets = append(s.resets, email)
	s.mu.Unlock()
	return nil
}

func (s *MemoryService) SignOut(_ context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// ResetRequests lists the addresses a reset was requested for, in order.
func (s *MemoryService) ResetRequests() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.resets...)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
