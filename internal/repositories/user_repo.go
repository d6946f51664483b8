package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"sync"

	intconfig "busbooking/internal/config"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const defaultRole = "customer"

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Authenticate checks the password against the stored bcrypt hash.
func (r UserRepository) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	var (
		id    int64
		ident models.Identity
		hash  string
	)
	err := r.db().QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role
		FROM users
		WHERE email = ?
		LIMIT 1`, normalizeEmail(email)).Scan(&id, &ident.Name, &ident.Email, &hash, &ident.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	ident.UserID = strconv.FormatInt(id, 10)
	return ident, nil
}

func (r UserRepository) Create(ctx context.Context, name, email, password string) (models.Identity, error) {
	name, email, err := validateRegistration(name, email, password)
	if err != nil {
		return models.Identity{}, err
	}

	var exists int
	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
		return models.Identity{}, err
	}
	if exists > 0 {
		return models.Identity{}, domain.ConflictError{Resource: "user", Msg: "email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Identity{}, err
	}
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, NOW())`, name, email, string(hash), defaultRole)
	if err != nil {
		if isDuplicate(err) {
			return models.Identity{}, domain.ConflictError{Resource: "user", Msg: "email already registered"}
		}
		return models.Identity{}, err
	}
	id, _ := res.LastInsertId()
	return models.Identity{UserID: strconv.FormatInt(id, 10), Name: name, Email: email, Role: defaultRole}, nil
}

func validateRegistration(name, email, password string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	switch {
	case name == "":
		return "", "", domain.ValidationError{Field: "name", Msg: "required"}
	case !strings.Contains(email, "@"):
		return "", "", domain.ValidationError{Field: "email", Msg: "invalid"}
	case len(password) < 6:
		return "", "", domain.ValidationError{Field: "password", Msg: "must be at least 6 characters"}
	}
	return name, email, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type memoryUser struct {
	ident models.Identity
	hash  []byte
}

// MemoryUserStore keeps accounts in process; used when no MySQL backend is
// configured.
type MemoryUserStore struct {
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int

	mu     sync.RWMutex
	nextID int64
	users  map[string]memoryUser
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[string]memoryUser{}}
}

func (s *MemoryUserStore) Authenticate(_ context.Context, email, password string) (models.Identity, error) {
	s.mu.RLock()
	u, ok := s.users[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	return u.ident, nil
}

func (s *MemoryUserStore) Create(_ context.Context, name, email, password string) (models.Identity, error) {
	name, email, err := validateRegistration(name, email, password)
	if err != nil {
		return models.Identity{}, err
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return models.Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return models.Identity{}, domain.ConflictError{Resource: "user", Msg: "email already registered"}
	}
	s.nextID++
	ident := models.Identity{UserID: strconv.FormatInt(s.nextID, 10), Name: name, Email: email, Role: defaultRole}
	s.users[email] = memoryUser{ident: ident, hash: hash}
	return ident, nil
}
