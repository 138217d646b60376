package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"blogsync/app/apperr"
	"blogsync/app/remote"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
	"golang.org/x/crypto/bcrypt"
)

// UsersCollection holds account records.
const UsersCollection = "users"

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials is returned when the provided credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken is returned when a session token cannot be resumed.
	ErrInvalidToken = errors.New("invalid session token")
)

var validate = validator.New()

type account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LocalProvider keeps email/password accounts in the remote store and
// issues signed session tokens.
type LocalProvider struct {
	store  remote.Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mutex   sync.Mutex
	current *User
	token   string
	subs    map[int]func(*User)
	nextSub int
}

// NewLocalProvider creates a provider signing tokens with secret.
func NewLocalProvider(store remote.Store, secret []byte, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		store:  store,
		secret: secret,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		subs:   make(map[int]func(*User)),
	}
}

func (p *LocalProvider) Current() *User {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

// Token returns the signed token of the current session, or "".
func (p *LocalProvider) Token() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.token
}

func (p *LocalProvider) Subscribe(fn func(*User)) func() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.mutex.Lock()
		defer p.mutex.Unlock()
		delete(p.subs, id)
	}
}

// SignUp registers an account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, apperr.Validation("auth.signup", "email", "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.Validation("auth.signup", "password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	existing, err := p.findAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	// The email doubles as the insert key, so of several concurrent sign-ups
	// only the first creates an account and the rest get it back.
	doc, err := p.store.Insert(ctx, UsersCollection, remote.Fields{
		"email":        email,
		"passwordHash": string(hash),
		"createdAt":    remote.ServerTimestamp,
	}, remote.WithIdempotencyKey("email:"+email))
	if err != nil {
		return nil, apperr.Transport("auth.signup", err)
	}
	if stored, _ := doc.Fields["passwordHash"].(string); stored != string(hash) {
		return nil, ErrEmailTaken
	}

	user := &User{ID: doc.ID, Email: email}
	if err := p.begin(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn checks the password and starts a session.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	acct, err := p.findAccount(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user := &User{ID: acct.ID, Email: acct.Email}
	if err := p.begin(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Resume restores a session from a token issued by SignIn or SignUp.
func (p *LocalProvider) Resume(token string) (*User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}

	user := &User{ID: c.Subject, Email: c.Email}
	p.set(user, token)
	return user, nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.set(nil, "")
	return nil
}

func (p *LocalProvider) begin(user *User) error {
	now := p.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    "blogsync",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}).SignedString(p.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}
	p.set(user, token)
	return nil
}

// set swaps the session and notifies subscribers outside the lock.
func (p *LocalProvider) set(user *User, token string) {
	p.mutex.Lock()
	p.current = user
	p.token = token
	subs := make([]func(*User), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mutex.Unlock()

	if user != nil {
		glog.V(1).Infof("[auth] signed in %s", user.ID)
	} else {
		glog.V(1).Infof("[auth] signed out")
	}
	for _, fn := range subs {
		var u *User
		if user != nil {
			copied := *user
			u = &copied
		}
		fn(u)
	}
}

func (p *LocalProvider) findAccount(ctx context.Context, email string) (*account, error) {
	docs, err := p.store.Query(ctx, UsersCollection, remote.Where("email", email))
	if err != nil {
		return nil, apperr.Transport("auth.lookup", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var acct account
	if err := docs[0].Decode(&acct); err != nil {
		return nil, apperr.Transport("auth.lookup", err)
	}
	return &acct, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
