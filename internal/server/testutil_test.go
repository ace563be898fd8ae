package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"starterapp/internal/auth"
	"starterapp/internal/config"
)

// fakeUsers backs both the lifecycle flows (auth.UserStore) and the HTTP
// layer (UserDirectory) in tests, with the same consume semantics as the
// postgres repository.
type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*auth.User
	tokens    map[string]auth.VerificationToken
	order     []string
	nextID    int
	lastToken string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:  make(map[string]*auth.User),
		tokens: make(map[string]auth.VerificationToken),
	}
}

func (f *fakeUsers) Create(ctx context.Context, p auth.CreateUserParams) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email := auth.NormalizeEmail(p.Email)
	for _, u := range f.users {
		if u.Email == email {
			return nil, auth.ErrEmailTaken
		}
	}

	if p.Language == "" {
		p.Language = "en"
	}
	if p.Role == "" {
		p.Role = auth.RoleUser
	}

	f.nextID++
	user := &auth.User{
		ID:            fmt.Sprintf("user-%d", f.nextID),
		Email:         email,
		PasswordHash:  p.PasswordHash,
		Name:          p.Name,
		Language:      p.Language,
		Role:          p.Role,
		Activated:     p.Activated,
		EmailVerified: p.EmailVerified,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.users[user.ID] = user
	f.order = append(f.order, user.ID)
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == auth.NormalizeEmail(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeUsers) List(ctx context.Context, offset, limit int) ([]auth.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := len(f.order)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	var out []auth.User
	for _, id := range f.order[offset:end] {
		out = append(out, *f.users[id])
	}
	return out, total, nil
}

func (f *fakeUsers) Update(ctx context.Context, id string, p auth.UpdateUserParams) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	if p.Name != nil {
		user.Name = p.Name
	}
	if p.Language != nil {
		user.Language = *p.Language
	}
	if p.Role != nil {
		user.Role = *p.Role
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) SetActivated(ctx context.Context, id string, activated bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Activated = activated
	}
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	for i, uid := range f.order {
		if uid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeUsers) CreateVerificationToken(ctx context.Context, userID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = auth.VerificationToken{Token: token, UserID: userID, Expires: expires}
	f.lastToken = token
	return nil
}

func (f *fakeUsers) DeleteExpiredTokens(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for value, tok := range f.tokens {
		if tok.Expires.Before(time.Now()) {
			delete(f.tokens, value)
		}
	}
	return nil
}

func (f *fakeUsers) ConsumeActivation(ctx context.Context, token string) (string, error) {
	return f.consume(token, func(u *auth.User) {
		u.Activated = true
		u.EmailVerified = true
	})
}

func (f *fakeUsers) ConsumePasswordReset(ctx context.Context, token, passwordHash string) (string, error) {
	return f.consume(token, func(u *auth.User) {
		u.PasswordHash = &passwordHash
	})
}

func (f *fakeUsers) consume(token string, mutate func(*auth.User)) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tok, ok := f.tokens[token]
	if !ok || !tok.Expires.After(time.Now()) {
		return "", auth.ErrTokenNotFound
	}
	delete(f.tokens, token)
	mutate(f.users[tok.UserID])
	return tok.UserID, nil
}

type fakeRepos struct {
	mu     sync.Mutex
	repos  map[string]*auth.Repository
	order  []string
	nextID int
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{repos: make(map[string]*auth.Repository)}
}

func (f *fakeRepos) Create(ctx context.Context, name, link string, description *string) (*auth.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	repo := &auth.Repository{
		ID:          fmt.Sprintf("repo-%d", f.nextID),
		Name:        name,
		Link:        link,
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.repos[repo.ID] = repo
	f.order = append(f.order, repo.ID)
	copied := *repo
	return &copied, nil
}

func (f *fakeRepos) FindByID(ctx context.Context, id string) (*auth.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if repo, ok := f.repos[id]; ok {
		copied := *repo
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRepos) List(ctx context.Context, offset, limit int) ([]auth.Repository, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := len(f.order)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	var out []auth.Repository
	for _, id := range f.order[offset:end] {
		out = append(out, *f.repos[id])
	}
	return out, total, nil
}

func (f *fakeRepos) Update(ctx context.Context, id, name, link string, description *string) (*auth.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.repos[id]
	if !ok {
		return nil, nil
	}
	repo.Name = name
	repo.Link = link
	repo.Description = description
	repo.UpdatedAt = time.Now()
	copied := *repo
	return &copied, nil
}

func (f *fakeRepos) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.repos, id)
	for i, rid := range f.order {
		if rid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

type sentEmail struct {
	to, subject, text, html string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (r *recordingMailer) Send(ctx context.Context, to, subject, text, html string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEmail{to: to, subject: subject, text: text, html: html})
	return nil
}

func (r *recordingMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type testEnv struct {
	server *Server
	router http.Handler
	users  *fakeUsers
	repos  *fakeRepos
	mailer *recordingMailer
	issuer *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := config.Config{
		Env:        "development",
		BaseURL:    "http://localhost:3000",
		AuthSecret: "test-secret",
		TokenTTL:   time.Hour,
	}

	users := newFakeUsers()
	repos := newFakeRepos()
	mailer := &recordingMailer{}
	issuer := auth.NewTokenIssuer([]byte(cfg.AuthSecret))
	svc := auth.NewService(users, &auth.BcryptHasher{Cost: 4}, issuer, mailer, cfg.BaseURL, cfg.TokenTTL)
	srv := NewServer(cfg, svc, issuer, users, repos, &auth.RateLimiter{Redis: client})

	return &testEnv{
		server: srv,
		router: srv.Router(),
		users:  users,
		repos:  repos,
		mailer: mailer,
		issuer: issuer,
	}
}

// addUser inserts a ready-to-login account and returns it with a session
// token for authenticated requests.
func (e *testEnv) addUser(t *testing.T, email, password, role string) (*auth.User, string) {
	t.Helper()

	hash, err := (&auth.BcryptHasher{Cost: 4}).Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user, err := e.users.Create(context.Background(), auth.CreateUserParams{
		Email:         email,
		PasswordHash:  &hash,
		Role:          role,
		Activated:     true,
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := e.issuer.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func asUser(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func fromIP(ip string) func(*http.Request) {
	return func(r *http.Request) {
		r.RemoteAddr = ip + ":12345"
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
