package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/otp"
	"medhistory/internal/token"
	"medhistory/pkg/utils"
)

type challengeKey struct {
	userID uuid.UUID
	flow   otp.Flow
}

// memStore backs every in-memory repository of a test. Transactions snapshot
// it and restore the snapshot when the callback fails.
type memStore struct {
	users      map[uuid.UUID]entity.User
	pending    map[string]entity.PendingRegistration
	challenges map[challengeKey]entity.OTPChallenge
	categories map[string]entity.Category
	subs       map[string]entity.SubCategory
	products   []entity.Product
	sessions   map[uuid.UUID]entity.Session

	// failPendingDelete makes the next pending delete fail.
	failPendingDelete error
	// failSessionCreate makes the next session insert fail.
	failSessionCreate error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[uuid.UUID]entity.User{},
		pending:    map[string]entity.PendingRegistration{},
		challenges: map[challengeKey]entity.OTPChallenge{},
		categories: map[string]entity.Category{},
		subs:       map[string]entity.SubCategory{},
		sessions:   map[uuid.UUID]entity.Session{},
	}
}

func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	for k, v := range s.challenges {
		c.challenges[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.subs {
		c.subs[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	c.products = append(c.products, s.products...)
	return c
}

func (s *memStore) restore(from *memStore) {
	s.users = from.users
	s.pending = from.pending
	s.challenges = from.challenges
	s.categories = from.categories
	s.subs = from.subs
	s.products = from.products
	s.sessions = from.sessions
}

func newMemRepository(store *memStore) *repository.Repository {
	repo := &repository.Repository{
		User:      &memUserRepo{store},
		Pending:   &memPendingRepo{store},
		Challenge: &memChallengeRepo{store},
		Catalog:   &memCatalogRepo{store},
		Session:   &memSessionRepo{store},
	}
	repo.Tx = &memTransactor{store: store, repo: repo}
	return repo
}

type memTransactor struct {
	mu    sync.Mutex
	store *memStore
	repo  *repository.Repository
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(repo *repository.Repository) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	saved := t.store.snapshot()
	if err := fn(t.repo); err != nil {
		t.store.restore(saved)
		return err
	}
	return nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) live() []entity.User {
	var out []entity.User
	for _, u := range r.s.users {
		if !u.IsDeleted() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	for _, u := range r.live() {
		if u.Username == user.Username {
			return &repository.DuplicateError{Field: "phone_number"}
		}
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := r.s.users[id]
	if !ok || u.IsDeleted() {
		return nil, nil
	}
	return &u, nil
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range r.live() {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.live() {
		if u.Email != nil && strings.EqualFold(*u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByUsernameOrEmail(ctx context.Context, identifier string) (*entity.User, error) {
	if u, _ := r.FindByUsername(ctx, identifier); u != nil {
		return u, nil
	}
	return r.FindByEmail(ctx, identifier)
}

func (r *memUserRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	live := r.live()
	var out []*entity.User
	for i := offset; i < len(live) && len(out) < limit; i++ {
		u := live[i]
		out = append(out, &u)
	}
	return out, nil
}

func (r *memUserRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(r.live())), nil
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return errors.New("user not found")
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	u, ok := r.s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	now := time.Now()
	u.DeletedAt = &now
	r.s.users[id] = u
	return nil
}

type memPendingRepo struct{ s *memStore }

func (r *memPendingRepo) Upsert(ctx context.Context, pending *entity.PendingRegistration) (*entity.PendingRegistration, error) {
	saved := *pending
	if existing, ok := r.s.pending[pending.Phone]; ok {
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
	}
	r.s.pending[pending.Phone] = saved
	return &saved, nil
}

func (r *memPendingRepo) FindByPhone(ctx context.Context, phone string) (*entity.PendingRegistration, error) {
	p, ok := r.s.pending[phone]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPendingRepo) FindByPhoneForUpdate(ctx context.Context, phone string) (*entity.PendingRegistration, error) {
	return r.FindByPhone(ctx, phone)
}

func (r *memPendingRepo) RefreshIfIdle(ctx context.Context, phone, code string, now, idleBefore time.Time) (bool, error) {
	p, ok := r.s.pending[phone]
	if !ok || !p.IssuedAt.Before(idleBefore) {
		return false, nil
	}
	p.OTPCode = code
	p.IssuedAt = now
	p.Attempts = 0
	p.UpdatedAt = now
	r.s.pending[phone] = p
	return true, nil
}

func (r *memPendingRepo) IncrementAttempts(ctx context.Context, phone string) error {
	p, ok := r.s.pending[phone]
	if ok {
		p.Attempts++
		r.s.pending[phone] = p
	}
	return nil
}

func (r *memPendingRepo) Delete(ctx context.Context, phone string) error {
	if err := r.s.failPendingDelete; err != nil {
		r.s.failPendingDelete = nil
		return err
	}
	delete(r.s.pending, phone)
	return nil
}

func (r *memPendingRepo) EmailTaken(ctx context.Context, email, exceptPhone string) (bool, error) {
	for phone, p := range r.s.pending {
		if phone != exceptPhone && p.Email != nil && *p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type memChallengeRepo struct{ s *memStore }

func (r *memChallengeRepo) Upsert(ctx context.Context, challenge *entity.OTPChallenge) error {
	c := *challenge
	c.Attempts = 0
	c.Verified = false
	r.s.challenges[challengeKey{c.UserID, c.Flow}] = c
	return nil
}

func (r *memChallengeRepo) FindForUpdate(ctx context.Context, userID uuid.UUID, flow otp.Flow) (*entity.OTPChallenge, error) {
	c, ok := r.s.challenges[challengeKey{userID, flow}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memChallengeRepo) IncrementAttempts(ctx context.Context, userID uuid.UUID, flow otp.Flow) error {
	key := challengeKey{userID, flow}
	if c, ok := r.s.challenges[key]; ok {
		c.Attempts++
		r.s.challenges[key] = c
	}
	return nil
}

func (r *memChallengeRepo) MarkVerified(ctx context.Context, userID uuid.UUID, flow otp.Flow) error {
	key := challengeKey{userID, flow}
	if c, ok := r.s.challenges[key]; ok {
		c.Verified = true
		r.s.challenges[key] = c
	}
	return nil
}

func (r *memChallengeRepo) Delete(ctx context.Context, userID uuid.UUID, flow otp.Flow) error {
	delete(r.s.challenges, challengeKey{userID, flow})
	return nil
}

type memCatalogRepo struct{ s *memStore }

func (r *memCatalogRepo) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	var out []*entity.Category
	for _, c := range r.s.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCatalogRepo) FindCategory(ctx context.Context, name string) (*entity.Category, error) {
	c, ok := r.s.categories[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memCatalogRepo) CreateCategory(ctx context.Context, category *entity.Category) error {
	if _, ok := r.s.categories[category.Name]; ok {
		return &repository.DuplicateError{Field: "name"}
	}
	r.s.categories[category.Name] = *category
	return nil
}

func (r *memCatalogRepo) ListSubCategories(ctx context.Context, categoryName string) ([]*entity.SubCategory, error) {
	var out []*entity.SubCategory
	for _, s := range r.s.subs {
		if s.CategoryName == categoryName {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCatalogRepo) FindSubCategory(ctx context.Context, name string) (*entity.SubCategory, error) {
	s, ok := r.s.subs[name]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memCatalogRepo) CreateSubCategory(ctx context.Context, sub *entity.SubCategory) error {
	if _, ok := r.s.subs[sub.Name]; ok {
		return &repository.DuplicateError{Field: "name"}
	}
	r.s.subs[sub.Name] = *sub
	return nil
}

func (r *memCatalogRepo) ListProducts(ctx context.Context, subCategoryName string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		if p.SubCategoryName == subCategoryName {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *memCatalogRepo) CreateProduct(ctx context.Context, product *entity.Product) error {
	r.s.products = append(r.s.products, *product)
	return nil
}

type memSessionRepo struct{ s *memStore }

func (r *memSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	if err := r.s.failSessionCreate; err != nil {
		r.s.failSessionCreate = nil
		return err
	}
	r.s.sessions[session.TokenID] = *session
	return nil
}

func (r *memSessionRepo) FindValid(ctx context.Context, tokenID uuid.UUID, now time.Time) (*entity.Session, error) {
	s, ok := r.s.sessions[tokenID]
	if !ok || s.RevokedAt != nil || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	return &s, nil
}

func (r *memSessionRepo) Revoke(ctx context.Context, tokenID uuid.UUID, now time.Time) (bool, error) {
	s, ok := r.s.sessions[tokenID]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	s.RevokedAt = &now
	r.s.sessions[tokenID] = s
	return true, nil
}

func (r *memSessionRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	for id, s := range r.s.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
			r.s.sessions[id] = s
		}
	}
	return nil
}

type sentSMS struct {
	To   string
	Body string
}

type sentEmail struct {
	To      string
	Subject string
	HTML    string
}

// recordingNotifier captures outgoing messages synchronously.
type recordingNotifier struct {
	sms    []sentSMS
	emails []sentEmail
}

func (n *recordingNotifier) SMS(to, body string) {
	n.sms = append(n.sms, sentSMS{To: to, Body: body})
}

func (n *recordingNotifier) Email(to, subject, html string) {
	n.emails = append(n.emails, sentEmail{To: to, Subject: subject, HTML: html})
}

func (n *recordingNotifier) lastSMS() sentSMS {
	if len(n.sms) == 0 {
		return sentSMS{}
	}
	return n.sms[len(n.sms)-1]
}

// sequenceCodes hands out codes in order, repeating the last one.
type sequenceCodes struct {
	codes []string
	next  int
}

func (g *sequenceCodes) Generate() (string, error) {
	if len(g.codes) == 0 {
		return "", errors.New("no codes")
	}
	code := g.codes[min(g.next, len(g.codes)-1)]
	g.next++
	return code, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *memStore
	repo     *repository.Repository
	clock    *testClock
	codes    *sequenceCodes
	notifier *recordingNotifier
	tokens   *token.Manager
	config   *utils.Config
	engine   *Engine

	signup   SignupService
	password PasswordService
	login    LoginService
	users    UserService
	catalog  CatalogService
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()

	store := newMemStore()
	repo := newMemRepository(store)
	clock := &testClock{now: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)}
	gen := &sequenceCodes{codes: codes}
	notifier := &recordingNotifier{}
	log := zap.NewNop()

	config := &utils.Config{
		App: utils.AppConfig{BaseURL: "http://medhistory.test"},
		OTP: utils.OTPConfig{
			SignupWindow:        otp.DefaultWindow,
			LoginWindow:         otp.DefaultWindow,
			PasswordResetWindow: otp.DefaultWindow,
			ResendCooldown:      otp.DefaultResendCooldown,
			CountryCode:         "+91",
		},
	}

	tokens := token.NewManager("access", "refresh", "activation", 5*time.Minute, 24*time.Hour, 72*time.Hour).
		WithClock(clock.Now)
	engine := NewEngine(repo, gen, PolicyFromConfig(config.OTP), clock.Now, notifier, log)

	return &testEnv{
		store:    store,
		repo:     repo,
		clock:    clock,
		codes:    gen,
		notifier: notifier,
		tokens:   tokens,
		config:   config,
		engine:   engine,
		signup:   NewSignupService(repo, engine, tokens, notifier, config, log),
		password: NewPasswordService(repo, engine, tokens, config, log),
		login:    NewLoginService(repo, engine, tokens, log),
		users:    NewUserService(repo.User, repo.Session, clock.Now, log),
		catalog:  NewCatalogService(repo.Catalog, log),
	}
}

// addUser stores an active account with the given phone, email and password.
func (e *testEnv) addUser(t *testing.T, phone, email, password string) *entity.User {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &entity.User{
		Base:         entity.NewBase(e.clock.Now()),
		Username:     phone,
		PasswordHash: hash,
		FirstName:    "asha",
		LastName:     "rao",
		IsActive:     true,
	}
	if email != "" {
		user.Email = &email
	}
	if err := e.repo.User.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}
