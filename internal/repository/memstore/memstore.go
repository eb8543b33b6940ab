// Package memstore is an in-memory stand-in for the PostgreSQL repositories.
// It enforces the same uniqueness and single-redemption rules, so service and
// handler tests exercise the real account-linking semantics without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"photo-album-backend/internal/models"
)

// Store holds all tables behind one mutex
type Store struct {
	mu sync.Mutex

	nextAccountID int64
	nextUserID    int64
	nextPhotoID   int64

	accounts   map[int64]*models.Account
	users      map[int64]*models.User
	byTelegram map[string]int64
	invites    map[string]*models.InviteCode
	photos     []*models.Photo
}

// New creates an empty store
func New() *Store {
	return &Store{
		accounts:   make(map[int64]*models.Account),
		users:      make(map[int64]*models.User),
		byTelegram: make(map[string]int64),
		invites:    make(map[string]*models.InviteCode),
	}
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Accounts() *Accounts { return &Accounts{s} }
func (s *Store) Invites() *Invites   { return &Invites{s} }
func (s *Store) Photos() *Photos     { return &Photos{s} }

// Invite returns a copy of the stored invite code
func (s *Store) Invite(code string) (models.InviteCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[code]
	if !ok {
		return models.InviteCode{}, false
	}
	return *inv, true
}

// UserCount returns the number of users with telegramID (0 or 1)
func (s *Store) UserCount(telegramID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.TelegramID == telegramID {
			n++
		}
	}
	return n
}

// PhotoCount returns the number of stored photos
func (s *Store) PhotoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

// insertUserLocked mirrors the telegram_id unique constraint
func (s *Store) insertUserLocked(user *models.User) error {
	if _, exists := s.byTelegram[user.TelegramID]; exists {
		return models.ErrUserAlreadyExists
	}
	s.nextUserID++
	user.ID = s.nextUserID
	stored := *user
	s.users[user.ID] = &stored
	s.byTelegram[user.TelegramID] = user.ID
	return nil
}

// Users implements services.UserStore
type Users struct{ s *Store }

func (r *Users) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *Users) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byTelegram[telegramID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	c := *r.s.users[id]
	return &c, nil
}

func (r *Users) TelegramIDExists(ctx context.Context, telegramID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.byTelegram[telegramID]
	return ok, nil
}

// Accounts implements services.AccountStore
type Accounts struct{ s *Store }

func (r *Accounts) CreateWithOwner(ctx context.Context, account *models.Account, owner *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.byTelegram[owner.TelegramID]; exists {
		return models.ErrUserAlreadyExists
	}
	r.s.nextAccountID++
	account.ID = r.s.nextAccountID
	stored := *account
	r.s.accounts[account.ID] = &stored

	owner.AccountID = account.ID
	return r.s.insertUserLocked(owner)
}

func (r *Accounts) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d not found", id)
	}
	c := *a
	return &c, nil
}

// Invites implements services.InviteStore
type Invites struct{ s *Store }

func (r *Invites) Create(ctx context.Context, invite *models.InviteCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.invites[invite.Code]; exists {
		return fmt.Errorf("invite code %s already exists", invite.Code)
	}
	stored := *invite
	r.s.invites[invite.Code] = &stored
	return nil
}

func (r *Invites) Redeem(ctx context.Context, code, telegramID string, now time.Time) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.byTelegram[telegramID]; exists {
		return nil, models.ErrUserAlreadyExists
	}
	inv, ok := r.s.invites[code]
	if !ok || !inv.Redeemable(now) {
		return nil, models.ErrInvalidOrExpiredCode
	}

	user, err := models.NewUser(telegramID, inv.AccountID, now)
	if err != nil {
		return nil, err
	}
	if err := r.s.insertUserLocked(user); err != nil {
		return nil, err
	}
	inv.Used = true
	return user, nil
}

// Photos implements services.PhotoStore
type Photos struct{ s *Store }

func (r *Photos) Create(ctx context.Context, photo *models.Photo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPhotoID++
	photo.ID = r.s.nextPhotoID
	stored := *photo
	r.s.photos = append(r.s.photos, &stored)
	return nil
}

func (r *Photos) ListByAccountBetween(ctx context.Context, accountID int64, from, to time.Time) ([]*models.Photo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	photos := make([]*models.Photo, 0)
	for _, p := range r.s.photos {
		if p.AccountID == accountID && !p.PhotoDate.Before(from) && p.PhotoDate.Before(to) {
			c := *p
			photos = append(photos, &c)
		}
	}
	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].PhotoDate.Equal(photos[j].PhotoDate) {
			return photos[i].ID < photos[j].ID
		}
		return photos[i].PhotoDate.Before(photos[j].PhotoDate)
	})
	return photos, nil
}

// Objects is an in-memory object store
type Objects struct {
	mu      sync.Mutex
	BaseURL string
	Err     error // returned by Put when set
	objects map[string][]byte
}

// NewObjects creates an object store serving URLs under baseURL
func NewObjects(baseURL string) *Objects {
	return &Objects{BaseURL: baseURL, objects: make(map[string][]byte)}
}

func (o *Objects) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return "", o.Err
	}
	o.objects[key] = append([]byte(nil), body...)
	return o.BaseURL + "/" + key, nil
}

// Keys returns the stored object keys
func (o *Objects) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.objects))
	for k := range o.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
