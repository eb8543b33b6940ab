package services

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"photo-album-backend/internal/models"
	"photo-album-backend/internal/repository"
	"photo-album-backend/internal/repository/memstore"
)

var (
	_ UserStore    = (*repository.UserRepository)(nil)
	_ AccountStore = (*repository.AccountRepository)(nil)
	_ InviteStore  = (*repository.InviteRepository)(nil)
	_ PhotoStore   = (*repository.PhotoRepository)(nil)

	_ UserStore    = (*memstore.Users)(nil)
	_ AccountStore = (*memstore.Accounts)(nil)
	_ InviteStore  = (*memstore.Invites)(nil)
	_ PhotoStore   = (*memstore.Photos)(nil)
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newAccountService(t *testing.T) (*AccountService, *memstore.Store, *testClock) {
	t.Helper()
	store := memstore.New()
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens := NewTokenIssuer("test-secret").WithClock(clock.Now)
	svc := NewAccountService(store.Users(), store.Accounts(), store.Invites(), tokens).WithClock(clock.Now)
	return svc, store, clock
}

func TestAuthenticateDoesNotProvision(t *testing.T) {
	svc, store, _ := newAccountService(t)
	ctx := context.Background()

	result, err := svc.Authenticate(ctx, "tg1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result for unknown identity, got %+v", result)
	}
	if store.UserCount("tg1") != 0 {
		t.Fatal("Authenticate must not create users")
	}

	created, err := svc.CreateAccount(ctx, "tg1")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	result, err = svc.Authenticate(ctx, "tg1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if result == nil || result.User.ID != created.User.ID || result.Token == "" {
		t.Fatalf("expected token for existing user, got %+v", result)
	}
}

func TestCheckUserExists(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.CheckUserExists(ctx, " "); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	exists, err := svc.CheckUserExists(ctx, "tg1")
	if err != nil || exists {
		t.Fatalf("expected unknown identity, got exists=%v err=%v", exists, err)
	}

	if _, err := svc.CreateAccount(ctx, "tg1"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	exists, err = svc.CheckUserExists(ctx, "tg1")
	if err != nil || !exists {
		t.Fatalf("expected existing identity, got exists=%v err=%v", exists, err)
	}
}

func TestCreateAccountTwice(t *testing.T) {
	svc, store, _ := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "tg1"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if _, err := svc.CreateAccount(ctx, "tg1"); !errors.Is(err, models.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
	if n := store.UserCount("tg1"); n != 1 {
		t.Fatalf("expected exactly one user for tg1, got %d", n)
	}
}

func TestCreateAccountConcurrent(t *testing.T) {
	svc, store, _ := newAccountService(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateAccount(ctx, "tg1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful CreateAccount, got %d", succeeded)
	}
	if n := store.UserCount("tg1"); n != 1 {
		t.Fatalf("expected exactly one user for tg1, got %d", n)
	}
}

func TestGenerateInviteCode(t *testing.T) {
	svc, store, clock := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.GenerateInviteCode(ctx, 999); !errors.Is(err, models.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	owner, err := svc.CreateAccount(ctx, "tg1")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	invite, err := svc.GenerateInviteCode(ctx, owner.User.ID)
	if err != nil {
		t.Fatalf("GenerateInviteCode failed: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(invite.Code)
	if err != nil {
		t.Fatalf("invite code is not base64url: %v", err)
	}
	if len(raw) < 16 {
		t.Errorf("expected at least 128 bits of entropy, got %d bytes", len(raw))
	}
	if !invite.ExpiresAt.Equal(clock.Now().Add(InviteTTL)) {
		t.Errorf("unexpected expiry %v", invite.ExpiresAt)
	}

	stored, ok := store.Invite(invite.Code)
	if !ok {
		t.Fatal("invite code was not stored")
	}
	if stored.AccountID != owner.User.AccountID || stored.Used {
		t.Errorf("unexpected stored invite %+v", stored)
	}

	other, err := svc.GenerateInviteCode(ctx, owner.User.ID)
	if err != nil {
		t.Fatalf("GenerateInviteCode failed: %v", err)
	}
	if other.Code == invite.Code {
		t.Error("expected distinct invite codes")
	}
}

func TestJoinWithInviteCodeFlow(t *testing.T) {
	svc, store, _ := newAccountService(t)
	ctx := context.Background()
	tokens := svc.tokens

	owner, err := svc.CreateAccount(ctx, "tg1")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	ownerClaims, err := tokens.Verify(owner.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	invite, err := svc.GenerateInviteCode(ctx, owner.User.ID)
	if err != nil {
		t.Fatalf("GenerateInviteCode failed: %v", err)
	}

	joined, err := svc.JoinWithInviteCode(ctx, "tg2", invite.Code)
	if err != nil {
		t.Fatalf("JoinWithInviteCode failed: %v", err)
	}
	joinedClaims, err := tokens.Verify(joined.Token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if joinedClaims.AccountID != ownerClaims.AccountID {
		t.Fatalf("expected joined account %d, got %d", ownerClaims.AccountID, joinedClaims.AccountID)
	}

	stored, _ := store.Invite(invite.Code)
	if !stored.Used {
		t.Error("expected invite to be marked used")
	}

	if _, err := svc.JoinWithInviteCode(ctx, "tg3", invite.Code); !errors.Is(err, models.ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode for used code, got %v", err)
	}
	if store.UserCount("tg3") != 0 {
		t.Error("failed redemption must not create a user")
	}
}

func TestJoinWithInviteCodeExistingIdentity(t *testing.T) {
	svc, store, _ := newAccountService(t)
	ctx := context.Background()

	owner, _ := svc.CreateAccount(ctx, "tg1")
	if _, err := svc.CreateAccount(ctx, "tg2"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	invite, _ := svc.GenerateInviteCode(ctx, owner.User.ID)

	tests := []struct {
		name string
		code string
	}{
		{"valid code", invite.Code},
		{"unknown code", "no-such-code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.JoinWithInviteCode(ctx, "tg2", tt.code)
			if !errors.Is(err, models.ErrUserAlreadyExists) {
				t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
			}
		})
	}

	stored, _ := store.Invite(invite.Code)
	if stored.Used {
		t.Error("rejected redemption must leave the code unused")
	}
}

func TestJoinWithExpiredCode(t *testing.T) {
	svc, _, clock := newAccountService(t)
	ctx := context.Background()

	owner, _ := svc.CreateAccount(ctx, "tg1")
	invite, err := svc.GenerateInviteCode(ctx, owner.User.ID)
	if err != nil {
		t.Fatalf("GenerateInviteCode failed: %v", err)
	}

	clock.Advance(25 * time.Hour)

	if _, err := svc.JoinWithInviteCode(ctx, "tg2", invite.Code); !errors.Is(err, models.ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestJoinWithInviteCodeConcurrent(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	owner, _ := svc.CreateAccount(ctx, "tg1")
	invite, err := svc.GenerateInviteCode(ctx, owner.User.ID)
	if err != nil {
		t.Fatalf("GenerateInviteCode failed: %v", err)
	}

	identities := []string{"tg2", "tg3"}
	errs := make([]error, len(identities))
	var wg sync.WaitGroup
	for i, id := range identities {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.JoinWithInviteCode(ctx, id, invite.Code)
		}(i, id)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrInvalidOrExpiredCode):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected one success and one rejection, got %d/%d", succeeded, rejected)
	}
}

func TestJoinWithInviteCodeValidation(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.JoinWithInviteCode(ctx, "", "code"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation for empty telegramId, got %v", err)
	}
	if _, err := svc.JoinWithInviteCode(ctx, "tg2", " "); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation for empty code, got %v", err)
	}
}

func TestGetAccount(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	owner, _ := svc.CreateAccount(ctx, "tg1")
	user, account, err := svc.GetAccount(ctx, owner.User.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if user.ID != owner.User.ID || account.ID != owner.User.AccountID {
		t.Errorf("unexpected user %+v account %+v", user, account)
	}
	if account.Name != "Account for tg1" {
		t.Errorf("unexpected account name %q", account.Name)
	}
}
