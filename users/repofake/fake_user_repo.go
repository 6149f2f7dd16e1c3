package fakeuserrepo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/genzmobo-auth/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo keeps users in memory. Values are copied in and out so callers
// cannot mutate stored state without going through the repo.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[users.NormalizeEmail(user.Email)]; ok {
		return users.ErrDuplicate
	}
	for _, u := range ur.users {
		if u.Username == user.Username {
			return users.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
	}
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[users.NormalizeEmail(user.Email)] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyUser(u), nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	return ur.find(func(u *users.User) bool { return u.Username == username })
}

func (ur *FakeUserRepo) GetByIdentifier(ctx context.Context, identifier string) (*users.User, error) {
	if u, err := ur.GetByEmail(ctx, identifier); err == nil {
		return u, nil
	}
	return ur.GetByUsername(ctx, identifier)
}

func (ur *FakeUserRepo) GetByRefreshToken(_ context.Context, refreshToken string) (*users.User, error) {
	if refreshToken == "" {
		return nil, users.ErrNotFound
	}
	return ur.find(func(u *users.User) bool { return u.RefreshToken == refreshToken })
}

func (ur *FakeUserRepo) GetByOTP(_ context.Context, code string) (*users.User, error) {
	if code == "" {
		return nil, users.ErrNotFound
	}
	return ur.find(func(u *users.User) bool { return u.OTPCode == code })
}

func (ur *FakeUserRepo) StartSession(_ context.Context, id string, session users.Session) error {
	return ur.update(id, func(u *users.User) bool {
		u.RefreshToken = session.RefreshToken
		u.CurrentTokenJTI = session.AccessTokenID
		u.LastActivityAt = timePtr(session.At)
		u.LastLoginAt = timePtr(session.At)
		u.UpdatedAt = session.At
		return true
	})
}

func (ur *FakeUserRepo) RotateSession(_ context.Context, id, expectedRefreshToken string, session users.Session) error {
	return ur.update(id, func(u *users.User) bool {
		if expectedRefreshToken != "" && u.RefreshToken != expectedRefreshToken {
			return false
		}
		u.RefreshToken = session.RefreshToken
		u.CurrentTokenJTI = session.AccessTokenID
		u.LastActivityAt = timePtr(session.At)
		u.UpdatedAt = session.At
		return true
	})
}

func (ur *FakeUserRepo) EndSession(_ context.Context, id string, at time.Time) error {
	return ur.update(id, func(u *users.User) bool {
		u.RefreshToken = ""
		u.CurrentTokenJTI = ""
		u.UpdatedAt = at
		return true
	})
}

func (ur *FakeUserRepo) MarkVerified(_ context.Context, id string, at time.Time) error {
	return ur.update(id, func(u *users.User) bool {
		u.IsVerified = true
		u.OTPCode = ""
		u.OTPExpiresAt = nil
		u.UpdatedAt = at
		return true
	})
}

func (ur *FakeUserRepo) SetOTP(_ context.Context, id, code string, expiresAt, at time.Time) error {
	return ur.update(id, func(u *users.User) bool {
		u.OTPCode = code
		u.OTPExpiresAt = timePtr(expiresAt)
		u.UpdatedAt = at
		return true
	})
}

func (ur *FakeUserRepo) ClearOTP(_ context.Context, id string, at time.Time) error {
	return ur.update(id, func(u *users.User) bool {
		u.OTPCode = ""
		u.OTPExpiresAt = nil
		u.UpdatedAt = at
		return true
	})
}

func (ur *FakeUserRepo) ResetPassword(_ context.Context, id, passwordHash string, at time.Time) error {
	return ur.update(id, func(u *users.User) bool {
		u.PasswordHash = passwordHash
		u.OTPCode = ""
		u.OTPExpiresAt = nil
		u.RefreshToken = ""
		u.CurrentTokenJTI = ""
		u.UpdatedAt = at
		return true
	})
}

func (ur *FakeUserRepo) Ping(context.Context) error {
	return nil
}

func (ur *FakeUserRepo) find(match func(*users.User) bool) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, u := range ur.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, users.ErrNotFound
}

// update applies fn under the write lock; fn returning false is reported as ErrNotFound.
func (ur *FakeUserRepo) update(id string, fn func(*users.User) bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok || !fn(u) {
		return users.ErrNotFound
	}
	return nil
}

func copyUser(u *users.User) *users.User {
	c := *u
	return &c
}

func timePtr(t time.Time) *time.Time {
	return &t
}
