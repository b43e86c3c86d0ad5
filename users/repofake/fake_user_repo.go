package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-tenant-api/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory user store for tests and local runs.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.Mutex
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

	copied := *user
	ur.users[copied.ID] = &copied
	ur.emailIds[copied.Email] = copied.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, nil
	}
	copied := *ur.users[id]
	return &copied, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) ListByTenant(_ context.Context, tenantID string) ([]*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	list := make([]*users.User, 0)
	for _, user := range ur.users {
		if user.TenantID != tenantID {
			continue
		}
		copied := *user
		list = append(list, &copied)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Email < list[j].Email
	})
	return list, nil
}

func (ur *FakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	_, ok := ur.emailIds[email]
	return ok, nil
}

func (ur *FakeUserRepo) UpdateRefreshTokenHash(_ context.Context, id string, hash *string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return nil
	}
	if hash == nil {
		user.RefreshTokenHash = nil
	} else {
		copied := *hash
		user.RefreshTokenHash = &copied
	}
	user.UpdatedAt = time.Now()
	return nil
}

// SwapRefreshTokenHash performs the compare-and-swap under the repo lock,
// mirroring the row-level atomicity the postgres implementation gets from
// a conditional UPDATE.
func (ur *FakeUserRepo) SwapRefreshTokenHash(_ context.Context, id, oldHash, newHash string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrRefreshTokenMismatch
	}
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != oldHash {
		return users.ErrRefreshTokenMismatch
	}
	user.RefreshTokenHash = &newHash
	user.UpdatedAt = time.Now()
	return nil
}

func (ur *FakeUserRepo) UpdateLastLogin(_ context.Context, id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return nil
	}
	now := time.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	return nil
}
