package store

import (
	"sync"

	"github.com/princekumarofficial/angelia/internal/types"
	"github.com/princekumarofficial/angelia/internal/types/users"
)

// UserSlice is the user collection plus the signed-in user.
type UserSlice struct {
	*Slice[users.User]

	cmu     sync.RWMutex
	current *users.User
}

func newUserSlice(bus *ResetBus, notify func(string)) *UserSlice {
	us := &UserSlice{Slice: newSlice[users.User](types.CollectionUsers, Append, bus, notify)}
	bus.Register(us.resetCurrent)
	return us
}

func (us *UserSlice) SetCurrentUser(u *users.User) {
	us.cmu.Lock()
	if u == nil {
		us.current = nil
	} else {
		cp := *u
		us.current = &cp
	}
	us.cmu.Unlock()
	us.changed()
}

// CurrentUser returns the signed-in user, nil when signed out.
func (us *UserSlice) CurrentUser() *users.User {
	us.cmu.RLock()
	defer us.cmu.RUnlock()
	if us.current == nil {
		return nil
	}
	cp := *us.current
	return &cp
}

func (us *UserSlice) resetCurrent() {
	us.cmu.Lock()
	us.current = nil
	us.cmu.Unlock()
}
