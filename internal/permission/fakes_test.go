package permission_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/cache"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/frahmantamala/pos-backoffice/internal/user"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGrantStore struct {
	mu        sync.Mutex
	grants    []permission.Grant
	findCalls atomic.Int64
	findErr   error

	// When hold is set, the first user-target lookup signals held after
	// reading its rows and waits for hold to close.
	hold    chan struct{}
	held    chan struct{}
	holding atomic.Bool
}

func (f *fakeGrantStore) holdNextUserLookup() {
	f.hold = make(chan struct{})
	f.held = make(chan struct{})
}

func (f *fakeGrantStore) add(g permission.Grant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, g)
}

func (f *fakeGrantStore) FindGrants(_ context.Context, tt permission.TargetType, targetID string) ([]permission.Grant, error) {
	f.findCalls.Add(1)
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	var out []permission.Grant
	for _, g := range f.grants {
		if g.TargetType == tt && g.TargetID == targetID {
			out = append(out, g)
		}
	}
	f.mu.Unlock()

	if f.hold != nil && tt == permission.TargetUser && f.holding.CompareAndSwap(false, true) {
		close(f.held)
		<-f.hold
	}
	return out, nil
}

func (f *fakeGrantStore) FindActiveGrants(context.Context) ([]permission.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []permission.Grant
	for _, g := range f.grants {
		if g.IsActive {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrantStore) FindActiveGrantsFor(_ context.Context, menuCode string, tt permission.TargetType, targetID string) ([]permission.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []permission.Grant
	for _, g := range f.grants {
		if g.IsActive && g.MenuCode == menuCode && g.TargetType == tt && g.TargetID == targetID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrantStore) SaveGrant(ctx context.Context, g permission.Grant) (permission.Grant, error) {
	if _, err := f.RevokeGrant(ctx, g.MenuCode, g.TargetType, g.TargetID, g.CreatedAt); err != nil {
		return permission.Grant{}, err
	}
	f.add(g)
	return g, nil
}

func (f *fakeGrantStore) RevokeGrant(_ context.Context, menuCode string, tt permission.TargetType, targetID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i, g := range f.grants {
		if g.IsActive && g.MenuCode == menuCode && g.TargetType == tt && g.TargetID == targetID {
			f.grants[i].IsActive = false
			f.grants[i].UpdatedAt = at
			n++
		}
	}
	return n, nil
}

type fakeUserDirectory struct {
	users       map[string]*user.User
	roles       map[string]bool
	orgs        map[string]bool
	lookupCalls atomic.Int64
	err         error
}

func newFakeUserDirectory(users ...*user.User) *fakeUserDirectory {
	d := &fakeUserDirectory{users: map[string]*user.User{}, roles: map[string]bool{}, orgs: map[string]bool{}}
	for _, u := range users {
		d.users[u.Username] = u
		for _, r := range u.Roles {
			d.roles[r] = true
		}
		if u.OrganizationID != nil {
			d.orgs[*u.OrganizationID] = true
		}
	}
	return d
}

func (d *fakeUserDirectory) FindUserByUsername(_ context.Context, username string) (*user.User, error) {
	d.lookupCalls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.users[username], nil
}

func (d *fakeUserDirectory) FindUserByID(_ context.Context, id string) (*user.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (d *fakeUserDirectory) FindUsersByOrganization(_ context.Context, orgID string) ([]*user.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*user.User
	for _, u := range d.users {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeUserDirectory) RoleExists(_ context.Context, name string) (bool, error) {
	return d.roles[name], d.err
}

func (d *fakeUserDirectory) OrganizationExists(_ context.Context, id string) (bool, error) {
	return d.orgs[id], d.err
}

type fakeMenuDirectory struct {
	nodes     []menu.Node
	loadCalls atomic.Int64
}

func (d *fakeMenuDirectory) FindMenuByCode(_ context.Context, code string) (*menu.Node, error) {
	for _, n := range d.nodes {
		if n.Code == code && n.IsActive {
			found := n
			return &found, nil
		}
	}
	return nil, nil
}

func (d *fakeMenuDirectory) FindAllActiveMenus(context.Context) ([]menu.Node, error) {
	d.loadCalls.Add(1)
	var out []menu.Node
	for _, n := range d.nodes {
		if n.IsActive {
			out = append(out, n)
		}
	}
	return out, nil
}

// brokenBackend fails every operation, like a cache server that is down.
type brokenBackend struct{}

var errBackendDown = errors.New("connection refused")

func (brokenBackend) Get(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}
func (brokenBackend) Delete(context.Context, ...string) error { return errBackendDown }
func (brokenBackend) DeletePrefix(context.Context, string) error { return errBackendDown }
func (brokenBackend) Ping(context.Context) error { return errBackendDown }

var _ cache.Backend = brokenBackend{}

func node(id int64, code string, parent int64, level, order int, t menu.NodeType) menu.Node {
	n := menu.Node{ID: id, Code: code, Name: code, Level: level, DisplayOrder: order, Type: t, IsActive: true}
	if parent != 0 {
		p := parent
		n.ParentID = &p
	}
	return n
}

func activeGrant(menuCode string, tt permission.TargetType, targetID string, level permission.Level) permission.Grant {
	g, _ := permission.NewGrant(permission.GrantCommand{
		MenuCode:   menuCode,
		TargetType: tt,
		TargetID:   targetID,
		Level:      level,
		GrantedBy:  "seed",
	}, time.Now())
	return g
}

func strPtr(s string) *string { return &s }
