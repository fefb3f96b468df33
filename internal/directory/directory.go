// Package directory holds registered students and the logged-in identity.
//
// Both live in local storage: the user list under store.KeyRegisteredUsers
// and the auth record under store.KeyAuth. A Directory is not safe for
// concurrent use; the kiosk loop and the CLI each own one.
package directory

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/rollcall/internal/identity"
	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

// Fixed admin identity.
const (
	AdminName = "Admin"
	AdminID   = "admin-user-001"
)

// Default admin credentials, overridable through configuration.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "adminpass"
)

// ErrInvalidCredentials is returned by Login when no identity matches.
var ErrInvalidCredentials = errors.New("invalid email or password")

// IDGenerator supplies user ids.
type IDGenerator interface {
	NewID() string
}

type uuidIDs struct{}

func (uuidIDs) NewID() string { return uuid.NewString() }

// Directory is the registered-user list plus the current auth record.
type Directory struct {
	kv         store.KV
	users      []model.RegisteredUser
	auth       model.AuthState
	adminEmail string
	adminPass  string
	ids        IDGenerator
	hashCost   int
	logger     *zap.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithAdmin sets the admin credentials. Empty values keep the defaults.
func WithAdmin(email, password string) Option {
	return func(d *Directory) {
		if email != "" {
			d.adminEmail = email
		}
		if password != "" {
			d.adminPass = password
		}
	}
}

// WithIDGenerator overrides user id generation (for testing).
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Directory) { d.ids = g }
}

// WithHashCost sets the bcrypt cost for new password hashes.
func WithHashCost(cost int) Option {
	return func(d *Directory) { d.hashCost = cost }
}

// WithLogger sets the logger for storage warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Open loads the directory from kv.
//
// If either stored blob fails to parse, both keys are removed and the
// directory starts empty and logged out. An absent user list is
// initialized to an empty one.
func Open(ctx context.Context, kv store.KV, opts ...Option) *Directory {
	d := &Directory{
		kv:         kv,
		users:      []model.RegisteredUser{},
		adminEmail: DefaultAdminEmail,
		adminPass:  DefaultAdminPassword,
		ids:        uuidIDs{},
		hashCost:   bcrypt.DefaultCost,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.load(ctx)
	return d
}

func (d *Directory) load(ctx context.Context) {
	var auth model.AuthState
	authErr := store.LoadJSON(ctx, d.kv, store.KeyAuth, &auth)

	var users []model.RegisteredUser
	usersErr := store.LoadJSON(ctx, d.kv, store.KeyRegisteredUsers, &users)

	if errors.Is(authErr, store.ErrCorrupt) || errors.Is(usersErr, store.ErrCorrupt) {
		d.logger.Warn("directory data is corrupt, starting empty",
			zap.NamedError("auth", authErr), zap.NamedError("users", usersErr))
		for _, key := range []string{store.KeyAuth, store.KeyRegisteredUsers} {
			if err := d.kv.Delete(ctx, key); err != nil {
				d.logger.Warn("remove corrupt key", zap.String("key", key), zap.Error(err))
			}
		}
		return
	}

	switch {
	case authErr == nil:
		d.auth = auth
	case !errors.Is(authErr, store.ErrNotFound):
		d.logger.Warn("auth record could not be read", zap.Error(authErr))
	}

	switch {
	case usersErr == nil:
		if users != nil {
			d.users = users
		}
	case errors.Is(usersErr, store.ErrNotFound):
		if err := d.saveUsers(ctx); err != nil {
			d.logger.Warn("initialize user list", zap.Error(err))
		}
	default:
		d.logger.Warn("user list could not be read", zap.Error(usersErr))
	}
}

const maxPasswordBytes = 72

// RegisterStudent adds a student with face data not yet registered.
// Validation failures are reported in the Result; the error is reserved for
// hashing and storage faults.
func (d *Directory) RegisterStudent(ctx context.Context, name, email, password, confirm string) (model.Result, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" || strings.TrimSpace(confirm) == "" {
		return model.Fail("All fields are required."), nil
	}
	if password != confirm {
		return model.Fail("Passwords do not match."), nil
	}
	// bcrypt only hashes the first 72 bytes and refuses longer input.
	if len(password) > maxPasswordBytes {
		return model.Fail("Password is too long."), nil
	}
	if _, ok := d.findByEmail(email); ok {
		return model.Fail("This email is already registered."), nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if err != nil {
		return model.Result{}, fmt.Errorf("hash password: %w", err)
	}

	d.users = append(d.users, model.RegisteredUser{
		ID:           d.ids.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleStudent,
	})
	if err := d.saveUsers(ctx); err != nil {
		return model.Result{}, err
	}
	return model.Ok("Registration successful! Please login and then register your face data on your dashboard."), nil
}

// Login authenticates email and password for role and persists the auth
// record. On failure the auth record is cleared and ErrInvalidCredentials
// is returned.
func (d *Directory) Login(ctx context.Context, email, password string, role model.Role) (model.AuthState, error) {
	switch role {
	case model.RoleAdmin:
		if email == d.adminEmail && secretEqual(password, d.adminPass) {
			return d.setAuth(ctx, model.AuthState{
				IsAuthenticated: true,
				UserRole:        model.RoleAdmin,
				UserName:        AdminName,
				UserID:          AdminID,
			})
		}
	case model.RoleStudent:
		if i, ok := d.findByEmail(email); ok && d.users[i].Role == model.RoleStudent {
			if d.verify(ctx, i, password) {
				u := d.users[i]
				return d.setAuth(ctx, model.AuthState{
					IsAuthenticated: true,
					UserRole:        model.RoleStudent,
					UserName:        u.Name,
					UserID:          u.ID,
				})
			}
		}
	}

	if err := d.Logout(ctx); err != nil {
		return model.AuthState{}, err
	}
	return model.AuthState{}, ErrInvalidCredentials
}

// verify checks password against user i. A legacy plaintext entry that
// verifies is upgraded to a hash.
func (d *Directory) verify(ctx context.Context, i int, password string) bool {
	u := &d.users[i]
	if u.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
	}
	if u.Password == "" || !secretEqual(password, u.Password) {
		return false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if err != nil {
		d.logger.Warn("rehash legacy password", zap.String("user_id", u.ID), zap.Error(err))
		return true
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	if err := d.saveUsers(ctx); err != nil {
		d.logger.Warn("persist rehashed password", zap.String("user_id", u.ID), zap.Error(err))
	}
	return true
}

func (d *Directory) setAuth(ctx context.Context, auth model.AuthState) (model.AuthState, error) {
	d.auth = auth
	if err := store.SaveJSON(ctx, d.kv, store.KeyAuth, auth); err != nil {
		return auth, fmt.Errorf("persist auth: %w", err)
	}
	return auth, nil
}

// Logout clears the auth record.
func (d *Directory) Logout(ctx context.Context) error {
	d.auth = model.AuthState{}
	if err := d.kv.Delete(ctx, store.KeyAuth); err != nil {
		return fmt.Errorf("clear auth: %w", err)
	}
	return nil
}

// Current returns the auth record.
func (d *Directory) Current() model.AuthState {
	return d.auth
}

// LoggedInUser returns the directory entry of the logged-in student.
// Admins have no entry.
func (d *Directory) LoggedInUser() (model.RegisteredUser, bool) {
	if !d.auth.IsAuthenticated || d.auth.UserRole != model.RoleStudent || d.auth.UserID == "" {
		return model.RegisteredUser{}, false
	}
	for _, u := range d.users {
		if u.ID == d.auth.UserID {
			return u, true
		}
	}
	return model.RegisteredUser{}, false
}

// SetFaceData flips the face-data flag of the student with userID.
func (d *Directory) SetFaceData(ctx context.Context, userID string, registered bool) (model.Result, error) {
	idx := -1
	for i, u := range d.users {
		if u.ID == userID && u.Role == model.RoleStudent {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Fail("Student not found."), nil
	}

	d.users[idx].FaceDataRegistered = registered
	if err := d.saveUsers(ctx); err != nil {
		return model.Result{}, err
	}

	status := "Not Registered"
	if registered {
		status = "Registered"
	}
	return model.Ok(fmt.Sprintf("Face data status updated to: %s.", status)), nil
}

// FindByName returns the first user whose name matches ignoring case.
func (d *Directory) FindByName(name string) (model.RegisteredUser, bool) {
	for _, u := range d.users {
		if identity.Equal(u.Name, name) {
			return u, true
		}
	}
	return model.RegisteredUser{}, false
}

// Eligible returns the students with face data registered, in registration
// order.
func (d *Directory) Eligible() []model.RegisteredUser {
	out := []model.RegisteredUser{}
	for _, u := range d.users {
		if u.Role == model.RoleStudent && u.FaceDataRegistered {
			out = append(out, u)
		}
	}
	return out
}

// Users returns a copy of every registered user.
func (d *Directory) Users() []model.RegisteredUser {
	out := make([]model.RegisteredUser, len(d.users))
	copy(out, d.users)
	return out
}

func (d *Directory) findByEmail(email string) (int, bool) {
	for i, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return i, true
		}
	}
	return -1, false
}

func (d *Directory) saveUsers(ctx context.Context) error {
	if err := store.SaveJSON(ctx, d.kv, store.KeyRegisteredUsers, d.users); err != nil {
		return fmt.Errorf("persist users: %w", err)
	}
	return nil
}

func secretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
