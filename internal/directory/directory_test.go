package directory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
	"github.com/roach88/rollcall/internal/testutil"
)

func openTestDirectory(t *testing.T, kv store.KV, opts ...Option) *Directory {
	t.Helper()
	base := []Option{
		WithIDGenerator(testutil.NewSequentialIDs("user")),
		WithHashCost(bcrypt.MinCost),
	}
	return Open(context.Background(), kv, append(base, opts...)...)
}

func registerAlice(t *testing.T, d *Directory) {
	t.Helper()
	res, err := d.RegisterStudent(context.Background(), "Alice", "alice@example.com", "secret", "secret")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
}

func TestOpen_InitializesEmptyUserList(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d := openTestDirectory(t, kv)

	assert.Empty(t, d.Users())
	assert.False(t, d.Current().IsAuthenticated)

	raw, err := kv.Get(ctx, store.KeyRegisteredUsers)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestOpen_CorruptDataClearsBothKeys(t *testing.T) {
	tests := []struct {
		name  string
		auth  string
		users string
	}{
		{"corrupt users", `{"isAuthenticated":true,"userRole":"admin","userName":"Admin","userId":"admin-user-001"}`, "{oops"},
		{"corrupt auth", "not-json", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := store.NewMemory()
			require.NoError(t, kv.Set(ctx, store.KeyAuth, tt.auth))
			require.NoError(t, kv.Set(ctx, store.KeyRegisteredUsers, tt.users))

			core, logs := observer.New(zapcore.WarnLevel)
			d := openTestDirectory(t, kv, WithLogger(zap.New(core)))

			assert.Empty(t, d.Users())
			assert.False(t, d.Current().IsAuthenticated)
			assert.Equal(t, 1, logs.FilterMessage("directory data is corrupt, starting empty").Len())

			keys, err := kv.Keys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestRegisterStudent(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d := openTestDirectory(t, kv)

	res, err := d.RegisterStudent(ctx, "Alice", "alice@example.com", "secret", "secret")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Registration successful! Please login and then register your face data on your dashboard.", res.Message)

	users := d.Users()
	require.Len(t, users, 1)
	u := users[0]
	assert.Equal(t, "user-0001", u.ID)
	assert.Equal(t, model.RoleStudent, u.Role)
	assert.False(t, u.FaceDataRegistered)
	assert.Empty(t, u.Password)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))

	raw, err := kv.Get(ctx, store.KeyRegisteredUsers)
	require.NoError(t, err)
	assert.NotContains(t, raw, `"secret"`)
}

func TestRegisterStudent_Validation(t *testing.T) {
	tests := []struct {
		name                         string
		fullName, email, pass, again string
		want                         string
	}{
		{"missing name", "  ", "a@example.com", "pw", "pw", "All fields are required."},
		{"missing email", "A", "", "pw", "pw", "All fields are required."},
		{"blank password", "A", "a@example.com", "   ", "   ", "All fields are required."},
		{"missing confirm", "A", "a@example.com", "pw", "", "All fields are required."},
		{"mismatch", "A", "a@example.com", "pw", "wp", "Passwords do not match."},
		{"password too long", "A", "a@example.com", strings.Repeat("p", 73), strings.Repeat("p", 73), "Password is too long."},
		{"duplicate email", "Other", "ALICE@example.com", "pw", "pw", "This email is already registered."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := openTestDirectory(t, store.NewMemory())
			registerAlice(t, d)

			res, err := d.RegisterStudent(context.Background(), tt.fullName, tt.email, tt.pass, tt.again)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
			assert.Len(t, d.Users(), 1)
		})
	}
}

func TestRegisterStudent_PersistFault(t *testing.T) {
	kv := store.NewMemory()
	d := openTestDirectory(t, kv)
	kv.FailWrites = errors.New("disk full")

	_, err := d.RegisterStudent(context.Background(), "Alice", "alice@example.com", "pw", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestLogin_Admin(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d := openTestDirectory(t, kv)

	auth, err := d.Login(ctx, DefaultAdminEmail, DefaultAdminPassword, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.AuthState{
		IsAuthenticated: true,
		UserRole:        model.RoleAdmin,
		UserName:        AdminName,
		UserID:          AdminID,
	}, auth)

	_, ok := d.LoggedInUser()
	assert.False(t, ok, "admin has no directory entry")

	// The auth record survives a reopen.
	reopened := openTestDirectory(t, kv)
	assert.Equal(t, auth, reopened.Current())
}

func TestLogin_AdminEmailIsExact(t *testing.T) {
	d := openTestDirectory(t, store.NewMemory())
	_, err := d.Login(context.Background(), "ADMIN@example.com", DefaultAdminPassword, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_ConfiguredAdmin(t *testing.T) {
	d := openTestDirectory(t, store.NewMemory(), WithAdmin("root@school.test", "hunter2"))

	_, err := d.Login(context.Background(), DefaultAdminEmail, DefaultAdminPassword, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	auth, err := d.Login(context.Background(), "root@school.test", "hunter2", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, AdminID, auth.UserID)
}

func TestLogin_Student(t *testing.T) {
	ctx := context.Background()
	d := openTestDirectory(t, store.NewMemory())
	registerAlice(t, d)

	auth, err := d.Login(ctx, "Alice@Example.com", "secret", model.RoleStudent)
	require.NoError(t, err)
	assert.True(t, auth.IsAuthenticated)
	assert.Equal(t, model.RoleStudent, auth.UserRole)
	assert.Equal(t, "Alice", auth.UserName)
	assert.Equal(t, "user-0001", auth.UserID)

	u, ok := d.LoggedInUser()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestLogin_FailureClearsAuth(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d := openTestDirectory(t, kv)
	registerAlice(t, d)

	_, err := d.Login(ctx, "alice@example.com", "secret", model.RoleStudent)
	require.NoError(t, err)

	tests := []struct {
		name        string
		email, pass string
		role        model.Role
	}{
		{"wrong password", "alice@example.com", "nope", model.RoleStudent},
		{"unknown email", "bob@example.com", "secret", model.RoleStudent},
		{"student as admin", "alice@example.com", "secret", model.RoleAdmin},
		{"admin as student", DefaultAdminEmail, DefaultAdminPassword, model.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := d.Login(ctx, tt.email, tt.pass, tt.role)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.False(t, auth.IsAuthenticated)
			assert.False(t, d.Current().IsAuthenticated)

			_, err = kv.Get(ctx, store.KeyAuth)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestLogin_LegacyPlaintextIsUpgraded(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	legacy := []model.RegisteredUser{{
		ID: "legacy-1", Name: "Carol", Email: "carol@example.com",
		Password: "password", Role: model.RoleStudent, FaceDataRegistered: true,
	}}
	require.NoError(t, store.SaveJSON(ctx, kv, store.KeyRegisteredUsers, legacy))

	d := openTestDirectory(t, kv)
	_, err := d.Login(ctx, "carol@example.com", "wrong", model.RoleStudent)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = d.Login(ctx, "carol@example.com", "password", model.RoleStudent)
	require.NoError(t, err)

	reopened := openTestDirectory(t, kv)
	u := reopened.Users()[0]
	assert.Empty(t, u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password")))
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d := openTestDirectory(t, kv)
	_, err := d.Login(ctx, DefaultAdminEmail, DefaultAdminPassword, model.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, d.Logout(ctx))
	assert.Equal(t, model.AuthState{}, d.Current())

	_, err = kv.Get(ctx, store.KeyAuth)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetFaceData(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	d := openTestDirectory(t, kv)
	registerAlice(t, d)

	res, err := d.SetFaceData(ctx, "user-0001", true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Face data status updated to: Registered.", res.Message)
	assert.True(t, openTestDirectory(t, kv).Users()[0].FaceDataRegistered)

	res, err = d.SetFaceData(ctx, "user-0001", false)
	require.NoError(t, err)
	assert.Equal(t, "Face data status updated to: Not Registered.", res.Message)

	res, err = d.SetFaceData(ctx, "nobody", true)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Student not found.", res.Message)
}

func TestFindByNameAndEligible(t *testing.T) {
	ctx := context.Background()
	d := openTestDirectory(t, store.NewMemory())
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		res, err := d.RegisterStudent(ctx, name, name+"@example.com", "pw", "pw")
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	u, ok := d.FindByName("BOB")
	require.True(t, ok)
	assert.Equal(t, "user-0002", u.ID)

	_, ok = d.FindByName("Dave")
	assert.False(t, ok)

	assert.Empty(t, d.Eligible())

	_, err := d.SetFaceData(ctx, "user-0003", true)
	require.NoError(t, err)
	_, err = d.SetFaceData(ctx, "user-0001", true)
	require.NoError(t, err)

	var names []string
	for _, e := range d.Eligible() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Alice", "Carol"}, names)
}

func TestDirectory_SQLiteBacked(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(t.TempDir() + "/rollcall.db")
	require.NoError(t, err)
	defer st.Close()

	d := openTestDirectory(t, st)
	registerAlice(t, d)
	_, err = d.Login(ctx, "alice@example.com", "secret", model.RoleStudent)
	require.NoError(t, err)

	reopened := openTestDirectory(t, st)
	assert.Equal(t, d.Users(), reopened.Users())
	assert.Equal(t, d.Current(), reopened.Current())
}
