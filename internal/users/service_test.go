package users_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"tickethub/internal/apperr"
	"tickethub/internal/auth"
	"tickethub/internal/logger"
	"tickethub/internal/models"
	"tickethub/internal/users"
)

// fakeUserDB is a map-backed fake of the UserDBLayer interface
type fakeUserDB struct {
	users map[string]*models.User
}

func newFakeUserDB() *fakeUserDB {
	return &fakeUserDB{users: make(map[string]*models.User)}
}

func (f *fakeUserDB) CreateUser(_ context.Context, user models.User) error {
	f.users[user.ID] = &user
	return nil
}

func (f *fakeUserDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserDB) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserDB) GetUserByCPF(_ context.Context, cpf string) (*models.User, error) {
	for _, u := range f.users {
		if u.CPF == cpf {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserDB) UpdateUser(_ context.Context, user models.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Username = user.Username
	stored.Email = user.Email
	stored.Password = user.Password
	return nil
}

func newService(db users.UserDBLayer) *users.UserService {
	return users.NewUserService(db, "test-secret", time.Minute, logger.NewLogger("users-test"))
}

func validRegister() users.RegisterRequest {
	return users.RegisterRequest{
		Username: "maria",
		Email:    "maria@example.com",
		CPF:      "529.982.247-25",
		Password: "s3cret!",
	}
}

func TestRegister(t *testing.T) {
	db := newFakeUserDB()
	svc := newService(db)

	user, err := svc.Register(context.Background(), validRegister())
	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleClient, user.Role)

	// CPF is stored normalized
	assert.Equal(t, "52998224725", user.CPF)

	// Password is hashed, never stored raw
	assert.NotEqual(t, "s3cret!", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret!")))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newFakeUserDB()
	svc := newService(db)

	_, err := svc.Register(context.Background(), validRegister())
	assert.NoError(t, err)

	dup := validRegister()
	dup.Email = "other@example.com"
	dup.CPF = "111.444.777-35"

	_, err = svc.Register(context.Background(), dup)
	assert.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestRegisterInvalidCPF(t *testing.T) {
	svc := newService(newFakeUserDB())

	req := validRegister()
	req.CPF = "123"

	_, err := svc.Register(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func TestLoginIssuesUsableToken(t *testing.T) {
	db := newFakeUserDB()
	svc := newService(db)

	registered, err := svc.Register(context.Background(), validRegister())
	assert.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "maria", "s3cret!")
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	principal, err := auth.ParseToken(token, "test-secret")
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, principal.UserID)
	assert.Equal(t, "52998224725", principal.CPF)
}

func TestLoginWrongPassword(t *testing.T) {
	db := newFakeUserDB()
	svc := newService(db)

	_, err := svc.Register(context.Background(), validRegister())
	assert.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "maria", "wrong")
	assert.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	_, _, err = svc.Login(context.Background(), "nobody", "s3cret!")
	assert.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestUpdateProfileRequiresCurrentPassword(t *testing.T) {
	db := newFakeUserDB()
	svc := newService(db)

	user, err := svc.Register(context.Background(), validRegister())
	assert.NoError(t, err)

	principal := auth.Principal{UserID: user.ID, CPF: user.CPF, Role: user.Role}

	_, err = svc.UpdateProfile(context.Background(), principal, user.ID, users.UpdateProfileRequest{
		Username: "maria2",
	})
	assert.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	_, err = svc.UpdateProfile(context.Background(), principal, user.ID, users.UpdateProfileRequest{
		Username:        "maria2",
		CurrentPassword: "wrong",
	})
	assert.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	updated, err := svc.UpdateProfile(context.Background(), principal, user.ID, users.UpdateProfileRequest{
		Username:        "maria2",
		CurrentPassword: "s3cret!",
	})
	assert.NoError(t, err)
	assert.Equal(t, "maria2", updated.Username)
}

func TestUpdateProfileOtherUserForbidden(t *testing.T) {
	db := newFakeUserDB()
	svc := newService(db)

	user, err := svc.Register(context.Background(), validRegister())
	assert.NoError(t, err)

	other := auth.Principal{UserID: "someone-else", Role: models.RoleClient}
	_, err = svc.UpdateProfile(context.Background(), other, user.ID, users.UpdateProfileRequest{
		CurrentPassword: "s3cret!",
	})
	assert.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestGetUserByCPF(t *testing.T) {
	db := newFakeUserDB()
	svc := newService(db)

	_, err := svc.Register(context.Background(), validRegister())
	assert.NoError(t, err)

	user, err := svc.GetUserByCPF(context.Background(), "529.982.247-25")
	assert.NoError(t, err)
	assert.Equal(t, "maria", user.Username)

	_, err = svc.GetUserByCPF(context.Background(), "111.444.777-35")
	assert.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
