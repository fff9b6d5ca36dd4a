package registry

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/inv-nithin007/School-manager/internal/model"
	"github.com/inv-nithin007/School-manager/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq uint64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Shared cache keeps one in-memory database across pooled connections
	dsn := fmt.Sprintf("file:registry_test_%d?mode=memory&cache=shared", atomic.AddUint64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Profile{}, &model.Teacher{}, &model.Student{},
	))
	return db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.User{}).Count(&n).Error)
	return n
}

func TestRegisterUser(t *testing.T) {
	db := openTestDB(t)

	user, err := RegisterUser(db, RegisterInput{
		Username:  "jane",
		Email:     "jane@example.com",
		Password:  "secret123",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      model.RoleTeacher,
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	// Password is stored hashed
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))

	var profile model.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, model.RoleTeacher, profile.Role)
}

func TestRegisterUserDefaultsToStudent(t *testing.T) {
	db := openTestDB(t)

	user, err := RegisterUser(db, RegisterInput{
		Username: "jane",
		Email:    "jane@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	var profile model.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, model.RoleStudent, profile.Role)
}

func TestRegisterUserConflicts(t *testing.T) {
	db := openTestDB(t)

	_, err := RegisterUser(db, RegisterInput{
		Username: "jane", Email: "jane@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	before := countUsers(t, db)

	// Duplicate username, distinct email
	_, err = RegisterUser(db, RegisterInput{
		Username: "jane", Email: "other@example.com", Password: "secret123",
	})
	assert.True(t, errors.Is(err, ErrUsernameTaken))

	// Duplicate email, distinct username
	_, err = RegisterUser(db, RegisterInput{
		Username: "janet", Email: "jane@example.com", Password: "secret123",
	})
	assert.True(t, errors.Is(err, ErrEmailTaken))

	// No partial state persisted
	assert.Equal(t, before, countUsers(t, db))
}

func TestProvisionIdentity(t *testing.T) {
	db := openTestDB(t)

	var userID uint
	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := ProvisionIdentity(tx, model.RoleTeacher, "t@x.com", "John", "Teacher")
		if err != nil {
			return err
		}
		userID = user.ID
		return nil
	})
	require.NoError(t, err)

	var user model.User
	require.NoError(t, db.First(&user, userID).Error)
	assert.Equal(t, "t@x.com", user.Username)
	assert.Equal(t, "t@x.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))

	var profile model.Profile
	require.NoError(t, db.Where("user_id = ?", userID).First(&profile).Error)
	assert.Equal(t, model.RoleTeacher, profile.Role)
}

func TestProvisionIdentityRollsBackWithUnit(t *testing.T) {
	db := openTestDB(t)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := ProvisionIdentity(tx, model.RoleStudent, "s@x.com", "Jane", "Student"); err != nil {
			return err
		}
		// A later step of the unit fails: nothing may remain visible
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(0), countUsers(t, db))
	var profiles int64
	db.Model(&model.Profile{}).Count(&profiles)
	assert.Equal(t, int64(0), profiles)
}

func TestSyncIdentity(t *testing.T) {
	db := openTestDB(t)

	user, err := RegisterUser(db, RegisterInput{
		Username: "old@x.com", Email: "old@x.com", Password: "secret123",
		FirstName: "Old", LastName: "Name",
	})
	require.NoError(t, err)

	email := "new@x.com"
	first := "New"
	require.NoError(t, SyncIdentity(db, user.ID, &email, &first, nil))

	var updated model.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.Equal(t, "new@x.com", updated.Email)
	// Username follows the email
	assert.Equal(t, "new@x.com", updated.Username)
	assert.Equal(t, "New", updated.FirstName)
	assert.Equal(t, "Name", updated.LastName)
}

func TestSyncIdentityNoFields(t *testing.T) {
	db := openTestDB(t)
	// Nothing to update must not touch the store
	require.NoError(t, SyncIdentity(db, 999, nil, nil, nil))
}

func TestResolveRole(t *testing.T) {
	db := openTestDB(t)

	withProfile, err := RegisterUser(db, RegisterInput{
		Username: "t", Email: "t@x.com", Password: "secret123", Role: model.RoleTeacher,
	})
	require.NoError(t, err)

	role, err := ResolveRole(db, withProfile)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleTeacher, role)

	// Superuser without a profile falls back to admin
	super := &model.User{Username: "root", Email: "root@x.com", IsSuperuser: true}
	require.NoError(t, db.Create(super).Error)
	role, err = ResolveRole(db, super)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, role)

	// Neither profile nor superuser flag falls back to student
	plain := &model.User{Username: "plain", Email: "plain@x.com"}
	require.NoError(t, db.Create(plain).Error)
	role, err = ResolveRole(db, plain)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleStudent, role)
}
