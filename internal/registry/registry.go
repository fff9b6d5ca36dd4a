// Package registry owns the identity side of the system: every teacher or
// student record is paired 1:1 with a login account and a role profile, and
// all multi-record units run inside a single transaction so a partial
// failure never leaves an orphaned account.
package registry

import (
	"errors"

	"github.com/inv-nithin007/School-manager/internal/model"
	"github.com/inv-nithin007/School-manager/internal/rbac"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the placeholder credential assigned to accounts
// provisioned from a teacher or student record. Kept for compatibility with
// the existing import tooling; see DESIGN.md for the forced-reset question.
const DefaultPassword = "defaultpassword123"

// Field-specific registration conflicts. Handlers translate these into
// field-level 400 responses.
var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")
)

// RegisterInput carries a self-registration request
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// RegisterUser creates a user and its role profile as one atomic unit.
// Username and email conflicts are checked against the user set and
// reported per field; the unique indexes on users remain the backstop for
// concurrent identical submissions.
func RegisterUser(db *gorm.DB, in RegisterInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleStudent
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}

		if err := tx.Model(&model.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		profile := &model.Profile{UserID: user.ID, Role: in.Role}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ProvisionIdentity creates the login account and role profile backing a new
// teacher or student record. The username is derived from the email and the
// account starts with the default credential. Must be called inside the same
// transaction that creates the domain record.
func ProvisionIdentity(tx *gorm.DB, role, email, firstName, lastName string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  email,
		Email:     email,
		Password:  string(hashed),
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, err
	}

	profile := &model.Profile{UserID: user.ID, Role: role}
	if err := tx.Create(profile).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// SyncIdentity mirrors changed domain-record fields onto the linked account.
// The domain record is the source of truth here: when its email changes, the
// account's username follows it. Nil fields are left untouched.
func SyncIdentity(tx *gorm.DB, userID uint, email, firstName, lastName *string) error {
	updates := map[string]interface{}{}
	if email != nil {
		updates["email"] = *email
		updates["username"] = *email
	}
	if firstName != nil {
		updates["first_name"] = *firstName
	}
	if lastName != nil {
		updates["last_name"] = *lastName
	}
	if len(updates) == 0 {
		return nil
	}

	return tx.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// ResolveRole looks up the user's profile and computes the effective role.
// A missing profile is not an error: the rbac fallback covers superusers and
// profile-less accounts.
func ResolveRole(db *gorm.DB, user *model.User) (rbac.Role, error) {
	var profile model.Profile
	err := db.Where("user_id = ?", user.ID).First(&profile).Error
	switch {
	case err == nil:
		return rbac.ResolveRole(user.IsSuperuser, &profile), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return rbac.ResolveRole(user.IsSuperuser, nil), nil
	default:
		return "", err
	}
}
