// Package profile reads and edits user profile documents.
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
)

// Manager owns the users collection.
type Manager struct {
	store    docstore.Store
	log      *zap.Logger
	validate *validator.Validate
}

type editable struct {
	Name       string `validate:"required,max=120"`
	Department string `validate:"max=120"`
}

type newUser struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required,max=120"`
}

func NewManager(store docstore.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, log: logger, validate: validator.New()}
}

// LoadProfile returns the user's profile. A non-empty email from the signed-in
// identity takes precedence over the stored one.
func (m *Manager) LoadProfile(ctx context.Context, userID, email string) (model.User, error) {
	if userID == "" {
		return model.User{}, apperr.Auth("Not authenticated")
	}
	doc, err := m.store.Get(ctx, model.CollUsers, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.User{}, apperr.NotFound("Profile not found")
	}
	if err != nil {
		return model.User{}, apperr.Read(err, "Failed to load profile")
	}
	u := model.UserFromDoc(doc)
	if email != "" {
		u.Email = email
	}
	return u, nil
}

// UpdateProfile changes name and department and nothing else.
func (m *Manager) UpdateProfile(ctx context.Context, userID, name, department string) error {
	if userID == "" {
		return apperr.Auth("Not authenticated")
	}
	in := editable{Name: strings.TrimSpace(name), Department: strings.TrimSpace(department)}
	if err := m.validate.Struct(in); err != nil {
		if in.Name == "" {
			return apperr.Validation("Please enter your name")
		}
		return apperr.Validation(fieldMessage(err))
	}
	err := m.store.Update(ctx, model.CollUsers, userID, docstore.Doc{
		"name":       in.Name,
		"department": in.Department,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("Profile not found")
	}
	if err != nil {
		return apperr.Write(err, "Failed to update profile")
	}
	m.log.Info("profile updated", zap.String("userID", userID))
	return nil
}

// ValidateNew normalizes u and checks the fields a new profile needs.
// The id is not checked, so callers can validate before registering credentials.
func (m *Manager) ValidateNew(u model.User) (model.User, error) {
	role, ok := model.ParseRole(string(u.Role))
	if !ok {
		return model.User{}, apperr.Validation("Invalid user role: " + string(u.Role))
	}
	u.Role = role
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	u.Department = strings.TrimSpace(u.Department)
	if err := m.validate.Struct(newUser{Email: u.Email, Name: u.Name}); err != nil {
		return model.User{}, apperr.Validation(fieldMessage(err))
	}
	return u, nil
}

// CreateUser writes the profile document for a freshly registered account.
func (m *Manager) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u, err := m.ValidateNew(u)
	if err != nil {
		return model.User{}, err
	}
	if u.ID == "" {
		return model.User{}, apperr.Validation("Missing user id")
	}

	err = m.store.Create(ctx, model.CollUsers, u.ID, u.Doc())
	if errors.Is(err, docstore.ErrConflict) {
		return model.User{}, apperr.Validation("User profile already exists")
	}
	if err != nil {
		return model.User{}, apperr.Write(err, "Failed to create user")
	}
	m.log.Info("user created", zap.String("userID", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func fieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "Please enter " + strings.ToLower(fe.Field())
	case "email":
		return "Please enter a valid email"
	case "max":
		return fe.Field() + " is too long"
	}
	return "Invalid " + strings.ToLower(fe.Field())
}
