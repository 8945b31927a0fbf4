package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
	"github.com/unilib-br/unilib/pkg/helpers"
	"github.com/unilib-br/unilib/pkg/validation"
)

// UserService manages the user lifecycle: registration, field updates
// with per-field audit history, and deactivation gated on outstanding
// loans. It is the sole mutator of User records.
type UserService struct {
	Store  repository.Store
	Logger *logrus.Logger
}

func NewUserService(store repository.Store, logger *logrus.Logger) *UserService {
	return &UserService{Store: store, Logger: logger}
}

type RegisterUserInput struct {
	Name         string
	CPF          string
	BirthDate    time.Time
	Phone        string
	Address      string
	Category     string
	Email        string
	Registration string
	Department   string
}

// Register validates the national id and optional email, rejects
// duplicate CPFs, and creates the user active.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (*entity.User, error) {
	if !validation.ValidateCPF(in.CPF) {
		return nil, ErrInvalidCPF
	}
	if in.Email != "" && !validation.ValidateEmail(in.Email) {
		return nil, ErrInvalidEmail
	}

	cpf := validation.Digits(in.CPF)
	if _, err := s.Store.Users().GetByCPF(ctx, cpf); err == nil {
		return nil, ErrCPFRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.fail("register user", err, logrus.Fields{"cpf": validation.FormatCPF(cpf)})
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		CPF:          cpf,
		BirthDate:    in.BirthDate,
		Phone:        in.Phone,
		Address:      in.Address,
		Category:     entity.ParseCategory(in.Category),
		Email:        in.Email,
		Registration: in.Registration,
		Department:   in.Department,
		Active:       true,
	}
	if err := s.Store.Users().Create(ctx, user); err != nil {
		return nil, s.fail("register user", err, logrus.Fields{"cpf": validation.FormatCPF(cpf)})
	}
	return user, nil
}

// Query lists users matching the filter.
func (s *UserService) Query(ctx context.Context, f repository.UserFilter) ([]entity.User, error) {
	users, err := s.Store.Users().List(ctx, f)
	if err != nil {
		return nil, s.fail("query users", err, nil)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.fail("get user", err, logrus.Fields{"user_id": id})
	}
	return user, nil
}

func (s *UserService) GetByCPF(ctx context.Context, cpf string) (*entity.User, error) {
	user, err := s.Store.Users().GetByCPF(ctx, validation.Digits(cpf))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.fail("get user by cpf", err, nil)
	}
	return user, nil
}

// History lists the user's audit trail, newest first.
func (s *UserService) History(ctx context.Context, userID string) ([]entity.HistoryEntry, error) {
	entries, err := s.Store.History().ListByUser(ctx, userID)
	if err != nil {
		return nil, s.fail("user history", err, logrus.Fields{"user_id": userID})
	}
	return entries, nil
}

// UpdateUserInput is a partial patch; nil fields are left untouched.
type UpdateUserInput struct {
	Name         *string
	BirthDate    *time.Time
	Phone        *string
	Address      *string
	Category     *string
	Email        *string
	Registration *string
	Department   *string
}

// Update merges the patch into the user record. Every changed field
// produces one HistoryEntry, written atomically with the record.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput, actor string) (*entity.User, error) {
	if in.Email != nil && *in.Email != "" && !validation.ValidateEmail(*in.Email) {
		return nil, ErrInvalidEmail
	}

	var updated *entity.User
	err := s.Store.RunAtomically(ctx, func(st repository.Store) error {
		user, err := st.Users().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		changes := applyPatch(user, in)
		for _, c := range changes {
			entry := &entity.HistoryEntry{
				ID:        uuid.NewString(),
				UserID:    id,
				Field:     c.field,
				OldValue:  c.oldValue,
				NewValue:  c.newValue,
				ChangedBy: actor,
			}
			if err := st.History().Create(ctx, entry); err != nil {
				return err
			}
		}
		if len(changes) > 0 {
			if err := st.Users().Update(ctx, user); err != nil {
				return err
			}
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, s.fail("update user", err, logrus.Fields{"user_id": id})
	}
	return updated, nil
}

// Deactivate flips Active off, provided the user has no active loans,
// and records the actor and reason in the audit trail. Users are never
// hard-deleted. The loan-count gate runs inside the atomic block with
// the user row locked; loan creation takes the same lock, so a loan
// committed concurrently cannot leave a deactivated user holding it.
func (s *UserService) Deactivate(ctx context.Context, id, reason, actor string) error {
	err := s.Store.RunAtomically(ctx, func(st repository.Store) error {
		user, err := st.Users().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		active, err := st.Loans().CountActiveByUser(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrUserHasLoans
		}

		user.Active = false
		if err := st.Users().Update(ctx, user); err != nil {
			return err
		}
		return st.History().Create(ctx, &entity.HistoryEntry{
			ID:        uuid.NewString(),
			UserID:    id,
			Field:     "active",
			OldValue:  "true",
			NewValue:  "false",
			ChangedBy: actor + " - reason: " + reason,
		})
	})
	if err != nil {
		return s.fail("deactivate user", err, logrus.Fields{"user_id": id})
	}
	return nil
}

type fieldChange struct {
	field    string
	oldValue string
	newValue string
}

// applyPatch mutates user in place and returns one change per field
// that actually differs, with old/new rendered as strings for the
// audit log.
func applyPatch(user *entity.User, in UpdateUserInput) []fieldChange {
	var changes []fieldChange

	setString := func(field string, dst *string, v *string) {
		if v == nil || *v == *dst {
			return
		}
		changes = append(changes, fieldChange{field: field, oldValue: *dst, newValue: *v})
		*dst = *v
	}

	setString("name", &user.Name, in.Name)
	setString("phone", &user.Phone, in.Phone)
	setString("address", &user.Address, in.Address)
	setString("email", &user.Email, in.Email)
	setString("registration", &user.Registration, in.Registration)
	setString("department", &user.Department, in.Department)

	if in.BirthDate != nil && !in.BirthDate.Equal(user.BirthDate) {
		changes = append(changes, fieldChange{
			field:    "birth_date",
			oldValue: user.BirthDate.Format("2006-01-02"),
			newValue: in.BirthDate.Format("2006-01-02"),
		})
		user.BirthDate = *in.BirthDate
	}
	if in.Category != nil {
		category := entity.ParseCategory(*in.Category)
		if category != user.Category {
			changes = append(changes, fieldChange{
				field:    "category",
				oldValue: string(user.Category),
				newValue: string(category),
			})
			user.Category = category
		}
	}
	return changes
}

func (s *UserService) fail(op string, err error, fields logrus.Fields) error {
	if IsDomainError(err) {
		return err
	}
	if s.Logger != nil {
		helpers.LogError(s.Logger, op+" failed", err, fields)
	}
	return ErrInternal
}
