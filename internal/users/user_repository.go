package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"imsystem/internal/repository"
	custom_error "imsystem/pkg/errors"
	"imsystem/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

const usersTable = "users"

type UserRepository interface {
	PersistUser(ctx context.Context, req models.CreateUserRequest, hashedPassword []byte) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
}

type userRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) UserRepository {
	return &userRepositoryImpl{repository: r}
}

func (r *userRepositoryImpl) PersistUser(ctx context.Context, req models.CreateUserRequest, hashedPassword []byte) error {
	query := r.repository.GoquDBWrapper.Insert(usersTable).
		Rows(goqu.Record{
			"password_hash": string(hashedPassword),
			"username":      req.Username,
			"fullname":      req.Fullname,
			"role":          req.Role,
		})

	_, err := query.Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert User: %w", custom_error.Classify(err))
	}

	return nil
}

// FindByUsername returns nil without error when no such user exists.
func (r *userRepositoryImpl) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := r.repository.GoquDBWrapper.Select("id", "username", "fullname", "password_hash", "role").
		From(usersTable).
		Where(goqu.Ex{"username": username})

	found, err := query.Executor().ScanStructContext(ctx, &user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &user, nil
}

func (r *userRepositoryImpl) GetUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := r.repository.GoquDBWrapper.Select("id", "username", "fullname", "role").
		From(usersTable).
		Order(goqu.I("username").Asc())

	if err := query.Executor().ScanStructsContext(ctx, &users); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return users, nil
}
