package users

import (
	"context"
	"fmt"

	"imsystem/pkg/models"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser hashes the password and stores the user. Shared by the HTTP
// handler and the "user add" command.
func CreateUser(ctx context.Context, repo UserRepository, req models.CreateUserRequest) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return repo.PersistUser(ctx, req, hashedPassword)
}
