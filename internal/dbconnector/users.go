package dbconnector

import (
	"context"
	"errors"
	"fmt"

	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"gorm.io/gorm"
)

func (dbConnector *DBConnector) AddUser(ctx context.Context, newUser *User) error {
	now := dbConnector.clock.Now()
	newUser.CreatedAt = now
	newUser.UpdatedAt = now
	err := dbConnector.DB.WithContext(ctx).Create(newUser).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: email %s is already registered", apperr.ErrConflict, newUser.Email)
	}
	return err
}

func (dbConnector *DBConnector) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := dbConnector.DB.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, email)
	}
	return user, err
}

func (dbConnector *DBConnector) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := dbConnector.DB.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	return user, err
}

func (dbConnector *DBConnector) SetUserRole(ctx context.Context, email, role string) error {
	result := dbConnector.DB.WithContext(ctx).
		Model(&User{}).
		Where("email = ?", email).
		Updates(map[string]any{"role": role, "updated_at": dbConnector.clock.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, email)
	}
	return nil
}

// UpdateUser sets the given columns and returns the stored row.
func (dbConnector *DBConnector) UpdateUser(ctx context.Context, userID string, fields map[string]any) (User, error) {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = dbConnector.clock.Now()

	result := dbConnector.DB.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	return dbConnector.GetUserByID(ctx, userID)
}
