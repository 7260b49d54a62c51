package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentals-service/internal/constants"
	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/pipeline"
	"rentals-service/internal/core/port"
)

// GetUserUseCase - профиль видит сам пользователь или администратор.
type GetUserUseCase struct {
	users port.UserRepositoryPort
}

func NewGetUserUseCase(users port.UserRepositoryPort) *GetUserUseCase {
	return &GetUserUseCase{users: users}
}

func (uc *GetUserUseCase) Execute(ctx context.Context, session *domain.Session, userID string) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "GetUser", "user_id": userID})

	if err := requireSession(session); err != nil {
		return nil, err
	}
	if !session.CanManage(userID) {
		ucLogger.Warn("Access to foreign profile denied", port.Fields{"actor_id": session.UserID})
		return nil, domain.ErrForbidden
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		ucLogger.Error("Repository failed to get user", err, nil)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type UpdateUserUseCase struct {
	users port.UserRepositoryPort
	now   port.Clock
}

func NewUpdateUserUseCase(users port.UserRepositoryPort, now port.Clock) *UpdateUserUseCase {
	if now == nil {
		now = time.Now
	}
	return &UpdateUserUseCase{users: users, now: now}
}

func (uc *UpdateUserUseCase) Execute(ctx context.Context, session *domain.Session, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "UpdateUser", "user_id": userID})
	ucLogger.Info("Use case started", nil)

	if err := requireSession(session); err != nil {
		return nil, err
	}
	if !session.CanManage(userID) {
		ucLogger.Warn("Update of foreign profile denied", port.Fields{"actor_id": session.UserID})
		return nil, domain.ErrForbidden
	}

	current, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		ucLogger.Error("Repository failed to get user", err, nil)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	updated, err := update.Apply(*current, session, uc.now())
	if err != nil {
		ucLogger.Warn("Profile update rejected", port.Fields{"reason": err.Error()})
		return nil, err
	}

	if err := uc.users.Update(ctx, updated); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		ucLogger.Error("Repository failed to update user", err, nil)
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	ucLogger.Info("Use case finished successfully", nil)
	return updated, nil
}

// DeleteUserUseCase удаляет учетную запись вместе с ее объявлениями.
type DeleteUserUseCase struct {
	users  port.UserRepositoryPort
	events port.EventPublisherPort
	now    port.Clock
}

func NewDeleteUserUseCase(users port.UserRepositoryPort, events port.EventPublisherPort, now port.Clock) *DeleteUserUseCase {
	if now == nil {
		now = time.Now
	}
	return &DeleteUserUseCase{users: users, events: events, now: now}
}

func (uc *DeleteUserUseCase) Execute(ctx context.Context, session *domain.Session, userID string) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "DeleteUser", "user_id": userID})
	ucLogger.Info("Use case started", nil)

	if err := requireSession(session); err != nil {
		return err
	}
	if !session.CanManage(userID) {
		ucLogger.Warn("Deletion of foreign account denied", port.Fields{"actor_id": session.UserID})
		return domain.ErrForbidden
	}

	if err := uc.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		ucLogger.Error("Repository failed to delete user", err, nil)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	publishEvent(ctx, uc.events, ucLogger, constants.RoutingKeyUserDeleted, domain.UserDeletedEvent{
		UserID:    userID,
		DeletedBy: session.UserID,
		DeletedAt: uc.now().UTC(),
	})

	ucLogger.Info("Use case finished successfully", nil)
	return nil
}

// BrowseUsersUseCase - таблица пользователей для администратора.
type BrowseUsersUseCase struct {
	snapshots port.SnapshotReader[domain.User]
}

func NewBrowseUsersUseCase(snapshots port.SnapshotReader[domain.User]) *BrowseUsersUseCase {
	return &BrowseUsersUseCase{snapshots: snapshots}
}

func (uc *BrowseUsersUseCase) Execute(ctx context.Context, session *domain.Session, term string, sort domain.SortState) (*domain.UsersPage, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "BrowseUsers", "sort": sort.Field})

	if err := requireSession(session); err != nil {
		return nil, err
	}
	if !session.IsAdmin() {
		ucLogger.Warn("Non-admin tried to list users", port.Fields{"actor_id": session.UserID})
		return nil, domain.ErrForbidden
	}

	snapshot, ok := uc.snapshots.Snapshot()
	sourceErr := uc.snapshots.Err()
	if !ok {
		return &domain.UsersPage{Users: []domain.User{}, Loading: sourceErr == "", Err: sourceErr, Sort: sort}, nil
	}

	rendered := pipeline.RenderUsers(snapshot, term, sort)
	ucLogger.Debug("Users rendered", port.Fields{"total": len(rendered), "source_error": sourceErr})
	return &domain.UsersPage{Users: rendered, Total: len(rendered), Err: sourceErr, Sort: sort}, nil
}
