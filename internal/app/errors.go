package app

import (
	"errors"
	"fmt"

	"dailyquest-service/internal/domain"
)

var expected = []error{
	domain.ErrUnauthenticated,
	domain.ErrForbidden,
	domain.ErrInvalidOption,
	domain.ErrQuestionNotFound,
	domain.ErrInvalidQuestion,
	domain.ErrStorage,
	domain.ErrInvalidArgument,
	domain.ErrUserExists,
	domain.ErrUserNotFound,
	domain.ErrInvalidCredentials,
	domain.ErrGroupNotFound,
	domain.ErrNotGroupMember,
	domain.ErrFriendshipNotFound,
	domain.ErrAlreadyRequested,
}

// storageErr passes domain errors through and wraps anything else as ErrStorage.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range expected {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}
