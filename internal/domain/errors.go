package domain

import "errors"

var (
	// ErrUnauthenticated is returned when an operation runs without a resolved user.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the user is authenticated but not allowed to act.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidOption indicates a submitted option number is out of range or missing.
	ErrInvalidOption = errors.New("invalid option")
	// ErrQuestionNotFound indicates a referenced question does not exist or is no longer live.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuestion indicates a question failed bank validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrStorage wraps any persistence failure.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrUserExists         = errors.New("email or username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrGroupNotFound  = errors.New("group not found")
	ErrNotGroupMember = errors.New("not a member of this group")

	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrAlreadyRequested   = errors.New("friend request already sent")
)
