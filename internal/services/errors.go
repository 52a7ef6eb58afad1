package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrAlreadyMember is returned when a user tries to create or join an
	// episode while still holding a membership somewhere.
	ErrAlreadyMember = errors.New("you are already a member of an episode, exit your current episode first")

	// ErrActiveEpisodeExists is returned when a non-full episode with the
	// requested juz already exists; the caller should join it instead.
	ErrActiveEpisodeExists = errors.New("an active episode with fewer than 50 members already exists, join it instead of creating a new one")

	// ErrEpisodeNotFound covers both a missing episode and a full one, so
	// full episodes are not discoverable through the join path.
	ErrEpisodeNotFound = errors.New("episode not found or already full")

	// ErrTooFarBehind is returned when an episode has advanced past the
	// catch-up limit and can no longer accept joiners.
	ErrTooFarBehind = errors.New("you can't join this episode, its progress of more than 6 juz cannot be caught up")

	// ErrNotAMember is returned when exiting an episode the user never joined.
	ErrNotAMember = errors.New("user is not a member of this episode")

	// ErrEpisodeNotJoined is returned by progress operations when the user
	// holds no membership at all.
	ErrEpisodeNotJoined = errors.New("user has not joined any episode")

	// ErrProgressNotFound is returned when submitting against a missing
	// ledger row.
	ErrProgressNotFound = errors.New("progress not found")

	// ErrConflict is returned when a write lost a storage-level race; the
	// caller may retry the request.
	ErrConflict = errors.New("conflicting update, please retry")
)

// QuotaExceededError is returned when a submission exceeds the day's quota.
// The quota already includes any deficit carried over from prior days.
type QuotaExceededError struct {
	Quota int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("your max reading juz is %d today", e.Quota)
}

// retryOnce retries a transient read failure a single time. Not-found is a
// definitive answer and is surfaced immediately.
func retryOnce(op func() error) error {
	err := op()
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return op()
}
