package domain

// PublishStatus describes the result of a publish attempt.
type PublishStatus string

const (
	StatusSuccess                 PublishStatus = "success"
	StatusSuccessAlreadyPublished PublishStatus = "success_already_published"
	StatusFailedHasExpired        PublishStatus = "failed_has_expired"
	StatusFailedAwaitingRelease   PublishStatus = "failed_awaiting_release"
	StatusFailedIsTrashed         PublishStatus = "failed_is_trashed"
	StatusFailedPathNotPublished  PublishStatus = "failed_path_not_published"
	StatusFailedContentInvalid    PublishStatus = "failed_content_invalid"
)

// PublishOutcome is returned by a publish attempt that completed without a
// storage fault. A rejected publish has Success false and may carry the
// underlying cause in Err.
type PublishOutcome struct {
	Success bool
	Status  PublishStatus
	Err     error
}

// Published builds a successful outcome.
func Published(status PublishStatus) PublishOutcome {
	return PublishOutcome{Success: true, Status: status}
}

// PublishFailed builds a rejected outcome; cause may be nil.
func PublishFailed(status PublishStatus, cause error) PublishOutcome {
	return PublishOutcome{Status: status, Err: cause}
}
