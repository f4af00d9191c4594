package usecase

import "errors"

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrSimulationNotFound  = errors.New("simulation not found")
	ErrForbidden           = errors.New("application belongs to another user")
	ErrNoApplications      = errors.New("no applications selected")
	ErrMissingJobFields    = errors.New("job_id and position are required")
	ErrNotLiked            = errors.New("only liked applications can be removed")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrReservedStatus      = errors.New("liked and applied are set by liking and applying, not manually")
	ErrInvalidBucket       = errors.New("bucket must be one of liked, active, rejected, all")
	ErrStatusConflict      = errors.New("application status was changed by someone else, reload and try again")
	ErrAIUnavailable       = errors.New("AI service not configured")
)
