package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrPromptRequired  = errors.New("prompt is required")
	ErrProviderAuth    = errors.New("provider authentication failed")
	ErrProviderQuota   = errors.New("provider quota exceeded")
	ErrContentRejected = errors.New("prompt rejected by content policy")
	ErrProviderTimeout = errors.New("provider request timed out")
	ErrEmptyResult     = errors.New("provider returned no images")
	ErrStorageWrite    = errors.New("storage write failed")
	ErrStorageList     = errors.New("storage list failed")
)

// ErrorKind returns the machine-readable kind string for an error, used in
// API error payloads alongside the human-readable message.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrPromptRequired):
		return "validation"
	case errors.Is(err, ErrProviderAuth):
		return "upstream_auth"
	case errors.Is(err, ErrProviderQuota):
		return "upstream_quota"
	case errors.Is(err, ErrContentRejected):
		return "content_rejected"
	case errors.Is(err, ErrProviderTimeout):
		return "upstream_timeout"
	case errors.Is(err, ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, ErrStorageWrite):
		return "storage_write"
	case errors.Is(err, ErrStorageList):
		return "storage_list"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
