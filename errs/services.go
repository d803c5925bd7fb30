package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
	ErrConfigInvalid = errors.New("configuration invalid")
)

// Image pipeline & third-party errors
var (
	ErrImageProcessing    = errors.New("image processing failed")
	ErrUploadFailed       = errors.New("failed to upload image")
	ErrNotificationFailed = errors.New("notification failed")
)

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Invalid configuration: %s", configName),
		Cause:      cause,
		Field:      "config",
	}
}

// NewConfigMissingError reports absent credentials or connection settings.
func NewConfigMissingError(service string, vars ...string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("%s %w", service, ErrConfigMissing),
		Details:    fmt.Sprintf("Please set up environment variables: %v", vars),
		Field:      "config",
	}
}

func NewImageProcessingError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("%w: %w", ErrUploadFailed, ErrImageProcessing),
		Cause:      cause,
	}
}

func NewUploadFailedError(host string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrUploadFailed,
		Details:    fmt.Sprintf("Upload to %s failed", host),
		Cause:      cause,
	}
}

func IsConfigMissingError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigInvalid)
}

func IsUploadFailedError(err error) bool {
	return errors.Is(err, ErrUploadFailed)
}

func IsImageProcessingError(err error) bool {
	return errors.Is(err, ErrImageProcessing)
}
