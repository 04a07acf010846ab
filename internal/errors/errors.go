package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("user with specified email already exists")
	// ErrInvalidRole is returned when registering with an unknown user type.
	ErrInvalidRole = errors.New("user type must be patient or doctor")
	// ErrMissingDoctorFields is returned when a doctor registers without availability or specialization.
	ErrMissingDoctorFields = errors.New("availability and specialization are required to register a doctor")
	// ErrUserNotFound is returned when a user cannot be resolved.
	ErrUserNotFound = errors.New("user does not exist")
	// ErrBadPassword is returned when the password does not match the stored hash.
	ErrBadPassword = errors.New("bad password")
	// ErrBadRefreshToken is returned when a refresh token fails verification.
	ErrBadRefreshToken = errors.New("bad refresh token")
	// ErrRefreshNotFound is returned when a verified refresh token has no session.
	ErrRefreshNotFound = errors.New("refresh token does not exist")
	// ErrNotADoctor is returned when a doctor-only operation is attempted by another role.
	ErrNotADoctor = errors.New("user is not a doctor")
	// ErrNotOwner is returned when a doctor acts on another doctor's appointment.
	ErrNotOwner = errors.New("the appointment does not belong to the doctor")
	// ErrAppointmentNotFound is returned when an appointment cannot be found.
	ErrAppointmentNotFound = errors.New("appointment does not exist")
	// ErrCapacityExceeded is returned when the requested slot is fully booked.
	ErrCapacityExceeded = errors.New("no more appointments available for the requested date")
	// ErrPastDate is returned when booking an appointment in the past.
	ErrPastDate = errors.New("impossible to create an appointment in the past")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

var codes = []struct {
	err    error
	status int
	code   string
}{
	{ErrDuplicateEmail, http.StatusBadRequest, "DUPLICATE_EMAIL"},
	{ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
	{ErrMissingDoctorFields, http.StatusBadRequest, "MISSING_DOCTOR_FIELDS"},
	{ErrUserNotFound, http.StatusBadRequest, "USER_NOT_FOUND"},
	{ErrBadPassword, http.StatusBadRequest, "BAD_PASSWORD"},
	{ErrBadRefreshToken, http.StatusUnauthorized, "BAD_REFRESH_TOKEN"},
	{ErrRefreshNotFound, http.StatusBadRequest, "REFRESH_NOT_FOUND"},
	{ErrNotADoctor, http.StatusBadRequest, "NOT_A_DOCTOR"},
	{ErrNotOwner, http.StatusBadRequest, "NOT_OWNER"},
	{ErrAppointmentNotFound, http.StatusBadRequest, "APPOINTMENT_NOT_FOUND"},
	{ErrCapacityExceeded, http.StatusBadRequest, "CAPACITY_EXCEEDED"},
	{ErrPastDate, http.StatusBadRequest, "PAST_DATE"},
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return NewHTTPError(c.status, c.err.Error(), c.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
