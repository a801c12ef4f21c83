package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Auth & Session errors
// 12000-12999: Problem errors
// 13000-13999: Submission & Polling errors
// 14000-14999: Local state & Preferences errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Transport errors (10100-10199)
	NetworkError    ErrorCode = 10100
	InvalidResponse ErrorCode = 10101
	RequestCanceled ErrorCode = 10102

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Auth & Session Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials ErrorCode = 11000
	UserNotFound       ErrorCode = 11001
	TokenExpired       ErrorCode = 11003
	TokenInvalid       ErrorCode = 11004
	RefreshFailed      ErrorCode = 11005
	SessionExpired     ErrorCode = 11006

	// Registration (11100-11199)
	UsernameAlreadyExists ErrorCode = 11100
	EmailAlreadyExists    ErrorCode = 11101
	InvalidUsername       ErrorCode = 11102
	InvalidEmail          ErrorCode = 11103
	InvalidPassword       ErrorCode = 11104
	PasswordTooWeak       ErrorCode = 11105
	PasswordMismatch      ErrorCode = 11106

	// ========== Problem Errors (12000-12999) ==========

	ProblemNotFound ErrorCode = 12000

	// ========== Submission & Polling Errors (13000-13999) ==========

	// Submission (13000-13099)
	SubmissionNotFound     ErrorCode = 13000
	SubmissionCreateFailed ErrorCode = 13001
	CodeTooLarge           ErrorCode = 13002
	LanguageNotSupported   ErrorCode = 13003
	InputTooLarge          ErrorCode = 13004

	// Polling (13100-13199)
	MalformedSnapshot  ErrorCode = 13100
	PollBudgetExceeded ErrorCode = 13101

	// ========== Local State Errors (14000-14999) ==========

	StateStoreError   ErrorCode = 14000
	StateStoreClosed  ErrorCode = 14001
	PreferenceInvalid ErrorCode = 14100
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Transport
	NetworkError:    "Network error, please check your connection",
	InvalidResponse: "Invalid response from server",
	RequestCanceled: "Request canceled",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Auth
	InvalidCredentials: "Invalid email or password",
	UserNotFound:       "User not found",
	TokenExpired:       "Token has expired",
	TokenInvalid:       "Invalid token",
	RefreshFailed:      "Failed to refresh session",
	SessionExpired:     "Session expired, please login again",

	// Registration
	UsernameAlreadyExists: "Username already exists",
	EmailAlreadyExists:    "Email already exists",
	InvalidUsername:       "Invalid username format",
	InvalidEmail:          "Invalid email address",
	InvalidPassword:       "Invalid password format",
	PasswordTooWeak:       "Password is too weak",
	PasswordMismatch:      "Passwords do not match",

	// Problem
	ProblemNotFound: "Problem not found",

	// Submission
	SubmissionNotFound:     "Submission not found",
	SubmissionCreateFailed: "Failed to create submission",
	CodeTooLarge:           "Code exceeds maximum length",
	LanguageNotSupported:   "Programming language not supported",
	InputTooLarge:          "Input exceeds maximum length",

	// Polling
	MalformedSnapshot:  "Malformed submission status",
	PollBudgetExceeded: "Gave up waiting for verdict",

	// Local state
	StateStoreError:   "Local state operation failed",
	StateStoreClosed:  "Local state store is closed",
	PreferenceInvalid: "Invalid preference value",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == Unauthorized, c == TokenExpired, c == TokenInvalid, c == InvalidCredentials, c == SessionExpired:
		return 401
	case c == Forbidden:
		return 403
	case c == NotFound, c == UserNotFound, c == ProblemNotFound, c == SubmissionNotFound:
		return 404
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c == Timeout:
		return 504
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c >= 11100 && c < 11200: // Registration errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported, c == CodeTooLarge:
		return 400
	default:
		return 500
	}
}

// FromHTTPStatus maps a response status from the judge backend to an error code.
func FromHTTPStatus(status int) ErrorCode {
	switch {
	case status >= 200 && status < 300:
		return Success
	case status == 400, status == 422:
		return InvalidParams
	case status == 401:
		return Unauthorized
	case status == 403:
		return Forbidden
	case status == 404:
		return NotFound
	case status == 408, status == 504:
		return Timeout
	case status == 429:
		return TooManyRequests
	case status >= 500:
		return ServiceUnavailable
	default:
		return InvalidResponse
	}
}
