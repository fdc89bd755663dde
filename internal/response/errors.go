package response

// ErrCode is a typed error code enum for consistent API error identification.
// The exam client maps these codes back onto domain errors, so values are part
// of the wire contract.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamFinished   ErrCode = "EXAM_ALREADY_FINISHED"
	ErrUnknownAnswer  ErrCode = "UNKNOWN_ANSWER_OPTION"
	ErrCheckForbidden ErrCode = "CHECK_NOT_AVAILABLE"
	ErrIncomplete     ErrCode = "INCOMPLETE_SUBMISSION"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid id format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrNotFound:
		return "Resource not found."
	case ErrExamFinished:
		return "This exam has already been submitted."
	case ErrUnknownAnswer:
		return "The selected answer does not belong to this question."
	case ErrCheckForbidden:
		return "Answer checking is only available in tutor mode."
	case ErrIncomplete:
		return "The submission does not cover every question of the exam."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
