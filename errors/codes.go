package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Parse errors
//   - E2xxx: Environment errors
//   - E3xxx: Runtime traps
//   - E9xxx: Internal compiler errors
type ErrorCode string

const (
	// Parse errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unmatched loop close
	E1002 ErrorCode = "E1002" // Unmatched loop open

	// Environment errors (E2xxx)
	E2001 ErrorCode = "E2001" // Memory mapping failed
	E2002 ErrorCode = "E2002" // Unsupported platform

	// Runtime traps (E3xxx)
	E3001 ErrorCode = "E3001" // Tape access out of range

	// Internal compiler errors (E9xxx)
	E9001 ErrorCode = "E9001" // Compiler invariant violated
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "unmatched ']'",
	E1002: "unmatched '['",
	E2001: "memory mapping failed",
	E2002: "unsupported platform",
	E3001: "tape access out of range",
	E9001: "internal compiler error",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}
