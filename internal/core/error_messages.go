// Package core provides the business logic for SOSI document analysis.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Dataset Errors (DS001-DS099)
//
// Errors related to the in-memory dataset registry:
//
//	DS001 - Dataset not found: The dataset does not exist or has expired
//	        Action: Upload the file again to create a fresh dataset
//	        Patterns: "dataset not found"
//
// # Ingest Errors (ING001-ING099)
//
// Errors related to the ingest pipeline and session management:
//
//	ING001 - Ingest not found: Ingest session not found
//	         Action: The ingest may have expired. Please upload again
//	         Patterns: "ingest not found"
//
//	ING002 - System busy: Too many ingests in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent ingests"
//
//	ING003 - Ingest cancelled: Ingest was cancelled
//	         Action: Start a new upload when ready
//	         Patterns: "ingest cancelled"
//
//	ING004 - Ingest timeout: Ingest took too long and was aborted
//	         Action: Try a smaller file or raise the ingest timeout
//	         Patterns: "ingest timed out"
//
//	ING005 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	ING006 - Request timeout: Request timed out
//	         Action: Try a smaller file or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Encoding Errors (ENC001-ENC099)
//
// Errors related to character set handling:
//
//	ENC001 - Unsupported encoding: The character set is not recognized
//	         Action: Use ISO8859-1, WINDOWS-1252 (ANSI), or UTF-8
//	         Patterns: "unsupported encoding"
//
//	ENC002 - Decode failed: The document could not be decoded
//	         Action: Check the file's character set or force one explicitly
//	         Patterns: "decode"
//
//	ENC003 - Encode failed: The cleaned document could not be re-encoded
//	         Action: Please try again or contact support
//	         Patterns: "encode"
//
// # File Errors (FILE001-FILE099)
//
// Errors related to file handling:
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file or raise INGEST_MAX_FILE_SIZE
//	          Patterns: "file too large"
//
//	FILE002 - Empty file: The uploaded file is empty
//	          Action: Please upload a SOSI file with content
//	          Patterns: "empty file"
//
//	FILE003 - No file: No file was selected
//	          Action: Please select a SOSI file to upload
//	          Patterns: "no file provided"
//
// # Selection Errors (SEL001-SEL099)
//
// Errors related to stored selections and selection payloads:
//
//	SEL001 - Selection not found: No stored selection with that name
//	         Action: List selections to see what is available
//	         Patterns: "selection not found"
//
//	SEL002 - Invalid name: Selection name is empty or too long
//	         Action: Use a name of at most 128 characters
//	         Patterns: "invalid selection name"
//
//	SEL003 - Invalid payload: Selection JSON could not be parsed
//	         Action: Check the selection payload for unknown keys or categories
//	         Patterns: "parse selection"
//
// # Pivot Errors (PIV001-PIV099)
//
// Errors related to frequency and crosstab requests:
//
//	PIV001 - Unknown category: The feature category is not recognized
//	         Action: Use "points" or "lines"
//	         Patterns: "unknown category"
//
//	PIV002 - Unknown binning mode: The binning mode is not recognized
//	         Action: Use "equal-width" or "quantile"
//	         Patterns: "unknown binning mode"
//
// # Clean Errors (CLN001-CLN099)
//
// Errors related to document rewriting:
//
//	CLN001 - Unknown field mode: The field mode is not recognized
//	         Action: Use "remove-fields" or "clear-values"
//	         Patterns: "unknown field mode"
//
// # Rate Limiting (RATE001-RATE099)
//
// Errors related to request throttling:
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones ("ingest timed out" before "context
// deadline exceeded", "decode" before "encode" is irrelevant but both
// come after every more specific pattern).
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Dataset Errors (DS001)
	// These errors occur when a dataset ID no longer resolves.
	// =========================================================================
	{
		pattern: "dataset not found",
		msg: UserMessage{
			Message: "The dataset does not exist or has expired",
			Action:  "Upload the file again to create a fresh dataset",
			Code:    "DS001",
		},
	},

	// =========================================================================
	// Ingest Errors (ING001-ING006)
	// These errors occur during the ingest pipeline and its session handling.
	// =========================================================================
	{
		pattern: "ingest not found",
		msg: UserMessage{
			Message: "Ingest session not found",
			Action:  "The ingest may have expired. Please upload again",
			Code:    "ING001",
		},
	},
	{
		pattern: "too many concurrent ingests",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "ING002",
		},
	},
	{
		pattern: "ingest cancelled",
		msg: UserMessage{
			Message: "Ingest was cancelled",
			Action:  "Start a new upload when ready",
			Code:    "ING003",
		},
	},
	{
		pattern: "ingest timed out",
		msg: UserMessage{
			Message: "Ingest took too long and was aborted",
			Action:  "Try a smaller file or raise the ingest timeout",
			Code:    "ING004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "ING005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "ING006",
		},
	},

	// =========================================================================
	// Encoding Errors (ENC001-ENC003)
	// These errors occur when character set handling fails.
	// =========================================================================
	{
		pattern: "unsupported encoding",
		msg: UserMessage{
			Message: "The character set is not recognized",
			Action:  "Use ISO8859-1, WINDOWS-1252 (ANSI), or UTF-8",
			Code:    "ENC001",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE003)
	// These errors occur when handling uploaded files.
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file or raise INGEST_MAX_FILE_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a SOSI file with content",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a SOSI file to upload",
			Code:    "FILE003",
		},
	},

	// =========================================================================
	// Selection Errors (SEL001-SEL003)
	// These errors occur around stored selections and their payloads.
	// =========================================================================
	{
		pattern: "selection not found",
		msg: UserMessage{
			Message: "No stored selection with that name",
			Action:  "List selections to see what is available",
			Code:    "SEL001",
		},
	},
	{
		pattern: "invalid selection name",
		msg: UserMessage{
			Message: "Selection name is empty or too long",
			Action:  "Use a name of at most 128 characters",
			Code:    "SEL002",
		},
	},
	{
		pattern: "parse selection",
		msg: UserMessage{
			Message: "Selection payload could not be parsed",
			Action:  "Check the selection payload for unknown keys or categories",
			Code:    "SEL003",
		},
	},

	// =========================================================================
	// Pivot Errors (PIV001-PIV002)
	// These errors occur when frequency or crosstab parameters are invalid.
	// =========================================================================
	{
		pattern: "unknown category",
		msg: UserMessage{
			Message: "The feature category is not recognized",
			Action:  "Use \"points\" or \"lines\"",
			Code:    "PIV001",
		},
	},
	{
		pattern: "unknown binning mode",
		msg: UserMessage{
			Message: "The binning mode is not recognized",
			Action:  "Use \"equal-width\" or \"quantile\"",
			Code:    "PIV002",
		},
	},

	// =========================================================================
	// Clean Errors (CLN001)
	// These errors occur when rewrite parameters are invalid.
	// =========================================================================
	{
		pattern: "unknown field mode",
		msg: UserMessage{
			Message: "The field mode is not recognized",
			Action:  "Use \"remove-fields\" or \"clear-values\"",
			Code:    "CLN001",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// These errors occur when request limits are exceeded.
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},

	// =========================================================================
	// Late Encoding Errors (ENC002-ENC003)
	// The bare "decode"/"encode" patterns are broad, so they sit after
	// every more specific pattern.
	// =========================================================================
	{
		pattern: "decode",
		msg: UserMessage{
			Message: "The document could not be decoded",
			Action:  "Check the file's character set or force one explicitly",
			Code:    "ENC002",
		},
	},
	{
		pattern: "encode",
		msg: UserMessage{
			Message: "The cleaned document could not be re-encoded",
			Action:  "Please try again or contact support",
			Code:    "ENC003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("dataset not found: abc")
//	msg := MapError(err)
//	// msg.Code == "DS001"
//	// msg.Message == "The dataset does not exist or has expired"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "The dataset does not exist or has expired (Code: DS001). Upload the file again to create a fresh dataset"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean
// message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(err)
//	log.Error(ue.Technical)          // Log original error
//	fmt.Println(ue.Error())          // Show "The dataset does not exist or has expired"
//	fmt.Println(ue.User.Code)        // Show "DS001"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
