package workspace

import "errors"

// ErrProjectNotFound is returned when no project has the requested name.
var ErrProjectNotFound = errors.New("project not found")

// ScanErrorType represents the type of a workspace scanning error.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the workspace root does not exist.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// NotADirectory indicates the workspace root is a file.
	NotADirectory ScanErrorType = "NOT_A_DIRECTORY"
	// PermissionDenied indicates the workspace root cannot be read.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
)

// ScanError represents an error that occurred while enumerating projects.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return string(e.Type) + ": " + e.Path
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
