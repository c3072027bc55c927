package trace

import "fmt"

// ConfigurationError reports missing or malformed configuration. It is
// fatal: no extraction runs.
type ConfigurationError struct {
	Path string // config file, empty when built in code
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// SourceEnumerationError reports a glob failure for one source.
type SourceEnumerationError struct {
	SourceID string
	Pattern  string
	Err      error
}

func (e *SourceEnumerationError) Error() string {
	return fmt.Sprintf("source %s: enumerate %q: %v", e.SourceID, e.Pattern, e.Err)
}

func (e *SourceEnumerationError) Unwrap() error { return e.Err }

// FileReadError reports an unreadable document or test file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ReportParseError reports a missing or malformed execution report.
type ReportParseError struct {
	SourceID string
	Path     string
	Err      error
}

func (e *ReportParseError) Error() string {
	return fmt.Sprintf("source %s: report %s: %v", e.SourceID, e.Path, e.Err)
}

func (e *ReportParseError) Unwrap() error { return e.Err }
