package alloc

import "fmt"

// ConfigError marks a fatal configuration problem (missing model artifact,
// unreadable CSV, empty roster). A run hit by one aborts before producing
// any output.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a ConfigError with context.
func NewConfigError(msg string, err error) *ConfigError {
	return &ConfigError{Msg: msg, Err: err}
}

// DataError marks a data-quality problem in a patient row. These are
// recovered locally (the cell becomes the missing sentinel and a
// validation_warning event is emitted); a DataError only surfaces as an
// error when recovery is impossible, e.g. a row with no identifier.
type DataError struct {
	Row int
	Msg string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data: row %d: %s", e.Row, e.Msg)
}

// NewDataError builds a DataError for the given CSV row.
func NewDataError(row int, msg string) *DataError {
	return &DataError{Row: row, Msg: msg}
}
