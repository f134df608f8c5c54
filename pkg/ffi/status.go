package ffi

import (
	"github.com/ajitpratap0/sasarrow/pkg/errors"
)

// Status is the closed set of codes every boundary operation returns.
// The numeric values are part of the C ABI and must not be reordered.
type Status int32

const (
	StatusOK Status = iota
	StatusFileNotFound
	StatusInvalidFile
	StatusOutOfMemory
	StatusConversionError
	StatusEndOfData
	StatusInvalidIndex
	StatusNullArgument
)

// Ok reports whether the status is a success.
func (s Status) Ok() bool { return s == StatusOK }

// Message returns the static description of a status code.
func (s Status) Message() string {
	switch s {
	case StatusOK:
		return "Success"
	case StatusFileNotFound:
		return "File not found or cannot be opened"
	case StatusInvalidFile:
		return "Invalid source file format"
	case StatusOutOfMemory:
		return "Out of memory"
	case StatusConversionError:
		return "Conversion error"
	case StatusEndOfData:
		return "End of data reached"
	case StatusInvalidIndex:
		return "Invalid index"
	case StatusNullArgument:
		return "Null pointer provided"
	default:
		return "Unknown error"
	}
}

// statusOf maps an internal structured error to its boundary status code.
func statusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch errors.TypeOf(err) {
	case errors.ErrorTypeFile:
		return StatusFileNotFound
	case errors.ErrorTypeData, errors.ErrorTypeInput:
		return StatusInvalidFile
	case errors.ErrorTypeResource:
		return StatusOutOfMemory
	case errors.ErrorTypeSequencing:
		return StatusInvalidIndex
	case errors.ErrorTypeNullArgument:
		return StatusNullArgument
	default:
		return StatusConversionError
	}
}
