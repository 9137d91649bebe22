package alohava

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is the result code of a runtime operation. Every error returned by
// this package is, or wraps, exactly one Status.
type Status uint32

const (
	Success                   Status = 0x00000000
	ErrOperationFailed        Status = 0x00000001
	ErrAllocationFailed       Status = 0x00000002
	ErrInvalidDisplay         Status = 0x00000003
	ErrInvalidConfig          Status = 0x00000004
	ErrInvalidContext         Status = 0x00000005
	ErrInvalidSurface         Status = 0x00000006
	ErrInvalidBuffer          Status = 0x00000007
	ErrInvalidImage           Status = 0x00000008
	ErrInvalidSubpicture      Status = 0x00000009
	ErrAttrNotSupported       Status = 0x0000000a
	ErrMaxNumExceeded         Status = 0x0000000b
	ErrUnsupportedProfile     Status = 0x0000000c
	ErrUnsupportedEntrypoint  Status = 0x0000000d
	ErrUnsupportedRTFormat    Status = 0x0000000e
	ErrUnsupportedBufferType  Status = 0x0000000f
	ErrSurfaceBusy            Status = 0x00000010
	ErrFlagNotSupported       Status = 0x00000011
	ErrInvalidParameter       Status = 0x00000012
	ErrResolutionNotSupported Status = 0x00000013
	ErrUnimplemented          Status = 0x00000014
	ErrSurfaceInDisplaying    Status = 0x00000015
	ErrInvalidImageFormat     Status = 0x00000016
	ErrUnknown                Status = 0xffffffff
)

var statusStrings = map[Status]string{
	Success:                   "success (no error)",
	ErrOperationFailed:        "operation failed",
	ErrAllocationFailed:       "resource allocation failed",
	ErrInvalidDisplay:         "invalid VADisplay",
	ErrInvalidConfig:          "invalid VAConfigID",
	ErrInvalidContext:         "invalid VAContextID",
	ErrInvalidSurface:         "invalid VASurfaceID",
	ErrInvalidBuffer:          "invalid VABufferID",
	ErrInvalidImage:           "invalid VAImageID",
	ErrInvalidSubpicture:      "invalid VASubpictureID",
	ErrAttrNotSupported:       "attribute not supported",
	ErrMaxNumExceeded:         "list argument exceeds maximum number",
	ErrUnsupportedProfile:     "the requested VAProfile is not supported",
	ErrUnsupportedEntrypoint:  "the requested VAEntryPoint is not supported",
	ErrUnsupportedRTFormat:    "the requested RT Format is not supported",
	ErrUnsupportedBufferType:  "the requested VABufferType is not supported",
	ErrSurfaceBusy:            "surface is in use",
	ErrFlagNotSupported:       "flag not supported",
	ErrInvalidParameter:       "invalid parameter",
	ErrResolutionNotSupported: "resolution not supported",
	ErrUnimplemented:          "the requested function is not implemented",
	ErrSurfaceInDisplaying:    "surface is in displaying (may by overlay)",
	ErrInvalidImageFormat:     "invalid image format",
	ErrUnknown:                "unknown libva error",
}

// ErrorString returns a short English description of a status code.
func ErrorString(s Status) string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return fmt.Sprintf("unknown libva error 0x%08x", uint32(s))
}

func (s Status) Error() string {
	return ErrorString(s)
}

// StatusOf maps an error returned by this package back to its status code.
// A nil error is Success; errors from elsewhere are ErrUnknown.
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return ErrUnknown
}
