package gcppubsub

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fastpubsub/fastpubsub/core"
)

// retryable is the gRPC status set that leaves a poll task running but
// unready; fatal is the set that stops it. Anything not named in either set
// falls back to retryable, with a warning, matching "unknown error,
// continuing".
var retryable = map[codes.Code]bool{
	codes.Aborted:           true,
	codes.DeadlineExceeded:  true,
	codes.Unavailable:       true, // GatewayTimeout / ServiceUnavailable surface here
	codes.Internal:          true, // InternalServerError
	codes.ResourceExhausted: true,
	codes.Unknown:           true,
}

var fatal = map[codes.Code]bool{
	codes.Canceled:         true,
	codes.InvalidArgument:  true,
	codes.NotFound:         true,
	codes.PermissionDenied: true,
	codes.Unauthenticated:  true,
}

// Classify unwraps err's gRPC status (if any) and sorts it into
// core.ClassRetryable or core.ClassFatal.
func Classify(err error) core.ErrorClass {
	code := status.Code(err)
	switch {
	case fatal[code]:
		return core.ClassFatal
	case retryable[code]:
		return core.ClassRetryable
	default:
		// Unknown error, continuing: anything not named in either set is
		// treated as retryable.
		return core.ClassRetryable
	}
}
