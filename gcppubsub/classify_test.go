package gcppubsub_test

import (
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fastpubsub/fastpubsub/core"
	"github.com/fastpubsub/fastpubsub/gcppubsub"
)

func TestClassifyFatalCodes(t *testing.T) {
	for _, code := range []codes.Code{codes.PermissionDenied, codes.NotFound, codes.InvalidArgument, codes.Unauthenticated, codes.Canceled} {
		err := status.Error(code, "boom")
		if got := gcppubsub.Classify(err); got != core.ClassFatal {
			t.Errorf("code %v: got %v, want ClassFatal", code, got)
		}
	}
}

func TestClassifyRetryableCodes(t *testing.T) {
	for _, code := range []codes.Code{codes.Aborted, codes.DeadlineExceeded, codes.Unavailable, codes.Internal, codes.ResourceExhausted, codes.Unknown} {
		err := status.Error(code, "boom")
		if got := gcppubsub.Classify(err); got != core.ClassRetryable {
			t.Errorf("code %v: got %v, want ClassRetryable", code, got)
		}
	}
}

func TestClassifyUnknownCodeFallsBackToRetryable(t *testing.T) {
	err := status.Error(codes.FailedPrecondition, "boom")
	if got := gcppubsub.Classify(err); got != core.ClassRetryable {
		t.Errorf("got %v, want ClassRetryable", got)
	}
}
