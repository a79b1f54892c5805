package gcppubsub

import "os"

// EmulatorMode reports whether PUBSUB_EMULATOR_HOST is set, the same
// environment variable cloud.google.com/go/pubsub itself checks when
// dialing a client. Client.UpdateSubscription asks this to decide whether
// to add filter to an update mask.
func EmulatorMode() bool {
	return os.Getenv("PUBSUB_EMULATOR_HOST") != ""
}
