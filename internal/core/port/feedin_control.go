package port

type FeedInControlLogic interface {
	// FeedInValue converts a grid power reading into the value written to
	// the EMA feed-in register.
	FeedInValue(powerWatt float64, bufferWatt int32) int32
}
