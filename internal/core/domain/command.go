package domain

import "fmt"

// FeedInRequest

type FeedInRequest interface {
	ActorRequest
	FeedInCommand() string
}

type FeedInRequestMixIn struct {
	ActorRequestMixIn
}

func (r FeedInRequestMixIn) FeedInCommand() string {
	return fmt.Sprintf("%T", r)
}

// FeedIn commands

type FeedInEnableRequest struct {
	FeedInRequestMixIn
	Enable bool
}

type FeedInSetBufferRequest struct {
	FeedInRequestMixIn
	BufferWatt int32
}

// FeedInPowerRequest carries a reading of the external power topic.
type FeedInPowerRequest struct {
	FeedInRequestMixIn
	PowerWatt float64
}

type FeedInGetStateRequest struct {
	FeedInRequestMixIn
}

type FeedInGetStateResponse struct {
	ActorResponseMixIn
	Enabled     bool
	BufferWatt  int32
	WrittenWatt int32
}

// Emergency mode commands

type EmergencyModeRequest struct {
	ActorRequestMixIn
	Enable bool
}

type EmergencyModeResponse struct {
	ActorResponseMixIn
	State bool
}

// ensure interface compliance
var _ FeedInRequest = (*FeedInEnableRequest)(nil)
var _ FeedInRequest = (*FeedInSetBufferRequest)(nil)
var _ FeedInRequest = (*FeedInPowerRequest)(nil)
var _ FeedInRequest = (*FeedInGetStateRequest)(nil)
