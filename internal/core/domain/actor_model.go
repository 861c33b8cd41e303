package domain

import "github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_MODBUS       = "modbus"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_FEEDIN       = "feedin"
	ACTOR_ID_EMERGENCY    = "emergency"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// PollerActorId names the poller child that owns a register block.
func PollerActorId(block string) string {
	return ACTOR_ID_POLLER + "_" + block
}

type GetDevicesInfoRequest struct {
	ActorRequestMixIn
}

type GetDevicesInfoResponse struct {
	ActorResponseMixIn
	Device *askoheat_modbus.DeviceInfo
}

type ReadBlockRequest struct {
	ActorRequestMixIn
	Block string
}

type ReadBlockResponse struct {
	ActorResponseMixIn
	Block *askoheat_modbus.DecodedBlock
}

type WriteFieldRequest struct {
	ActorRequestMixIn
	Block string
	Key   string
	Value any
}

type WriteFieldResponse struct {
	ActorResponseMixIn
	Block *askoheat_modbus.DecodedBlock
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Entities
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
