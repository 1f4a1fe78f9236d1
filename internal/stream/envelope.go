// Package stream implements the durable game-event pipeline over Redis
// Streams: the producer appends validated events, the broker wraps consumer
// group semantics, and the consumer loop polls batches into the processor.
package stream

// Envelope field names. An envelope either carries a serialized game event
// under the data field or stream lifecycle metadata marked by type.
const (
	fieldData      = "data"
	fieldType      = "type"
	fieldService   = "service"
	fieldTimestamp = "timestamp"

	typeStreamInit = "STREAM_INIT"
)

// Envelope is one logged stream entry. IDs are assigned by the log in append
// order; a consumer group never sees an envelope again once acknowledged.
type Envelope struct {
	ID     string
	Fields map[string]string
}

// IsMetadata reports whether this envelope is stream lifecycle metadata
// rather than a game event. Metadata is acknowledged and never dispatched.
func (e Envelope) IsMetadata() bool {
	if _, ok := e.Fields[fieldData]; !ok {
		return true
	}
	return e.Fields[fieldType] == typeStreamInit
}

// Data returns the serialized event payload. Empty for metadata envelopes.
func (e Envelope) Data() string {
	return e.Fields[fieldData]
}
