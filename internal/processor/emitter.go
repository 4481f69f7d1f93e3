package processor

// Event names and the recipient the UI layer listens on.
const (
	Recipient     = "main"
	EventProgress = "watermark-progress"
	EventComplete = "watermark-complete"
)

// Emitter delivers one-way notifications to an external observer. Delivery
// is fire-and-forget: implementations must not block processing, and any
// delivery failure is ignored by the orchestrator.
type Emitter interface {
	Emit(recipient, event string, payload interface{})
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) Emit(string, string, interface{}) {}
