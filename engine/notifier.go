package engine

// Notification kinds emitted by the engine.
const (
	KindStatusChanged    = "status_changed"
	KindWaitlistPromoted = "waitlist_promoted"
	KindTeamCreated      = "team_created"
	KindTeamJoined       = "team_joined"
	KindPaymentCompleted = "payment_completed"
)

// Notifier receives domain events and fans them out as user-visible
// notifications. Emit is fire-and-forget; the engine never waits on
// delivery.
type Notifier interface {
	Emit(kind string, payload map[string]interface{})
}

// NopNotifier drops every event. Used in tests and as a default.
type NopNotifier struct{}

// Emit discards the event.
func (NopNotifier) Emit(string, map[string]interface{}) {}
