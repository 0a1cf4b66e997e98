package dicegame

type EventType string

const (
	EventTypeDiceRolled EventType = "diceRolled"
	EventTypeLuckySeven EventType = "lucky7"
	EventTypeBust       EventType = "bust"
	EventTypeDoubles    EventType = "doubles"
)

// Event is an announcement produced while resolving a command, in the order
// clients should see it. The dice-rolled event always precedes the events of
// the pot resolution it triggered, so clients can animate the throw before
// showing the new pot.
type Event struct {
	Type EventType
	// Roll is set for EventTypeDiceRolled.
	Roll DiceRoll
	// Message is set for the announcement events.
	Message string
}
