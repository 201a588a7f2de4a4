package collide

const (
	TRIGGER_ENTER EventType = iota
	TRIGGER_STAY
	TRIGGER_EXIT
)

// pairKey is a trigger entity and an entity touching it.
type pairKey struct {
	trigger EntityID
	other   EntityID
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// TriggerEnterEvent is sent on the first tick Other touches Trigger.
type TriggerEnterEvent struct {
	Trigger EntityID
	Other   EntityID
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

// TriggerStayEvent is sent on every following tick while they still touch.
type TriggerStayEvent struct {
	Trigger EntityID
	Other   EntityID
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

// TriggerExitEvent is sent on the first tick they no longer touch, or when
// either of them left the scene.
type TriggerExitEvent struct {
	Trigger EntityID
	Other   EntityID
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// EventListener - callback for events
type EventListener func(event Event)

// Events tracks trigger touches across ticks and dispatches them to listeners.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Touch tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordTouches marks pairs as touching during the current tick.
func (e *Events) recordTouches(pairs []pairKey) {
	for _, pair := range pairs {
		e.currentActivePairs[pair] = true
	}
}

// forget ends every touch involving id, emitting the exits right away.
func (e *Events) forget(id EntityID) {
	for pair := range e.previousActivePairs {
		if pair.trigger == id || pair.other == id {
			e.buffer = append(e.buffer, TriggerExitEvent{Trigger: pair.trigger, Other: pair.other})
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.trigger == id || pair.other == id {
			delete(e.currentActivePairs, pair)
		}
	}
}

// processTouchEvents compares current and previous pairs to detect Enter/Stay/Exit
func (e *Events) processTouchEvents() {
	for pair := range e.currentActivePairs {
		if e.previousActivePairs[pair] {
			e.buffer = append(e.buffer, TriggerStayEvent{Trigger: pair.trigger, Other: pair.other})
		} else {
			e.buffer = append(e.buffer, TriggerEnterEvent{Trigger: pair.trigger, Other: pair.other})
		}
	}

	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, TriggerExitEvent{Trigger: pair.trigger, Other: pair.other})
		}
	}

	// Swap for next tick and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processTouchEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}

// reset drops every tracked touch without emitting anything.
func (e *Events) reset() {
	clear(e.previousActivePairs)
	clear(e.currentActivePairs)
	e.buffer = e.buffer[:0]
}
