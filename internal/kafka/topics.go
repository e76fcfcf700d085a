package kafka

// Message keys written to the audit topics. Consumers are external; nothing
// in this module reads these streams back.
const (
	ActionTicketCreated    = "ticket_created"
	ActionTicketCancelled  = "ticket_cancelled"
	ActionEventCancelled   = "event_cancelled"
	ActionEventReactivated = "event_reactivated"
)
