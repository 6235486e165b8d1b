package topics

const (
	// Liquidação
	SettlementEvents = "settlement_events"

	// DLQs
	SettlementEventsDLQ = "settlement_events_dlq"

	// Redis Pub/Sub dos snapshots de rodada
	RoundSnapshots = "round_snapshots_broadcast"
)
