package models

// DispatchCandidate is one ranked driver suggestion.
type DispatchCandidate struct {
	DriverID       string `json:"driver_id"`
	Name           string `json:"name"`
	ActiveOrders   int    `json:"active_orders"`
	Available      bool   `json:"available"`
	DistanceMeters *int   `json:"distance_meters,omitempty"`
}

// SuggestionResponse is the ranked candidate list for an order. NextCursor
// is set only for the round-robin strategy; the client threads it back on
// the next call. Fallback names the strategy actually used when the
// requested one could not run.
type SuggestionResponse struct {
	OrderID    string              `json:"order_id,omitempty"`
	Strategy   string              `json:"strategy"`
	Fallback   string              `json:"fallback,omitempty"`
	Candidates []DispatchCandidate `json:"candidates"`
	NextCursor *int                `json:"next_cursor,omitempty"`
}
