package dto

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    uint32 `json:"code,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

type EscrowResponse struct {
	Owner   string `json:"owner"`
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

type AddressResponse struct {
	Tag     string `json:"tag"`
	RoundID uint64 `json:"round_id"`
	Address string `json:"address"`
}

type AmountResponse struct {
	Amount uint64 `json:"amount"`
}
