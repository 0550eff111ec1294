package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ClaimRequest struct {
	Amount string   `json:"amount"`
	Proof  []string `json:"proof"`
}

type ClaimResponse struct {
	Address    string `json:"address"`
	Amount     string `json:"amount"`
	ClaimCount uint64 `json:"claim_count"`
	ClaimedAt  string `json:"claimed_at"`
}

type EligibilityRequest struct {
	Address string   `json:"address"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
}

type EligibilityResponse struct {
	Address  string `json:"address"`
	Amount   string `json:"amount"`
	Eligible bool   `json:"eligible"`
}

type DistributorResponse struct {
	TokenAddress  string `json:"token_address"`
	Administrator string `json:"administrator"`
	Root          string `json:"root"`
	Threshold     uint64 `json:"threshold"`
}

type ClaimCountResponse struct {
	Address    string `json:"address"`
	ClaimCount uint64 `json:"claim_count"`
}

type UpdateThresholdRequest struct {
	Threshold uint64 `json:"threshold"`
}

type UpdateRootRequest struct {
	Root string `json:"root"`
}

type WithdrawRequest struct {
	TokenAddress string `json:"token_address"`
}

type WithdrawResponse struct {
	TokenAddress string `json:"token_address"`
	Recipient    string `json:"recipient"`
	Amount       string `json:"amount"`
}
