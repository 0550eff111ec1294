package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AllocationDTO struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type BuildCommitmentRequest struct {
	Allocations []AllocationDTO `json:"allocations"`
}

type RecipientProofDTO struct {
	Address string   `json:"address"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
}

type BuildCommitmentResponse struct {
	Root      string              `json:"root"`
	LeafCount int                 `json:"leaf_count"`
	Proofs    []RecipientProofDTO `json:"proofs"`
}
