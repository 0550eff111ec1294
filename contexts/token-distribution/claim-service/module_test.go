package claimservice_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	claimservice "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	httptransport "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/transport/http"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/shared/merkle"
)

var (
	tokenAddress  = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	administrator = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type allocation struct {
	address common.Address
	amount  *big.Int
}

// buildDistribution constructs a commitment over the fixed allocation list
// and returns a module seeded with it, plus each recipient's proof.
func buildDistribution(t *testing.T, threshold uint64, vaultBalance int64) (claimservice.Module, map[common.Address][]common.Hash) {
	t.Helper()

	allocations := []allocation{
		{address: alice, amount: big.NewInt(100)},
		{address: bob, amount: big.NewInt(50)},
		{address: carol, amount: big.NewInt(25)},
	}

	leaves := make([]common.Hash, len(allocations))
	for i, item := range allocations {
		leaves[i] = merkle.LeafHash(item.address, item.amount)
	}
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}

	proofs := make(map[common.Address][]common.Hash, len(allocations))
	for i, item := range allocations {
		proof, err := tree.Proof(i)
		if err != nil {
			t.Fatalf("proof for %s: %v", item.address.Hex(), err)
		}
		proofs[item.address] = proof
	}

	module, err := claimservice.NewInMemoryModule(entities.DistributorConfig{
		TokenAddress:  tokenAddress,
		Administrator: administrator,
		Root:          tree.Root(),
		Threshold:     threshold,
	}, big.NewInt(vaultBalance), nil)
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	return module, proofs
}

func claimRequest(amount *big.Int, proof []common.Hash) httptransport.ClaimRequest {
	encoded := make([]string, 0, len(proof))
	for _, sibling := range proof {
		encoded = append(encoded, sibling.Hex())
	}
	return httptransport.ClaimRequest{
		Amount: amount.String(),
		Proof:  encoded,
	}
}

func TestClaimTransfersAllocationOnce(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	resp, err := module.Handler.ClaimHandler(
		context.Background(),
		alice.Hex(),
		claimRequest(big.NewInt(100), proofs[alice]),
	)
	if err != nil {
		t.Fatalf("claim should succeed: %v", err)
	}
	if resp.ClaimCount != 1 {
		t.Fatalf("expected claim count 1, got %d", resp.ClaimCount)
	}
	if resp.Amount != "100" {
		t.Fatalf("expected amount 100, got %s", resp.Amount)
	}
	if credit := module.Vault.CreditOf(tokenAddress, alice); credit.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected vault credit 100, got %s", credit)
	}

	_, err = module.Handler.ClaimHandler(
		context.Background(),
		alice.Hex(),
		claimRequest(big.NewInt(100), proofs[alice]),
	)
	if !errors.Is(err, domainerrors.ErrThresholdExceeded) {
		t.Fatalf("expected threshold exceeded on second claim, got %v", err)
	}
}

func TestClaimRejectsForeignProof(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	_, err := module.Handler.ClaimHandler(
		context.Background(),
		alice.Hex(),
		claimRequest(big.NewInt(50), proofs[bob]),
	)
	if !errors.Is(err, domainerrors.ErrInvalidProof) {
		t.Fatalf("expected invalid proof, got %v", err)
	}
	if count, _ := module.Store.GetClaimCount(context.Background(), alice); count != 0 {
		t.Fatalf("rejected claim must not advance the counter, got %d", count)
	}
}

func TestClaimRejectsWrongAmount(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	_, err := module.Handler.ClaimHandler(
		context.Background(),
		alice.Hex(),
		claimRequest(big.NewInt(101), proofs[alice]),
	)
	if !errors.Is(err, domainerrors.ErrInvalidProof) {
		t.Fatalf("expected invalid proof for tampered amount, got %v", err)
	}
}

func TestThresholdRaiseOpensSecondPhase(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	if _, err := module.Handler.ClaimHandler(
		context.Background(),
		bob.Hex(),
		claimRequest(big.NewInt(50), proofs[bob]),
	); err != nil {
		t.Fatalf("first claim should succeed: %v", err)
	}

	_, err := module.Handler.ClaimHandler(
		context.Background(),
		bob.Hex(),
		claimRequest(big.NewInt(50), proofs[bob]),
	)
	if !errors.Is(err, domainerrors.ErrThresholdExceeded) {
		t.Fatalf("expected threshold exceeded before raise, got %v", err)
	}

	if err := module.Handler.UpdateThresholdHandler(
		context.Background(),
		administrator.Hex(),
		httptransport.UpdateThresholdRequest{Threshold: 2},
	); err != nil {
		t.Fatalf("threshold update should succeed: %v", err)
	}

	resp, err := module.Handler.ClaimHandler(
		context.Background(),
		bob.Hex(),
		claimRequest(big.NewInt(50), proofs[bob]),
	)
	if err != nil {
		t.Fatalf("claim in second phase should succeed: %v", err)
	}
	if resp.ClaimCount != 2 {
		t.Fatalf("expected claim count 2, got %d", resp.ClaimCount)
	}
	if credit := module.Vault.CreditOf(tokenAddress, bob); credit.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected cumulative credit 100, got %s", credit)
	}
}

func TestAdminOperationsRejectNonAdministrator(t *testing.T) {
	module, _ := buildDistribution(t, 1, 1000)

	err := module.Handler.UpdateThresholdHandler(
		context.Background(),
		alice.Hex(),
		httptransport.UpdateThresholdRequest{Threshold: 5},
	)
	if !errors.Is(err, domainerrors.ErrNotAdministrator) {
		t.Fatalf("expected not administrator on threshold update, got %v", err)
	}

	err = module.Handler.UpdateRootHandler(
		context.Background(),
		alice.Hex(),
		httptransport.UpdateRootRequest{Root: common.Hash{0x01}.Hex()},
	)
	if !errors.Is(err, domainerrors.ErrNotAdministrator) {
		t.Fatalf("expected not administrator on root update, got %v", err)
	}

	_, err = module.Handler.WithdrawHandler(
		context.Background(),
		alice.Hex(),
		httptransport.WithdrawRequest{TokenAddress: tokenAddress.Hex()},
	)
	if !errors.Is(err, domainerrors.ErrNotAdministrator) {
		t.Fatalf("expected not administrator on withdraw, got %v", err)
	}
}

func TestRootUpdatePreservesClaimCounters(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	if _, err := module.Handler.ClaimHandler(
		context.Background(),
		carol.Hex(),
		claimRequest(big.NewInt(25), proofs[carol]),
	); err != nil {
		t.Fatalf("claim should succeed: %v", err)
	}

	// A fresh distribution for the next phase: same recipient, new amount.
	leaf := merkle.LeafHash(carol, big.NewInt(40))
	tree, err := merkle.NewTree([]common.Hash{leaf})
	if err != nil {
		t.Fatalf("build replacement tree: %v", err)
	}
	if err := module.Handler.UpdateRootHandler(
		context.Background(),
		administrator.Hex(),
		httptransport.UpdateRootRequest{Root: tree.Root().Hex()},
	); err != nil {
		t.Fatalf("root update should succeed: %v", err)
	}

	// Counter still at the threshold, so the new root alone does not reopen
	// claiming.
	_, err = module.Handler.ClaimHandler(
		context.Background(),
		carol.Hex(),
		claimRequest(big.NewInt(40), nil),
	)
	if !errors.Is(err, domainerrors.ErrThresholdExceeded) {
		t.Fatalf("expected threshold exceeded after root swap, got %v", err)
	}

	if err := module.Handler.UpdateThresholdHandler(
		context.Background(),
		administrator.Hex(),
		httptransport.UpdateThresholdRequest{Threshold: 2},
	); err != nil {
		t.Fatalf("threshold update should succeed: %v", err)
	}
	if _, err := module.Handler.ClaimHandler(
		context.Background(),
		carol.Hex(),
		claimRequest(big.NewInt(40), nil),
	); err != nil {
		t.Fatalf("claim under new root should succeed: %v", err)
	}
}

func TestWithdrawDrainsVaultToAdministrator(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	if _, err := module.Handler.ClaimHandler(
		context.Background(),
		alice.Hex(),
		claimRequest(big.NewInt(100), proofs[alice]),
	); err != nil {
		t.Fatalf("claim should succeed: %v", err)
	}

	resp, err := module.Handler.WithdrawHandler(
		context.Background(),
		administrator.Hex(),
		httptransport.WithdrawRequest{TokenAddress: tokenAddress.Hex()},
	)
	if err != nil {
		t.Fatalf("withdraw should succeed: %v", err)
	}
	if resp.Amount != "900" {
		t.Fatalf("expected remaining balance 900, got %s", resp.Amount)
	}
	if resp.Recipient != administrator.Hex() {
		t.Fatalf("expected recipient %s, got %s", administrator.Hex(), resp.Recipient)
	}

	_, err = module.Handler.WithdrawHandler(
		context.Background(),
		administrator.Hex(),
		httptransport.WithdrawRequest{TokenAddress: tokenAddress.Hex()},
	)
	if !errors.Is(err, domainerrors.ErrNothingToWithdraw) {
		t.Fatalf("expected nothing to withdraw on drained vault, got %v", err)
	}
}

func TestEligibilityCheckDoesNotMutate(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	for i := 0; i < 3; i++ {
		resp, err := module.Handler.CheckEligibilityHandler(context.Background(), httptransport.EligibilityRequest{
			Address: alice.Hex(),
			Amount:  "100",
			Proof:   claimRequest(big.NewInt(100), proofs[alice]).Proof,
		})
		if err != nil {
			t.Fatalf("eligibility check should succeed: %v", err)
		}
		if !resp.Eligible {
			t.Fatalf("expected eligible on attempt %d", i+1)
		}
	}
	if count, _ := module.Store.GetClaimCount(context.Background(), alice); count != 0 {
		t.Fatalf("eligibility checks must not advance the counter, got %d", count)
	}

	resp, err := module.Handler.CheckEligibilityHandler(context.Background(), httptransport.EligibilityRequest{
		Address: alice.Hex(),
		Amount:  "999",
		Proof:   claimRequest(big.NewInt(100), proofs[alice]).Proof,
	})
	if err != nil {
		t.Fatalf("mismatched eligibility check should not error: %v", err)
	}
	if resp.Eligible {
		t.Fatalf("expected not eligible for mismatched amount")
	}
}

func TestZeroAmountClaimRejected(t *testing.T) {
	module, proofs := buildDistribution(t, 1, 1000)

	_, err := module.Handler.ClaimHandler(context.Background(), alice.Hex(), httptransport.ClaimRequest{
		Amount: "0",
		Proof:  claimRequest(big.NewInt(100), proofs[alice]).Proof,
	})
	if !errors.Is(err, domainerrors.ErrZeroAmount) {
		t.Fatalf("expected zero amount rejection, got %v", err)
	}
}

func TestModuleRejectsZeroAddressConfig(t *testing.T) {
	_, err := claimservice.NewInMemoryModule(entities.DistributorConfig{
		Administrator: administrator,
		Threshold:     1,
	}, big.NewInt(0), nil)
	if !errors.Is(err, domainerrors.ErrZeroTokenAddress) {
		t.Fatalf("expected zero token address rejection, got %v", err)
	}

	_, err = claimservice.NewInMemoryModule(entities.DistributorConfig{
		TokenAddress: tokenAddress,
		Threshold:    1,
	}, big.NewInt(0), nil)
	if !errors.Is(err, domainerrors.ErrZeroAdministrator) {
		t.Fatalf("expected zero administrator rejection, got %v", err)
	}
}
