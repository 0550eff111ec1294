package queries_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/adapters/memory"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application/queries"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/shared/merkle"
)

var (
	queryToken = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	queryAdmin = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	recipient  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func fixture(t *testing.T, threshold uint64, amount *big.Int) (queries.UseCase, *memory.Store, []common.Hash) {
	t.Helper()
	tree, err := merkle.NewTree([]common.Hash{
		merkle.LeafHash(recipient, amount),
		merkle.LeafHash(queryAdmin, big.NewInt(1)),
	})
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	proof, err := tree.Proof(0)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}

	store := memory.NewStore(entities.DistributorConfig{
		TokenAddress:  queryToken,
		Administrator: queryAdmin,
		Root:          tree.Root(),
		Threshold:     threshold,
	})
	return queries.UseCase{Repository: store}, store, proof
}

func TestCheckEligibilityMatchesCommitment(t *testing.T) {
	amount := big.NewInt(100)
	uc, _, proof := fixture(t, 1, amount)

	eligible, err := uc.CheckEligibility(context.Background(), recipient, amount, proof)
	if err != nil {
		t.Fatalf("eligibility check should succeed: %v", err)
	}
	if !eligible {
		t.Fatalf("expected eligible for committed allocation")
	}

	eligible, err = uc.CheckEligibility(context.Background(), recipient, big.NewInt(101), proof)
	if err != nil {
		t.Fatalf("mismatched amount should not error: %v", err)
	}
	if eligible {
		t.Fatalf("expected not eligible for uncommitted amount")
	}
}

func TestCheckEligibilityGuardOrder(t *testing.T) {
	amount := big.NewInt(100)
	uc, store, proof := fixture(t, 1, amount)

	if _, err := store.IncrementClaimCount(context.Background(), recipient, store.Now()); err != nil {
		t.Fatalf("seed claim count: %v", err)
	}

	// Threshold is checked before amount validation, so an exhausted address
	// sees the threshold error even with a zero amount.
	_, err := uc.CheckEligibility(context.Background(), recipient, big.NewInt(0), proof)
	if !errors.Is(err, domainerrors.ErrThresholdExceeded) {
		t.Fatalf("expected threshold exceeded, got %v", err)
	}
}

func TestCheckEligibilityRejectsZeroAmount(t *testing.T) {
	uc, _, proof := fixture(t, 1, big.NewInt(100))

	_, err := uc.CheckEligibility(context.Background(), recipient, big.NewInt(0), proof)
	if !errors.Is(err, domainerrors.ErrZeroAmount) {
		t.Fatalf("expected zero amount rejection, got %v", err)
	}
	_, err = uc.CheckEligibility(context.Background(), recipient, nil, proof)
	if !errors.Is(err, domainerrors.ErrZeroAmount) {
		t.Fatalf("expected zero amount rejection for nil, got %v", err)
	}
}

func TestConfigSnapshotsExposeCurrentState(t *testing.T) {
	uc, store, _ := fixture(t, 3, big.NewInt(100))

	root, err := uc.Root(context.Background())
	if err != nil {
		t.Fatalf("root query: %v", err)
	}
	config, _ := store.GetConfig(context.Background())
	if root != config.Root {
		t.Fatalf("root query disagrees with store")
	}

	threshold, err := uc.Threshold(context.Background())
	if err != nil || threshold != 3 {
		t.Fatalf("expected threshold 3, got %d (%v)", threshold, err)
	}

	token, err := uc.TokenAddress(context.Background())
	if err != nil || token != queryToken {
		t.Fatalf("expected token %s, got %s (%v)", queryToken.Hex(), token.Hex(), err)
	}

	count, err := uc.ClaimCount(context.Background(), recipient)
	if err != nil || count != 0 {
		t.Fatalf("expected zero claim count, got %d (%v)", count, err)
	}
}
