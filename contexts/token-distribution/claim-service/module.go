package claimservice

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	httpadapter "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/adapters/http"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/adapters/memory"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application/commands"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application/queries"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
)

// Module is the composition surface for the claim verifier.
// Runtime wiring should consume Handler; Store and Vault are exposed for
// tests and inspection.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Vault   *memory.Vault
}

type Dependencies struct {
	Repository ports.Repository
	Vault      ports.TokenVault
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Outbox     ports.OutboxWriter
	Logger     *slog.Logger
}

// NewModule wires the distributor use cases against explicit ports. All
// command copies share one reentrancy gate.
func NewModule(deps Dependencies) Module {
	commandUseCase := commands.UseCase{
		Repository: deps.Repository,
		Vault:      deps.Vault,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Outbox:     deps.Outbox,
		Gate:       &commands.Gate{},
		Logger:     deps.Logger,
	}
	queryUseCase := queries.UseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Commands: commandUseCase,
			Queries:  queryUseCase,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule wires the claim verifier against in-memory adapters and
// seeds the vault with the distributor's token balance. The configured token
// address and administrator must be non-zero.
func NewInMemoryModule(
	config entities.DistributorConfig,
	vaultBalance *big.Int,
	logger *slog.Logger,
) (Module, error) {
	if config.TokenAddress == (common.Address{}) {
		return Module{}, domainerrors.ErrZeroTokenAddress
	}
	if config.Administrator == (common.Address{}) {
		return Module{}, domainerrors.ErrZeroAdministrator
	}

	store := memory.NewStore(config)
	vault := memory.NewVault()
	vault.Deposit(config.TokenAddress, vaultBalance)

	module := NewModule(Dependencies{
		Repository: store,
		Vault:      vault,
		Clock:      store,
		IDGen:      store,
		Outbox:     store,
		Logger:     logger,
	})
	module.Store = store
	module.Vault = vault
	return module, nil
}
