package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string
	EventTopic   string

	TokenAddress     common.Address
	Administrator    common.Address
	InitialRoot      common.Hash
	InitialThreshold uint64

	// Seed balance for the in-memory vault when no Postgres DSN is set.
	VaultBalance *big.Int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "masa-token-lock"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("EVENT_TOPIC")
	if topic == "" {
		topic = "distribution.events"
	}

	token, err := envAddress("DISTRIBUTOR_TOKEN_ADDRESS")
	if err != nil {
		return Config{}, err
	}
	admin, err := envAddress("DISTRIBUTOR_ADMIN_ADDRESS")
	if err != nil {
		return Config{}, err
	}
	root, err := envHash("DISTRIBUTOR_MERKLE_ROOT")
	if err != nil {
		return Config{}, err
	}
	threshold, err := envUint("DISTRIBUTOR_CLAIM_THRESHOLD", 1)
	if err != nil {
		return Config{}, err
	}
	balance, err := envBigInt("DISTRIBUTOR_VAULT_BALANCE")
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,
		EventTopic:   topic,

		TokenAddress:     token,
		Administrator:    admin,
		InitialRoot:      root,
		InitialThreshold: threshold,
		VaultBalance:     balance,
	}, nil
}

func envAddress(name string) (common.Address, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s is not a hex address: %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func envHash(name string) (common.Hash, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return common.Hash{}, nil
	}
	trimmed := strings.TrimPrefix(raw, "0x")
	if len(trimmed) != common.HashLength*2 {
		return common.Hash{}, fmt.Errorf("%s is not a 32-byte hex hash: %q", name, raw)
	}
	return common.HexToHash(raw), nil
}

func envUint(name string, fallback uint64) (uint64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not an unsigned integer: %q", name, raw)
	}
	return value, nil
}

func envBigInt(name string) (*big.Int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("%s is not a non-negative decimal integer: %q", name, raw)
	}
	return value, nil
}
