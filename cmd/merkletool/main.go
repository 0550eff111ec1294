package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/application"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/domain/entities"
)

// Offline commitment builder.
// Reads an allocation CSV (address,amount per line), prints the Merkle root,
// and optionally writes every recipient's proof as JSON for client handout.
func main() {
	listPath := flag.String("allocations", "", "allocation CSV file, one address,amount pair per line")
	proofFor := flag.String("proof-for", "", "print only this address's proof")
	outPath := flag.String("out", "", "write the full proof set as JSON to this file")
	flag.Parse()

	if *listPath == "" {
		fmt.Fprintln(os.Stderr, "usage: merkletool -allocations allocations.csv [-proof-for 0x...] [-out proofs.json]")
		os.Exit(1)
	}

	recipients, err := readAllocations(*listPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read allocations: %v\n", err)
		os.Exit(1)
	}

	builder := application.Service{Logger: slog.New(slog.NewTextHandler(os.Stderr, nil))}
	commitment, err := builder.Build(context.Background(), recipients)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build commitment: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("root: %s\n", commitment.Root.Hex())
	fmt.Printf("leaves: %d\n", commitment.LeafCount)

	if *proofFor != "" {
		if !common.IsHexAddress(*proofFor) {
			fmt.Fprintf(os.Stderr, "not a hex address: %s\n", *proofFor)
			os.Exit(1)
		}
		proof, ok := commitment.Proofs[common.HexToAddress(*proofFor)]
		if !ok {
			fmt.Fprintf(os.Stderr, "address not in allocation list: %s\n", *proofFor)
			os.Exit(1)
		}
		fmt.Println("proof:")
		for _, sibling := range proof {
			fmt.Printf("  %s\n", sibling.Hex())
		}
	}

	if *outPath != "" {
		if err := writeProofSet(*outPath, recipients, commitment); err != nil {
			fmt.Fprintf(os.Stderr, "write proof set: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("proof set written to %s\n", *outPath)
	}
}

func readAllocations(path string) ([]entities.Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	recipients := make([]entities.Recipient, 0, len(rows))
	for i, row := range rows {
		rawAddress := strings.TrimSpace(row[0])
		if i == 0 && strings.EqualFold(rawAddress, "address") {
			continue
		}
		if !common.IsHexAddress(rawAddress) {
			return nil, fmt.Errorf("line %d: not a hex address: %q", i+1, rawAddress)
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(row[1]), 10)
		if !ok {
			return nil, fmt.Errorf("line %d: not a decimal amount: %q", i+1, row[1])
		}
		recipients = append(recipients, entities.Recipient{
			Address: common.HexToAddress(rawAddress),
			Amount:  amount,
		})
	}
	return recipients, nil
}

type proofSetEntry struct {
	Address string   `json:"address"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
}

type proofSet struct {
	Root      string          `json:"root"`
	LeafCount int             `json:"leaf_count"`
	Proofs    []proofSetEntry `json:"proofs"`
}

func writeProofSet(path string, recipients []entities.Recipient, commitment entities.Commitment) error {
	out := proofSet{
		Root:      commitment.Root.Hex(),
		LeafCount: commitment.LeafCount,
		Proofs:    make([]proofSetEntry, 0, len(recipients)),
	}
	for _, recipient := range recipients {
		siblings := commitment.Proofs[recipient.Address]
		encoded := make([]string, 0, len(siblings))
		for _, sibling := range siblings {
			encoded = append(encoded, sibling.Hex())
		}
		out.Proofs = append(out.Proofs, proofSetEntry{
			Address: recipient.Address.Hex(),
			Amount:  recipient.Amount.String(),
			Proof:   encoded,
		})
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}
