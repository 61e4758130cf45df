package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mzhur/crypto_paper_trader/internal/infrastructure/storage"
)

// Dumps the persisted exchange state for inspection.
func main() {
	dbPath := "paper_trader.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Printf("Failed to open %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	state, err := store.Load(context.Background())
	if err != nil {
		fmt.Printf("Failed to load state: %v\n", err)
		os.Exit(1)
	}
	if state == nil {
		fmt.Println("No persisted state yet.")
		return
	}

	fmt.Printf("Balance: total=%.2f available=%.2f in_positions=%.2f\n",
		state.Balance.Total, state.Balance.Available, state.Balance.InPositions)

	fmt.Printf("Positions (%d):\n", len(state.Positions))
	for symbol, p := range state.Positions {
		fmt.Printf("- %s %s qty=%.4f entry=%.2f lev=%dx opened=%s\n",
			symbol, p.Side, p.Quantity, p.EntryPrice, p.Leverage, p.OpenedAt)
	}

	fmt.Printf("Pending orders (%d):\n", len(state.Orders))
	for id, o := range state.Orders {
		fmt.Printf("- %s %s %s %s qty=%.4f price=%.2f stop=%.2f target=%.2f [%s]\n",
			id, o.Symbol, o.Type, o.Side, o.Quantity, o.Price, o.StopPrice, o.TargetPrice, o.Status)
	}

	fmt.Printf("Trades (%d):\n", len(state.TradeHistory))
	for _, tr := range state.TradeHistory {
		fmt.Printf("- %s %s %s qty=%.4f price=%.2f (%s)\n",
			tr.Timestamp, tr.Symbol, tr.Side, tr.Quantity, tr.Price, tr.Type)
	}
}
