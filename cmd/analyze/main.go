// cmd/analyze prints performance statistics from the trade journal.
// It reads the SQLite mirror when present, falling back to the JSONL
// journal.
//
// Usage:
//
//	go run ./cmd/analyze -db data/trades.db
//	go run ./cmd/analyze -journal trades.jsonl
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"crypto-agentv1/internal/ledger"
	"crypto-agentv1/internal/model"
	sqlitestore "crypto-agentv1/internal/store/sqlite"
)

func main() {
	dbPath := flag.String("db", "", "path to the SQLite journal mirror")
	journalPath := flag.String("journal", "trades.jsonl", "path to the JSONL trade journal")
	flag.Parse()

	var trades []model.TradeRecord
	var err error

	switch {
	case *dbPath != "":
		var j *sqlitestore.Journal
		j, err = sqlitestore.NewJournal(*dbPath)
		if err == nil {
			defer j.Close()
			trades, err = j.Trades(0)
		}
	default:
		trades, err = ledger.ReadJournal(*journalPath)
	}
	if err != nil {
		log.Fatalf("[analyze] cannot load trades: %v", err)
	}
	if len(trades) == 0 {
		fmt.Println("no trades recorded")
		os.Exit(0)
	}

	s := ledger.Summarize(trades)

	fmt.Println("============================================================")
	fmt.Println("PERFORMANCE SUMMARY")
	fmt.Printf("Trades:        %d buys, %d sells\n", s.Buys, s.Sells)
	if s.Sells > 0 {
		fmt.Printf("Win rate:      %.1f%% (%d/%d)\n", s.WinRate, s.Wins, s.Sells)
		fmt.Printf("Total P&L:     %.2f\n", s.TotalPnL)
		fmt.Printf("Avg P&L/trade: %.2f\n", s.AvgPnL)
		fmt.Printf("Best trade:    %.2f\n", s.BestPnL)
		fmt.Printf("Worst trade:   %.2f\n", s.WorstPnL)
		fmt.Printf("Avg hold:      %.1f hours\n", s.AvgHoldHr)
	}
	last := trades[len(trades)-1]
	fmt.Printf("Final balance: %.2f quote / %.8f base\n", last.BalanceQuote, last.BalanceBase)
	fmt.Println("============================================================")
}
