package ledger

import "crypto-agentv1/internal/model"

// Summary aggregates performance statistics over a set of trades.
type Summary struct {
	Buys      int
	Sells     int
	Wins      int
	WinRate   float64 // percent of sells with positive P&L
	TotalPnL  float64
	AvgPnL    float64 // per sell
	BestPnL   float64
	WorstPnL  float64
	AvgHoldHr float64
}

// Summarize computes performance statistics from journal records.
func Summarize(trades []model.TradeRecord) Summary {
	var s Summary
	var holdSum float64
	for _, tr := range trades {
		switch tr.Action {
		case model.ActionBuy:
			s.Buys++
		case model.ActionSell:
			s.Sells++
			s.TotalPnL += tr.PnL
			holdSum += tr.HoldHours
			if tr.PnL > 0 {
				s.Wins++
			}
			if s.Sells == 1 || tr.PnL > s.BestPnL {
				s.BestPnL = tr.PnL
			}
			if s.Sells == 1 || tr.PnL < s.WorstPnL {
				s.WorstPnL = tr.PnL
			}
		}
	}
	if s.Sells > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Sells) * 100
		s.AvgPnL = s.TotalPnL / float64(s.Sells)
		s.AvgHoldHr = holdSum / float64(s.Sells)
	}
	return s
}
