package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"riskScope/internal/apperr"
)

type GraphNode struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	RiskScore int              `json:"risk_score"`
	Balance   *decimal.Decimal `json:"balance,omitempty"`
	Type      string           `json:"type,omitempty"`
}

type GraphEdge struct {
	Source       string          `json:"source"`
	Target       string          `json:"target"`
	Transactions int             `json:"transactions"`
	Volume       decimal.Decimal `json:"volume"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Graph builds the outgoing transfer graph of a wallet from ingested
// transactions. Transfers to one counterparty are merged into a single edge;
// counterparties listed in the risk registry are labelled with their risk type.
func (s *Service) Graph(ctx context.Context, address string) (Graph, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Graph{}, apperr.Validation("wallet_address required")
	}
	w, err := s.store.WalletByAddress(ctx, address)
	if err != nil {
		return Graph{}, err
	}
	txs, err := s.store.TransactionsFrom(ctx, w.Address)
	if err != nil {
		return Graph{}, err
	}

	balance := w.Balance
	g := Graph{
		Nodes: []GraphNode{{ID: w.Address, Label: "Primary Wallet", RiskScore: w.EffectiveRisk(), Balance: &balance}},
		Edges: []GraphEdge{},
	}
	edges := map[string]int{}
	for _, tx := range txs {
		target := tx.ToAddress
		if target == "" {
			continue
		}
		if i, ok := edges[strings.ToLower(target)]; ok {
			g.Edges[i].Transactions++
			g.Edges[i].Volume = g.Edges[i].Volume.Add(tx.Amount)
			continue
		}

		node := GraphNode{ID: target, Label: "Connected Wallet"}
		entry, listed, err := s.store.RegistryEntry(ctx, target)
		if err != nil {
			return Graph{}, err
		}
		if listed {
			node.Label = entry.RiskType
			node.RiskScore = entry.RiskScore
			node.Type = "risk"
		}
		if !strings.EqualFold(target, w.Address) {
			g.Nodes = append(g.Nodes, node)
		}

		edges[strings.ToLower(target)] = len(g.Edges)
		g.Edges = append(g.Edges, GraphEdge{Source: w.Address, Target: target, Transactions: 1, Volume: tx.Amount})
	}
	return g, nil
}
