package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
)

type ReportRequest struct {
	CustomerID       string `json:"customer_id"`
	InvestigatorName string `json:"investigator_name"`
}

type ReportResult struct {
	ReportURL string `json:"report_url"`
	Key       string `json:"report_key"`
	Status    string `json:"status"`
}

// Report renders a plain-text compliance report for a customer and stores it
// under reports/<customer>_<timestamp>.txt.
func (s *Service) Report(ctx context.Context, req ReportRequest) (ReportResult, error) {
	cid := strings.TrimSpace(req.CustomerID)
	if cid == "" {
		return ReportResult{}, apperr.Validation("customer_id required")
	}
	customer, err := s.store.Customer(ctx, cid)
	if err != nil {
		return ReportResult{}, err
	}
	wallets, err := s.store.WalletsByCustomer(ctx, cid)
	if err != nil {
		return ReportResult{}, err
	}

	now := s.now()
	body := RenderReport(customer, wallets, req.InvestigatorName, now)
	key := fmt.Sprintf("reports/%s_%s.txt", cid, now.Format("20060102_150405"))
	url, err := s.blobs.Put(key, []byte(body))
	if err != nil {
		return ReportResult{}, fmt.Errorf("store report: %w", err)
	}
	return ReportResult{ReportURL: url, Key: key, Status: "success"}, nil
}

// RenderReport produces the report text.
func RenderReport(c model.Customer, wallets []model.Wallet, investigator string, at time.Time) string {
	if strings.TrimSpace(investigator) == "" {
		investigator = "Unknown"
	}
	declared := 0
	for _, w := range wallets {
		if w.Declared {
			declared++
		}
	}

	var b strings.Builder
	b.WriteString("CRYPTO INTELLIGENCE REPORT\n")
	fmt.Fprintf(&b, "Generated: %s\n", at.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Investigator: %s\n\n", investigator)

	b.WriteString("CUSTOMER INFORMATION\n")
	fmt.Fprintf(&b, "Name: %s\n", c.Name())
	fmt.Fprintf(&b, "SA ID: %s\n", c.SAID)
	fmt.Fprintf(&b, "Customer ID: %s\n\n", c.ID)

	b.WriteString("WALLET PORTFOLIO\n")
	fmt.Fprintf(&b, "Total Wallets Found: %d\n", len(wallets))
	fmt.Fprintf(&b, "Declared: %d\n", declared)
	fmt.Fprintf(&b, "Undeclared: %d\n\n", len(wallets)-declared)

	b.WriteString("WALLETS:\n")
	for _, w := range wallets {
		fmt.Fprintf(&b, "- %s (%s) - Risk Score: %d", w.Address, w.Blockchain, w.RiskScore)
		if w.CompositeRisk != nil {
			fmt.Fprintf(&b, " - Composite Risk: %d", *w.CompositeRisk)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
