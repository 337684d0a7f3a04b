// Package ingest loads travel-rule XML reports into the record store.
package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"riskScope/internal/apperr"
	"riskScope/internal/model"
)

const Source = "travel_rule_xml"

// Report is the content of one parsed XML document.
type Report struct {
	VASPID       string
	Customers    []model.Customer
	Wallets      []model.Wallet
	Transactions []model.Transaction
	Registry     []model.RiskRegistryEntry
	// Skipped lists the records dropped for missing required fields.
	Skipped []string
}

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) text(name, def string) string {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return strings.TrimSpace(n.Children[i].Content)
		}
	}
	return def
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// walk visits every element below n in document order with its nearest
// enclosing Customer element, if any.
func (n *node) walk(owner *node, fn func(el, owner *node)) {
	for i := range n.Children {
		child := &n.Children[i]
		fn(child, owner)
		next := owner
		if child.XMLName.Local == "Customer" {
			next = child
		}
		child.walk(next, fn)
	}
}

// Parse reads a travel-rule report. Customer, Wallet, Transaction and RiskEntry
// elements are collected at any depth; the first VASP element's id attribute tags
// every customer.
func Parse(r io.Reader, now time.Time) (Report, error) {
	var root node
	dec := xml.NewDecoder(r)
	dec.Strict = true
	if err := dec.Decode(&root); err != nil {
		return Report{}, apperr.Validation(fmt.Sprintf("invalid xml: %v", err))
	}

	var (
		rep       = Report{VASPID: "unknown"}
		customers []*node
		wallets   [][2]*node
		txs       []*node
		registry  []*node
		sawVASP   bool
	)
	visit := func(el, owner *node) {
		switch el.XMLName.Local {
		case "VASP":
			if !sawVASP {
				sawVASP = true
				if id := el.attr("id"); id != "" {
					rep.VASPID = id
				}
			}
		case "Customer":
			customers = append(customers, el)
		case "Wallet":
			wallets = append(wallets, [2]*node{el, owner})
		case "Transaction":
			txs = append(txs, el)
		case "RiskEntry":
			registry = append(registry, el)
		}
	}
	visit(&root, nil)
	owner := (*node)(nil)
	if root.XMLName.Local == "Customer" {
		owner = &root
	}
	root.walk(owner, visit)

	for _, el := range customers {
		if c, ok := parseCustomer(el, rep.VASPID, now); ok {
			rep.Customers = append(rep.Customers, c)
		} else {
			rep.Skipped = append(rep.Skipped, "customer "+c.ID+": no SA id")
		}
	}
	for _, pair := range wallets {
		if w, ok := parseWallet(pair[0], pair[1], now); ok {
			rep.Wallets = append(rep.Wallets, w)
		} else {
			rep.Skipped = append(rep.Skipped, "wallet: missing address or customer id")
		}
	}
	for _, el := range txs {
		tx, reason := parseTransaction(el, now)
		if reason != "" {
			rep.Skipped = append(rep.Skipped, "transaction "+tx.Hash+": "+reason)
			continue
		}
		rep.Transactions = append(rep.Transactions, tx)
	}
	for _, el := range registry {
		if e, ok := parseRiskEntry(el); ok {
			rep.Registry = append(rep.Registry, e)
		} else {
			rep.Skipped = append(rep.Skipped, "risk entry: missing address")
		}
	}
	return rep, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(b []byte, now time.Time) (Report, error) {
	return Parse(bytes.NewReader(b), now)
}

func parseCustomer(el *node, vaspID string, now time.Time) (model.Customer, bool) {
	c := model.Customer{
		ID:        el.text("CustomerID", ""),
		SAID:      el.text("SAIDNumber", ""),
		FirstName: el.text("FirstName", ""),
		LastName:  el.text("LastName", ""),
		Email:     el.text("Email", ""),
		VASPID:    vaspID,
		CreatedAt: now,
		Source:    Source,
	}
	if c.ID == "" {
		c.ID = "cust_" + uuid.NewString()[:8]
	}
	return c, c.SAID != ""
}

func parseWallet(el, owner *node, now time.Time) (model.Wallet, bool) {
	w := model.Wallet{
		Address:    el.text("Address", ""),
		CustomerID: el.text("CustomerID", ""),
		Blockchain: el.text("Blockchain", ""),
		Declared:   true,
		Currency:   strings.ToUpper(el.text("Currency", "")),
		CreatedAt:  now,
		Source:     Source,
	}
	if w.CustomerID == "" && owner != nil {
		w.CustomerID = owner.text("CustomerID", "")
	}
	if w.Blockchain == "" {
		w.Blockchain = "ethereum"
	}
	if d := el.text("Declared", ""); d != "" {
		w.Declared = strings.EqualFold(d, "true")
	}
	if w.Address == "" || w.CustomerID == "" {
		return w, false
	}
	w.ID = WalletID(w.Address)
	return w, true
}

func parseTransaction(el *node, now time.Time) (model.Transaction, string) {
	tx := model.Transaction{
		Hash:        el.text("Hash", ""),
		FromAddress: el.text("FromAddress", ""),
		ToAddress:   el.text("ToAddress", ""),
		Currency:    el.text("Currency", "ETH"),
		Blockchain:  el.text("Blockchain", "ethereum"),
		Source:      Source,
	}
	if tx.Hash == "" || tx.FromAddress == "" || tx.ToAddress == "" {
		return tx, "missing required fields"
	}

	amount, err := decimal.NewFromString(el.text("Amount", "0"))
	if err != nil {
		return tx, "invalid amount"
	}
	tx.Amount = amount
	tx.Timestamp = parseTime(el.text("Timestamp", ""), now)
	tx.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tx:"+strings.ToLower(tx.Hash))).String()
	return tx, ""
}

func parseRiskEntry(el *node) (model.RiskRegistryEntry, bool) {
	e := model.RiskRegistryEntry{
		Address:  el.text("Address", el.attr("address")),
		RiskType: el.text("RiskType", el.attr("type")),
	}
	if e.RiskType == "" {
		e.RiskType = "unknown"
	}
	if s := el.text("RiskScore", el.attr("score")); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			e.RiskScore = n
		}
	}
	return e, e.Address != ""
}

// WalletID is the stable record id of an address, so re-importing a report
// updates wallets in place.
func WalletID(address string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("wallet:"+strings.ToLower(strings.TrimSpace(address)))).String()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string, now time.Time) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return now
}
