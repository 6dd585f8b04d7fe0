package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

const consoleRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// StoreProposal pretty-prints a basket proposal to console.
func (c *ConsoleStorage) StoreProposal(_ context.Context, p *arbitrage.BasketProposal) error {
	fmt.Println("\n" + consoleRule)
	fmt.Printf("🎯 BASKET PROPOSAL\n")
	fmt.Println(consoleRule)
	fmt.Printf("ID:       %s\n", p.ID[:8])
	fmt.Printf("Market:   %s\n", p.MarketSlug)
	fmt.Printf("Question: %s\n", p.Question)
	fmt.Printf("Side:     %s\n", p.Side)
	fmt.Printf("Time:     %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(consoleRule)
	fmt.Printf("📊 LEGS\n")
	for _, leg := range p.Legs {
		fmt.Printf("  %-4s %-12s %.4f x %.2f\n", leg.Side, leg.Outcome, leg.Price, leg.Size)
	}
	fmt.Printf("  Sum Ask:  %.4f   Sum Bid:  %.4f\n", p.SumAsk, p.SumBid)
	fmt.Printf("  Margin:   %.4f (%d bps)\n", p.Margin, p.MarginBPS)
	fmt.Println(consoleRule)

	return nil
}

// StoreSnapshot pretty-prints a portfolio view to console.
func (c *ConsoleStorage) StoreSnapshot(_ context.Context, view types.PortfolioView) error {
	fmt.Println("\n" + consoleRule)
	fmt.Printf("💼 PORTFOLIO %s  market %s\n", shortAddr(view.Owner), view.MarketID)
	fmt.Println(consoleRule)
	for _, pos := range view.Positions {
		fmt.Printf("  %-12s qty %.0f @ %.4f  mark %.4f  realized %+.2f  unrealized %+.2f\n",
			pos.Outcome, pos.OpenQty, pos.AvgCost, pos.MarkPrice, pos.Realized, pos.Unrealized)
	}
	fmt.Printf("  TOTAL value $%.2f  realized %+.2f  unrealized %+.2f\n",
		view.TotalValue, view.TotalRealized, view.TotalUnrealized)
	fmt.Println(consoleRule)

	return nil
}

func shortAddr(addr string) string {
	if len(addr) > 10 && strings.HasPrefix(addr, "0x") {
		return addr[:6] + "…" + addr[len(addr)-4:]
	}
	return addr
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
