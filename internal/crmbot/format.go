package crmbot

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ronoray/hungry-times-bot/internal/crmapi"
)

// Formatter renders backend payloads as chat replies with locale-aware
// digit grouping and a configurable currency symbol.
type Formatter struct {
	printer  *message.Printer
	currency string
}

func NewFormatter(locale, currency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("en-IN")
	}
	if strings.TrimSpace(currency) == "" {
		currency = "₹"
	}
	return &Formatter{
		printer:  message.NewPrinter(tag),
		currency: currency,
	}
}

func (f *Formatter) count(n int) string {
	return f.printer.Sprintf("%v", number.Decimal(n))
}

func (f *Formatter) money(amount float64) string {
	return f.printer.Sprintf("%s %v", f.currency, number.Decimal(amount, number.Scale(2)))
}

// delta renders a percent change with direction. Grouping does not
// apply to percentages; one decimal matches the backend dashboards.
func delta(pct float64) string {
	switch {
	case pct > 0:
		return fmt.Sprintf("▲ %.1f%%", pct)
	case pct < 0:
		return fmt.Sprintf("▼ %.1f%%", -pct)
	default:
		return "0.0%"
	}
}

// redemptionRate is redeemed/sent as a percentage with one decimal,
// "0.0" when nothing was sent.
func redemptionRate(sent, redeemed int) string {
	if sent <= 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(redeemed)/float64(sent)*100)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unknown)"
	}
	return s
}

func (f *Formatter) WebsiteHealth(h crmapi.WebsiteHealth) string {
	status := orUnknown(h.Status)
	mark := "⚠️"
	if h.Status == "ok" || h.Status == "healthy" {
		mark = "✅"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Website:* %s %s\n", mark, status)
	fmt.Fprintf(&b, "*Orders today:* %s online + %s POS\n", f.count(h.OnlineOrders), f.count(h.PosOrders))
	fmt.Fprintf(&b, "*Revenue today:* %s", f.money(h.Revenue))
	return b.String()
}

func (f *Formatter) Analytics(a crmapi.Analytics, days int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Analytics, last %d days*\n\n", days)
	fmt.Fprintf(&b, "*Orders:* %s (%s online + %s POS)\n",
		f.count(a.OnlineOrders+a.PosOrders), f.count(a.OnlineOrders), f.count(a.PosOrders))
	fmt.Fprintf(&b, "*Revenue:* %s\n", f.money(a.Revenue))
	fmt.Fprintf(&b, "*Avg order value:* %s\n", f.money(a.AvgOrderValue))
	fmt.Fprintf(&b, "*New customers:* %s\n", f.count(a.NewCustomers))
	fmt.Fprintf(&b, "*Offer redemptions:* %s", f.count(a.OfferRedemptions))
	return b.String()
}

func (f *Formatter) KPI(k crmapi.KPI, days int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*KPI dashboard, last %d days*\n\n", days)
	fmt.Fprintf(&b, "*Revenue*\n")
	fmt.Fprintf(&b, "  total: %s (%s)\n", f.money(k.Revenue.Total), delta(k.Revenue.Delta))
	fmt.Fprintf(&b, "  avg order: %s\n\n", f.money(k.Revenue.AvgOrderValue))
	fmt.Fprintf(&b, "*Customers*\n")
	fmt.Fprintf(&b, "  new: %s (%s)\n", f.count(k.Customers.New), delta(k.Customers.Delta))
	fmt.Fprintf(&b, "  returning: %s\n\n", f.count(k.Customers.Returning))
	fmt.Fprintf(&b, "*Marketing*\n")
	fmt.Fprintf(&b, "  messages sent: %s (%s)\n", f.count(k.Marketing.MessagesSent), delta(k.Marketing.Delta))
	fmt.Fprintf(&b, "  redemptions: %s", f.count(k.Marketing.Redemptions))
	return b.String()
}

func (f *Formatter) Segments(segments []crmapi.Segment) string {
	if len(segments) == 0 {
		return "no segments found"
	}
	var b strings.Builder
	b.WriteString("*Customer segments*\n")
	for _, s := range segments {
		fmt.Fprintf(&b, "\n%s: %s", orUnknown(s.Name), f.count(s.Customers))
	}
	return b.String()
}

func (f *Formatter) Campaign(c crmapi.Campaign) string {
	if c.Messages == 0 {
		return "no campaign created"
	}
	return fmt.Sprintf("✅ campaign %s created: %s messages queued",
		orUnknown(c.CampaignID), f.count(c.Messages))
}

func (f *Formatter) PendingMessage(m crmapi.PendingMessage) string {
	var b strings.Builder
	b.WriteString("*Next pending message*\n\n")
	fmt.Fprintf(&b, "*Customer:* %s\n", orUnknown(m.CustomerName))
	fmt.Fprintf(&b, "*Phone:* %s\n", orUnknown(m.Phone))
	fmt.Fprintf(&b, "*Offer:* %s\n", orUnknown(m.OfferCode))
	fmt.Fprintf(&b, "*Message:* %s", orUnknown(m.Message))
	return b.String()
}

func (f *Formatter) CRMStats(s crmapi.CRMStats) string {
	var b strings.Builder
	b.WriteString("*CRM outreach*\n\n")
	fmt.Fprintf(&b, "total: %s\n", f.count(s.Total))
	fmt.Fprintf(&b, "pending: %s\n", f.count(s.Pending))
	fmt.Fprintf(&b, "sent: %s\n", f.count(s.Sent))
	fmt.Fprintf(&b, "redeemed: %s\n", f.count(s.Redeemed))
	fmt.Fprintf(&b, "no whatsapp: %s\n", f.count(s.NoWhatsApp))
	fmt.Fprintf(&b, "skipped: %s\n\n", f.count(s.Skipped))
	fmt.Fprintf(&b, "*Redemption rate:* %s%%", redemptionRate(s.Sent, s.Redeemed))
	return b.String()
}
