package crmapi

import (
	"context"
	"fmt"
	"net/http"
)

// CRM message state transitions, as backend path segments.
const (
	ActionSent       = "sent"
	ActionNoWhatsApp = "no-whatsapp"
	ActionSkip       = "skip"
)

// Absent fields keep their zero values; handlers render zeros and
// placeholders instead of failing.

type WebsiteHealth struct {
	Status       string  `json:"status"`
	OnlineOrders int     `json:"onlineOrders"`
	PosOrders    int     `json:"posOrders"`
	Revenue      float64 `json:"revenue"`
}

type Analytics struct {
	Days             int     `json:"days"`
	OnlineOrders     int     `json:"onlineOrders"`
	PosOrders        int     `json:"posOrders"`
	Revenue          float64 `json:"revenue"`
	AvgOrderValue    float64 `json:"avgOrderValue"`
	NewCustomers     int     `json:"newCustomers"`
	OfferRedemptions int     `json:"offerRedemptions"`
}

// KPI deltas are percent change against the preceding period of the
// same length.

type KPIRevenue struct {
	Total         float64 `json:"total"`
	AvgOrderValue float64 `json:"avgOrderValue"`
	Delta         float64 `json:"delta"`
}

type KPICustomers struct {
	New       int     `json:"new"`
	Returning int     `json:"returning"`
	Delta     float64 `json:"delta"`
}

type KPIMarketing struct {
	MessagesSent int     `json:"messagesSent"`
	Redemptions  int     `json:"redemptions"`
	Delta        float64 `json:"delta"`
}

type KPI struct {
	Days      int          `json:"days"`
	Revenue   KPIRevenue   `json:"revenue"`
	Customers KPICustomers `json:"customers"`
	Marketing KPIMarketing `json:"marketing"`
}

type Segment struct {
	Name      string `json:"name"`
	Customers int    `json:"customers"`
}

type Campaign struct {
	CampaignID string `json:"campaignId"`
	Messages   int    `json:"messages"`
}

type PendingMessage struct {
	ID           int64  `json:"id"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	OfferCode    string `json:"offerCode"`
	Message      string `json:"message"`
}

type CRMStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Sent       int `json:"sent"`
	Redeemed   int `json:"redeemed"`
	NoWhatsApp int `json:"noWhatsapp"`
	Skipped    int `json:"skipped"`
}

func (c *Client) WebsiteHealth(ctx context.Context) (WebsiteHealth, error) {
	var out WebsiteHealth
	err := c.call(ctx, http.MethodGet, "/api/website-health", nil, &out)
	return out, err
}

func (c *Client) Analytics(ctx context.Context, days int) (Analytics, error) {
	var out Analytics
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/analytics?days=%d", days), nil, &out)
	return out, err
}

func (c *Client) KPI(ctx context.Context, days int) (KPI, error) {
	var out KPI
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/kpi?days=%d", days), nil, &out)
	return out, err
}

func (c *Client) Segments(ctx context.Context) ([]Segment, error) {
	var out struct {
		Segments []Segment `json:"segments"`
	}
	err := c.call(ctx, http.MethodGet, "/api/crm/segments", nil, &out)
	return out.Segments, err
}

func (c *Client) GenerateCampaign(ctx context.Context, segment string, limit int) (Campaign, error) {
	body := struct {
		Segment string `json:"segment"`
		Limit   int    `json:"limit"`
	}{Segment: segment, Limit: limit}

	var out Campaign
	err := c.call(ctx, http.MethodPost, "/api/crm/generate-campaign", body, &out)
	return out, err
}

func (c *Client) PendingMessages(ctx context.Context, limit int) ([]PendingMessage, error) {
	var out struct {
		Messages []PendingMessage `json:"messages"`
	}
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/crm/pending-messages?limit=%d", limit), nil, &out)
	return out.Messages, err
}

func (c *Client) TransitionMessage(ctx context.Context, id int64, action string) error {
	return c.call(ctx, http.MethodPost, fmt.Sprintf("/api/crm/messages/%d/%s", id, action), nil, nil)
}

func (c *Client) CRMStats(ctx context.Context) (CRMStats, error) {
	var out CRMStats
	err := c.call(ctx, http.MethodGet, "/api/crm/stats", nil, &out)
	return out, err
}
