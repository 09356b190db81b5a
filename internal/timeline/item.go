package timeline

import "time"

// Icon is the closed set of glyphs a timeline item can carry.
type Icon string

const (
	IconCheckmark Icon = "checkmark"
	IconCross     Icon = "cross"
	IconSync      Icon = "sync"
	IconPlus      Icon = "plus"
	IconMinus     Icon = "minus"
	IconNotice    Icon = "notice-outline"
	IconShield    Icon = "shield"
	IconInfo      Icon = "info-outline"
)

// Link points an item at a related record such as a payout or dispute.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Item is one rendered timeline entry.
type Item struct {
	Date     time.Time `json:"date"`
	Icon     Icon      `json:"icon"`
	Headline string    `json:"headline"`
	Body     []string  `json:"body,omitempty"`
	Link     *Link     `json:"link,omitempty"`
}
