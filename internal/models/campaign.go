package models

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus is the derived lifecycle state of a campaign.
type CampaignStatus string

const (
	StatusActive     CampaignStatus = "active"
	StatusSuccessful CampaignStatus = "successful"
	StatusExpired    CampaignStatus = "expired"
	StatusInactive   CampaignStatus = "inactive"
)

const (
	DefaultCampaignTitle    = "Untitled Campaign"
	DefaultCampaignCategory = "Other"
)

// RawCampaign is a campaign as returned by the crowdfunding contract.
// Amounts are in wei and the deadline is in unix seconds. Any field may be unset.
type RawCampaign struct {
	ID           *big.Int
	Creator      string
	Title        string
	Description  string
	Image        string
	Category     string
	TargetAmount *big.Int
	RaisedAmount *big.Int
	Deadline     *big.Int
	IsActive     bool
	MetadataHash string
}

// CampaignRecord is the canonical campaign view. Amounts are in ether.
type CampaignRecord struct {
	ID           string          `json:"id"`
	Creator      string          `json:"creator"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	RaisedAmount decimal.Decimal `json:"raised_amount"`
	Deadline     time.Time       `json:"deadline"`
	IsActiveFlag bool            `json:"is_active"`
	MetadataRef  string          `json:"metadata_hash,omitempty"`
}

// CampaignState holds the fields derived from a record at a point in time.
type CampaignState struct {
	Status              CampaignStatus `json:"status"`
	IsFullyFunded       bool           `json:"is_fully_funded"`
	IsDeadlinePassed    bool           `json:"is_deadline_passed"`
	IsEffectivelyActive bool           `json:"is_effectively_active"`
	PercentFunded       float64        `json:"percent_funded"`
	DaysLeft            int64          `json:"days_left"`
}

// EnrichedCampaign is a record with the off-chain metadata overlay applied.
// Enriched is false when no metadata was available.
type EnrichedCampaign struct {
	CampaignRecord
	Enriched bool `json:"enriched"`
}

// CampaignView is what the API serves: an enriched record and its state as of the read.
type CampaignView struct {
	EnrichedCampaign
	CampaignState
}

// CampaignList groups a snapshot by status.
type CampaignList struct {
	All        []CampaignView `json:"all"`
	Active     []CampaignView `json:"active"`
	Successful []CampaignView `json:"successful"`
	Expired    []CampaignView `json:"expired"`
	Inactive   []CampaignView `json:"inactive"`
}

// CampaignStats is the admin summary of a snapshot.
type CampaignStats struct {
	Total       int             `json:"total"`
	Active      int             `json:"active"`
	Successful  int             `json:"successful"`
	Expired     int             `json:"expired"`
	Inactive    int             `json:"inactive"`
	TotalRaised decimal.Decimal `json:"total_raised"`
	TotalTarget decimal.Decimal `json:"total_target"`
	Creators    int             `json:"creators"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// CampaignMetadata is the JSON document pinned to IPFS for a campaign.
type CampaignMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"image,omitempty"`
	Target      string `json:"target,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	UploadedAt  string `json:"uploadedAt,omitempty"`
	Version     string `json:"version,omitempty"`
}
