package reports

import (
	"sort"
	"time"
)

// OpenItem is one partner-attributed residual amount awaiting settlement,
// dated by the journal entry that produced it.
type OpenItem struct {
	PartnerID   int64
	PartnerName string
	EntryDate   time.Time
	Amount      float64
}

// AgingRow buckets one partner's open amounts by age in days.
type AgingRow struct {
	PartnerID   int64   `json:"partner_id"`
	PartnerName string  `json:"partner_name"`
	Current     float64 `json:"current"`
	Days31to60  float64 `json:"days_31_60"`
	Days61to90  float64 `json:"days_61_90"`
	Over90      float64 `json:"over_90"`
	Total       float64 `json:"total"`
}

// AgingReport is the structured AR or AP aging response.
type AgingReport struct {
	AsOf  time.Time  `json:"as_of"`
	Rows  []AgingRow `json:"rows"`
	Total AgingRow   `json:"total"`
}

// BuildAging buckets open items per partner by days outstanding at asOf.
// Items aged 0-30 days are current; fully settled partners are dropped.
func BuildAging(asOf time.Time, items []OpenItem) AgingReport {
	byPartner := make(map[int64]*AgingRow)
	for _, item := range items {
		row, ok := byPartner[item.PartnerID]
		if !ok {
			row = &AgingRow{PartnerID: item.PartnerID, PartnerName: item.PartnerName}
			byPartner[item.PartnerID] = row
		}
		age := int(asOf.Sub(item.EntryDate).Hours() / 24)
		switch {
		case age <= 30:
			row.Current += item.Amount
		case age <= 60:
			row.Days31to60 += item.Amount
		case age <= 90:
			row.Days61to90 += item.Amount
		default:
			row.Over90 += item.Amount
		}
		row.Total += item.Amount
	}

	report := AgingReport{AsOf: asOf}
	for _, row := range byPartner {
		if row.Total == 0 {
			continue
		}
		report.Rows = append(report.Rows, *row)
		report.Total.Current += row.Current
		report.Total.Days31to60 += row.Days31to60
		report.Total.Days61to90 += row.Days61to90
		report.Total.Over90 += row.Over90
		report.Total.Total += row.Total
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].PartnerName < report.Rows[j].PartnerName
	})
	return report
}
