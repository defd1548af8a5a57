package recon

import (
	"fmt"
	"math"

	"github.com/dvloznov/statement-recon/internal/domain"
)

// DefaultLargeThreshold is the absolute amount above which a record is flagged as large.
const DefaultLargeThreshold = 1000.0

// AlertKind buckets an alert.
type AlertKind string

const (
	AlertMissing   AlertKind = "missing"
	AlertDuplicate AlertKind = "duplicate"
	AlertLarge     AlertKind = "large"
)

// Alert is a user-facing notice about one reconciled record.
type Alert struct {
	Kind    AlertKind                   `json:"kind"`
	Message string                      `json:"message"`
	Record  domain.CanonicalTransaction `json:"record"`
}

// ClassifyAlerts turns match results into alerts. Status alerts come first in
// result order, followed by large-amount alerts, so a single record can appear
// twice. A threshold of zero or less falls back to DefaultLargeThreshold.
func ClassifyAlerts(results []domain.MatchResult, threshold float64) []Alert {
	if threshold <= 0 {
		threshold = DefaultLargeThreshold
	}

	var alerts []Alert
	for _, r := range results {
		switch r.Status {
		case domain.StatusMissing:
			alerts = append(alerts, newAlert(AlertMissing, "Missing entry", r.CanonicalTransaction))
		case domain.StatusDuplicate:
			alerts = append(alerts, newAlert(AlertDuplicate, "Duplicate entry", r.CanonicalTransaction))
		}
	}
	for _, r := range results {
		if math.Abs(r.Amount) > threshold {
			alerts = append(alerts, newAlert(AlertLarge, "Large entry", r.CanonicalTransaction))
		}
	}
	return alerts
}

// CountAlerts tallies alerts per kind.
func CountAlerts(alerts []Alert) map[AlertKind]int {
	counts := map[AlertKind]int{AlertMissing: 0, AlertDuplicate: 0, AlertLarge: 0}
	for _, a := range alerts {
		counts[a.Kind]++
	}
	return counts
}

func newAlert(kind AlertKind, label string, tx domain.CanonicalTransaction) Alert {
	return Alert{
		Kind:    kind,
		Message: fmt.Sprintf("%s: %s (%s) on %s", label, tx.Description, formatAmount(tx.Amount), tx.Date),
		Record:  tx,
	}
}
