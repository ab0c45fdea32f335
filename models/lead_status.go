package models

import (
	"strings"
	"time"
)

// GlobalLeadStatuses is the catalog offered to clients; storage accepts any status string
var GlobalLeadStatuses = []string{
	"Not Contacted/New Lead",
	"Hot",
	"Warm",
	"Cold",
	"Frozen (next drive)",
	"University Form filled",
	"Registration Fee Paid",
	"Reg Fee Paid & Documents Uploaded",
	"Documents Rejected",
	"Documents Approved",
	"Semester fee paid",
	"Yearly fee paid",
	"Full fee paid - Lumpsum",
	"Full fee paid - Loan",
	"Closed - Won",
	"Closed - Lost",
	"Needs Follow Up",
	"Reborn",
	"Admission Fee Paid",
	"Ask to Call back",
	"Not interested",
	"Ask for Information",
	"Invalid No/Wrong No",
	"Phone Switched Off/Ringing/No Response",
	"Dead On Arrival",
	"DND",
}

// statusScores maps a lead status to its base score percentage
var statusScores = map[string]int{
	"New":         10,
	"Assigned":    20,
	"In Process":  40,
	"In Progress": 40,
	"Interested":  60,
	"Qualified":   70,
	"Converted":   100,
	"Recycled":    15,
	"Dead":        0,
	"Invalid":     0,
	"Hot":         70,
	"Warm":        50,
	"Cold":        30,
	"Frozen":      20,
	"Frozen (next drive)":                    20,
	"University Form filled":                 80,
	"Registration Fee Paid":                  85,
	"Reg Fee Paid & Documents Uploaded":      90,
	"Documents Approved":                     95,
	"Documents Rejected":                     40,
	"Admission Fee Paid":                     80,
	"Semester fee paid":                      90,
	"Yearly fee paid":                        95,
	"Full fee paid - Lumpsum":                100,
	"Full fee paid - Loan":                   100,
	"Closed - Won":                           100,
	"Closed - Lost":                          0,
	"Needs Follow Up":                        40,
	"Reborn":                                 20,
	"Ask to Call back":                       25,
	"Not interested":                         0,
	"Ask for Information":                    15,
	"Invalid No/Wrong No":                    0,
	"Phone Switched Off/Ringing/No Response": 10,
	"Dead On Arrival":                        0,
	"DND":                                    0,
}

// StatusScore returns the score for a status; unknown statuses score zero
func StatusScore(status string) int {
	return statusScores[strings.TrimSpace(status)]
}

// CombineScore merges the status-derived score with an optional action score and the stored
// score. The result never drops below the stored value.
func CombineScore(status string, actionScore *int, stored int) int {
	score := StatusScore(status)
	if actionScore != nil && *actionScore > score {
		score = *actionScore
	}
	if stored > score {
		score = stored
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// FollowUpWindowDays maps a status to the maximum number of days ahead a follow-up may be
// scheduled. Statuses absent from the map are unbounded.
var FollowUpWindowDays = map[string]int{
	"Hot":                               3,
	"Warm":                              15,
	"Cold":                              60,
	"Frozen (next drive)":               180,
	"University Form filled":            3,
	"Registration Fee Paid":             7,
	"Reg Fee Paid & Documents Uploaded": 7,
	"Documents Approved":                3,
	"Documents Rejected":                7,
	"Ask to Call back":                  3,
}

// MaxFollowUpDate returns the latest allowed follow-up time for the given status, or nil
// when the status carries no window
func MaxFollowUpDate(status string, now time.Time) *time.Time {
	days, ok := FollowUpWindowDays[strings.TrimSpace(status)]
	if !ok || days <= 0 {
		return nil
	}
	max := now.Add(time.Duration(days) * 24 * time.Hour)
	return &max
}

// closedLeadStatuses are excluded when counting a counselor's active load
var closedLeadStatuses = map[string]struct{}{
	"Closed - Won":            {},
	"Closed - Lost":           {},
	"Not interested":          {},
	"Dead On Arrival":         {},
	"DND":                     {},
	"Invalid No/Wrong No":     {},
	"Documents Rejected":      {},
	"Full fee paid - Lumpsum": {},
	"Full fee paid - Loan":    {},
	"Yearly fee paid":         {},
	"Semester fee paid":       {},
}

// IsClosedStatus reports whether a status takes a lead out of the active-load count
func IsClosedStatus(status string) bool {
	_, ok := closedLeadStatuses[status]
	return ok
}

// ClosedLeadStatuses returns the closed-status set as a slice for SQL NOT IN clauses
func ClosedLeadStatuses() []string {
	out := make([]string, 0, len(closedLeadStatuses))
	for s := range closedLeadStatuses {
		out = append(out, s)
	}
	return out
}
