package service

import (
	"github.com/popeskul/rentverify/internal/classifier"
	"github.com/popeskul/rentverify/internal/models"
)

// Counts holds the reply tallies for one partition of records.
type Counts struct {
	Total   int `json:"total"`
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Pending int `json:"pending"`
}

func (c *Counts) add(status models.ReplyStatus) {
	c.Total++
	switch status {
	case models.ReplyAffirmative:
		c.Yes++
	case models.ReplyNegative:
		c.No++
	}
	c.Pending = c.Total - c.Yes - c.No
}

// Summary is the dashboard aggregate, overall and per category.
type Summary struct {
	Overall  Counts `json:"overall"`
	Tenant   Counts `json:"tenant"`
	Landlord Counts `json:"landlord"`
}

// Summarize counts YES, NO and pending replies. Replies are compared
// upper-cased and trimmed; anything but YES or NO is pending. An empty or nil
// input yields all zeros.
func Summarize(records []*models.RentRecord) Summary {
	var s Summary
	for _, r := range records {
		if r == nil {
			continue
		}
		status := classifier.ReplyStatus(r.Reply)
		s.Overall.add(status)

		switch r.Category {
		case models.CategoryTenant:
			s.Tenant.add(status)
		case models.CategoryLandlord:
			s.Landlord.add(status)
		}
	}
	return s
}
