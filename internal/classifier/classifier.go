// Package classifier decides the category and confirmation status of an
// inbound SMS reply.
package classifier

import (
	"strings"

	"github.com/popeskul/rentverify/internal/models"
)

var (
	landlordKeywords = []string{"LANDLORD", "OWNER"}
	tenantKeywords   = []string{"TENANT", "RENTER"}

	affirmativeReplies = map[string]struct{}{"YES": {}}
	negativeReplies    = map[string]struct{}{"NO": {}}
)

// Classification is the outcome of classifying one reply.
type Classification struct {
	Category models.Category
	Status   models.ReplyStatus
}

// PaymentState maps a landlord confirmation onto the binary payment status.
// ok is false for pending and tenant replies.
func (c Classification) PaymentState() (state models.PaymentState, ok bool) {
	switch c.Status {
	case models.ReplyAffirmative:
		return models.PaymentPaid, true
	case models.ReplyNegative:
		return models.PaymentNotPaid, true
	default:
		return "", false
	}
}

// Classifier is safe for concurrent use; it holds only its default category.
type Classifier struct {
	defaultCategory models.Category
}

// New returns a Classifier that falls back to def when a reply carries no
// category keyword. An invalid def falls back to tenant.
func New(def models.Category) *Classifier {
	if !def.Valid() {
		def = models.CategoryTenant
	}
	return &Classifier{defaultCategory: def}
}

// DefaultCategory returns the configured fallback category.
func (c *Classifier) DefaultCategory() models.Category {
	return c.defaultCategory
}

// Classify categorizes text. Landlord keywords are checked before tenant
// keywords, so a reply mentioning both is a landlord reply.
func (c *Classifier) Classify(text string) Classification {
	normalized := normalize(text)

	category := c.defaultCategory
	switch {
	case containsAny(normalized, landlordKeywords):
		category = models.CategoryLandlord
	case containsAny(normalized, tenantKeywords):
		category = models.CategoryTenant
	}

	if category != models.CategoryLandlord {
		return Classification{Category: category, Status: models.ReplyNone}
	}
	return Classification{Category: category, Status: statusOf(normalized)}
}

// ReplyStatus reports whether reply is an affirmative, negative or pending
// answer regardless of category. The dashboard counts use it.
func ReplyStatus(reply string) models.ReplyStatus {
	return statusOf(normalize(reply))
}

func statusOf(normalized string) models.ReplyStatus {
	if _, ok := affirmativeReplies[normalized]; ok {
		return models.ReplyAffirmative
	}
	if _, ok := negativeReplies[normalized]; ok {
		return models.ReplyNegative
	}
	return models.ReplyPending
}

func normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
