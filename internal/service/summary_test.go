package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/service"
)

func rec(reply string, category models.Category) *models.RentRecord {
	return &models.RentRecord{Reply: reply, Category: category}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		records []*models.RentRecord
		want    service.Summary
	}{
		{
			name: "nil input",
			want: service.Summary{},
		},
		{
			name:    "empty input",
			records: []*models.RentRecord{},
			want:    service.Summary{},
		},
		{
			name: "mixed categories",
			records: []*models.RentRecord{
				rec("YES", models.CategoryLandlord),
				rec(" yes ", models.CategoryLandlord),
				rec("NO", models.CategoryLandlord),
				rec("maybe", models.CategoryLandlord),
				rec("YES", models.CategoryTenant),
				rec("no", models.CategoryTenant),
				rec("paid already", models.CategoryTenant),
			},
			want: service.Summary{
				Overall:  service.Counts{Total: 7, Yes: 3, No: 2, Pending: 2},
				Tenant:   service.Counts{Total: 3, Yes: 1, No: 1, Pending: 1},
				Landlord: service.Counts{Total: 4, Yes: 2, No: 1, Pending: 1},
			},
		},
		{
			name: "near misses are pending",
			records: []*models.RentRecord{
				rec("YES!", models.CategoryTenant),
				rec("NOPE", models.CategoryTenant),
				rec("", models.CategoryTenant),
			},
			want: service.Summary{
				Overall: service.Counts{Total: 3, Pending: 3},
				Tenant:  service.Counts{Total: 3, Pending: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.Summarize(tt.records))
		})
	}
}

func TestSummarize_CountsAlwaysAddUp(t *testing.T) {
	replies := []string{"YES", "NO", "no", "Yes", "later", "", "YES please", "  NO  "}
	categories := []models.Category{models.CategoryTenant, models.CategoryLandlord}

	var records []*models.RentRecord
	for i := 0; i < 50; i++ {
		records = append(records, rec(replies[i%len(replies)], categories[i%len(categories)]))

		s := service.Summarize(records)
		for _, c := range []service.Counts{s.Overall, s.Tenant, s.Landlord} {
			assert.Equal(t, c.Total, c.Yes+c.No+c.Pending)
			assert.GreaterOrEqual(t, c.Pending, 0)
		}
		assert.Equal(t, s.Overall.Total, s.Tenant.Total+s.Landlord.Total)
		assert.Equal(t, len(records), s.Overall.Total)
	}
}
