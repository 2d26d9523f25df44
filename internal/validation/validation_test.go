package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/validation"
)

func TestValidateSMSPayload(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]string
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "valid e164",
			payload:   map[string]string{"From": "+12345678901", "Body": "YES"},
			wantValid: true,
		},
		{
			name:      "valid without plus",
			payload:   map[string]string{"From": "1234567890", "Body": "paid already"},
			wantValid: true,
		},
		{
			name:      "fifteen digits",
			payload:   map[string]string{"From": "+123456789012345", "Body": "NO"},
			wantValid: true,
		},
		{
			name:       "too short phone",
			payload:    map[string]string{"From": "123", "Body": "YES"},
			wantFields: []string{"From"},
		},
		{
			name:       "too long phone",
			payload:    map[string]string{"From": "+1234567890123456", "Body": "YES"},
			wantFields: []string{"From"},
		},
		{
			name:       "phone with separators",
			payload:    map[string]string{"From": "+1 234 567 8901", "Body": "YES"},
			wantFields: []string{"From"},
		},
		{
			name:       "missing from",
			payload:    map[string]string{"Body": "YES"},
			wantFields: []string{"From"},
		},
		{
			name:       "whitespace body",
			payload:    map[string]string{"From": "+12345678901", "Body": "   \t"},
			wantFields: []string{"Body"},
		},
		{
			name:       "empty payload",
			payload:    map[string]string{},
			wantFields: []string{"From", "Body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := validation.ValidateSMSPayload(tt.payload)

			assert.Equal(t, tt.wantValid, valid)
			assert.Len(t, errs, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestValidateSMSPayload_Messages(t *testing.T) {
	_, errs := validation.ValidateSMSPayload(nil)

	assert.Equal(t, "Invalid or missing phone number.", errs["From"])
	assert.Equal(t, "Message body is required.", errs["Body"])
	assert.Contains(t, errs.Error(), "Body: Message body is required.")
}

func TestValidateLoginForm(t *testing.T) {
	valid, errs := validation.ValidateLoginForm("admin", "secret")
	assert.True(t, valid)
	assert.Empty(t, errs)

	valid, errs = validation.ValidateLoginForm(" ", "")
	assert.False(t, valid)
	assert.Equal(t, "Username is required.", errs["username"])
	assert.Equal(t, "Password is required.", errs["password"])
}

func TestValidateOutboundRequest(t *testing.T) {
	base := models.OutboundRequest{
		Name:    "Jane Landlord",
		Phone:   "+15551234567",
		Address: "12 Elm St",
		Message: "Has rent been paid? Reply YES or NO.",
	}

	valid, errs := validation.ValidateOutboundRequest(base)
	assert.True(t, valid)
	assert.Empty(t, errs)

	withEmail := base
	withEmail.Email = "jane@example.com"
	valid, _ = validation.ValidateOutboundRequest(withEmail)
	assert.True(t, valid)

	badEmail := base
	badEmail.Email = "not-an-email"
	valid, errs = validation.ValidateOutboundRequest(badEmail)
	assert.False(t, valid)
	assert.Contains(t, errs, "email")

	missing := models.OutboundRequest{Email: "jane@example.com"}
	valid, errs = validation.ValidateOutboundRequest(missing)
	assert.False(t, valid)
	for _, f := range []string{"name", "phone", "address", "message"} {
		assert.Contains(t, errs, f)
	}
}

func TestErrors_FieldsSorted(t *testing.T) {
	errs := validation.Errors{"phone": "bad", "address": "missing", "name": "missing"}

	assert.Equal(t, []string{"address", "name", "phone"}, errs.Fields())
	assert.Equal(t, "validation failed: address: missing; name: missing; phone: bad", errs.Error())
}
