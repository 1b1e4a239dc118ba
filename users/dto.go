package users

import (
	"time"
)

// UpdateProfileRequest is a partial profile update. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	DateOfBirth *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02" example:"1995-04-12"`
	Gender      *string `json:"gender,omitempty" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	UserType    *string `json:"user_type,omitempty" validate:"omitempty,oneof=student professional farmer senior_citizen beginner intermediate expert"`

	PreferredLanguage *string `json:"preferred_language,omitempty" validate:"omitempty,oneof=en ta hi te bn gu kn ml mr or pa ur"`
	PreferredCurrency *string `json:"preferred_currency,omitempty" validate:"omitempty,len=3,uppercase"`
	Timezone          *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
	Country           *string `json:"country,omitempty" validate:"omitempty,max=100"`
	State             *string `json:"state,omitempty" validate:"omitempty,max=100"`
	City              *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Pincode           *string `json:"pincode,omitempty" validate:"omitempty,numeric,len=6"`

	MonthlyIncome *float64 `json:"monthly_income,omitempty" validate:"omitempty,gte=0"`
	Occupation    *string  `json:"occupation,omitempty" validate:"omitempty,max=100"`
	Employer      *string  `json:"employer,omitempty" validate:"omitempty,max=200"`

	PANNumber     *string `json:"pan_number,omitempty" validate:"omitempty,pan" example:"ABCDE1234F"`
	AadhaarNumber *string `json:"aadhaar_number,omitempty" validate:"omitempty,aadhaar"`

	Settings                map[string]interface{} `json:"settings,omitempty"`
	PrivacySettings         map[string]interface{} `json:"privacy_settings,omitempty"`
	NotificationPreferences map[string]interface{} `json:"notification_preferences,omitempty"`
}

// PreferenceValue is the body of a preference write.
type PreferenceValue struct {
	Value interface{} `json:"value" validate:"required"`
}

// AwardPointsRequest grants gamification points.
type AwardPointsRequest struct {
	Points int    `json:"points" validate:"required,gt=0,lte=10000"`
	Reason string `json:"reason" validate:"required,max=100"`
	Badge  string `json:"badge,omitempty" validate:"omitempty,max=50"`
}

// PointsResult reports the user's gamification state after an award.
type PointsResult struct {
	Points    int      `json:"points"`
	Level     int      `json:"level"`
	LeveledUp bool     `json:"leveled_up"`
	Badges    []string `json:"badges"`
}

// ProfileResponse is the profile view returned by /users/me. KYC numbers are
// only ever shown masked.
type ProfileResponse struct {
	*User
	FullName      string `json:"full_name"`
	Age           *int   `json:"age,omitempty"`
	PANMasked     string `json:"pan_masked,omitempty"`
	AadhaarMasked string `json:"aadhaar_masked,omitempty"`
}

// ExportFormatVersion is the only profile export version ImportProfile accepts.
const ExportFormatVersion = "1.0"

// ProfileExport is the JSON backup of a user profile.
type ProfileExport struct {
	FormatVersion    string                 `json:"format_version"`
	ExportedAt       time.Time              `json:"exported_at"`
	AppVersion       string                 `json:"app_version"`
	User             map[string]interface{} `json:"user"`
	Preferences      []Preference           `json:"preferences"`
	RecentActivities []Activity             `json:"recent_activities"`
	FinancialProfile *FinancialProfile      `json:"financial_profile,omitempty"`
}

// importableUser lists the user fields an import may overwrite.
type importableUser struct {
	FirstName               *string                `json:"first_name"`
	LastName                *string                `json:"last_name"`
	Gender                  *string                `json:"gender"`
	UserType                *string                `json:"user_type" validate:"omitempty,oneof=student professional farmer senior_citizen beginner intermediate expert"`
	PreferredLanguage       *string                `json:"preferred_language" validate:"omitempty,oneof=en ta hi te bn gu kn ml mr or pa ur"`
	PreferredCurrency       *string                `json:"preferred_currency" validate:"omitempty,len=3"`
	Timezone                *string                `json:"timezone" validate:"omitempty,timezone"`
	Country                 *string                `json:"country"`
	State                   *string                `json:"state"`
	City                    *string                `json:"city"`
	Pincode                 *string                `json:"pincode"`
	Occupation              *string                `json:"occupation"`
	Employer                *string                `json:"employer"`
	MonthlyIncome           *float64               `json:"monthly_income" validate:"omitempty,gte=0"`
	Settings                map[string]interface{} `json:"settings"`
	PrivacySettings         map[string]interface{} `json:"privacy_settings"`
	NotificationPreferences map[string]interface{} `json:"notification_preferences"`
	Points                  *int                   `json:"points" validate:"omitempty,gte=0"`
	Level                   *int                   `json:"level" validate:"omitempty,gte=1"`
	Badges                  []string               `json:"badges"`
}

// ImportResult summarizes what an import changed.
type ImportResult struct {
	UpdatedFields       []string `json:"updated_fields"`
	PreferencesImported int      `json:"preferences_imported"`
	FinancialProfile    bool     `json:"financial_profile"`
}

// Stats is the user population summary used by admin endpoints.
type Stats struct {
	Total    int64            `json:"total"`
	Active   int64            `json:"active"`
	Verified int64            `json:"verified"`
	ByType   map[string]int64 `json:"by_type"`
}
