// Package student manages student records: the profile CRUD used by the
// school administration and the lookup surface the certificate flows consume.
package student

import "time"

// Student is the full student record.
type Student struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	ClassName     string     `json:"className,omitempty"`
	SectionName   string     `json:"sectionName,omitempty"`
	Roll          int        `json:"roll,omitempty"`
	GuardianName  string     `json:"guardianName,omitempty"`
	GuardianPhone string     `json:"guardianPhone,omitempty"`
	AdmissionDate *time.Time `json:"admissionDate,omitempty"`
	// WalletAddress is the student's self-reported chain address. Optional;
	// certificate issuance derives a synthetic address when empty.
	WalletAddress string    `json:"walletAddress,omitempty"`
	SystemAccess  bool      `json:"systemAccess"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Filter narrows and pages student listings.
type Filter struct {
	Name        string
	ClassName   string
	SectionName string
	Roll        int
	Page        int
	Limit       int
}

// normalize applies listing defaults.
func (f Filter) normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
	return f
}

// Page is one page of a student listing.
type Page struct {
	Students []*Student `json:"students"`
	Total    int        `json:"total"`
}

// CreateRequest carries the fields accepted when registering a student.
type CreateRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Gender        string `json:"gender"`
	ClassName     string `json:"className"`
	SectionName   string `json:"sectionName"`
	Roll          int    `json:"roll"`
	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`
	WalletAddress string `json:"walletAddress"`
}

// UpdateRequest carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type UpdateRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	ClassName     *string `json:"className"`
	SectionName   *string `json:"sectionName"`
	Roll          *int    `json:"roll"`
	GuardianName  *string `json:"guardianName"`
	GuardianPhone *string `json:"guardianPhone"`
	WalletAddress *string `json:"walletAddress"`
}
