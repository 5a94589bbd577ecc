package store

// Lead is one stored form submission. The json tags double as column names.
type Lead struct {
	ID            int64   `json:"id"`
	Category      string  `json:"category"`
	CompanyName   *string `json:"company_name"`
	OwnerName     *string `json:"owner_name"`
	BusinessType  *string `json:"business_type"`
	StartYear     *string `json:"start_year"`
	SalesRange    *string `json:"sales_range"`
	EmployeeCount *string `json:"employee_count"`
	UrgentIssue   *string `json:"urgent_issue"`
	LoanStatus    *string `json:"loan_status"`
	ContactMethod *string `json:"contact_method"`
	Phone         *string `json:"phone"`
	ContactTime   *string `json:"contact_time"`
	Memo          string  `json:"memo"`
	CreatedAt     string  `json:"created_at"`
	Status        string  `json:"status"`
}

// Fields are the client supplied values of a lead. nil means the field was absent.
type Fields struct {
	CompanyName   *string
	OwnerName     *string
	BusinessType  *string
	StartYear     *string
	SalesRange    *string
	EmployeeCount *string
	UrgentIssue   *string
	LoanStatus    *string
	ContactMethod *string
	Phone         *string
	ContactTime   *string
	Memo          *string
}

const (
	// StatusUncontacted is the status every lead starts with
	StatusUncontacted = "uncontacted"

	// CreatedAtLayout is the format of Lead.CreatedAt
	CreatedAtLayout = "2006-01-02 15:04:05"
)
