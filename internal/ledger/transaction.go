package ledger

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Type is the direction of a transaction.
type Type string

const (
	TypeExpense Type = "expense"
	TypeRevenue Type = "revenue"
)

// Status tracks whether an expense has been settled. Revenue is always
// considered settled regardless of the stored value.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
)

// Category is a user-facing category label.
type Category string

var (
	expenseCategories = []Category{"Moradia", "Alimentação", "Transporte", "Lazer", "Saúde", "Outros"}
	revenueCategories = []Category{"Salário", "Freelance", "Investimentos", "Outros"}
)

// MaxDescriptionLength bounds the description field.
const MaxDescriptionLength = 200

// Transaction is a stored ledger entry as seen by callers.
type Transaction struct {
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
	Date        civil.Date
	Category    Category
	Type        Type
	Status      Status
}

// NewTransaction is a transaction before the store assigns it an id.
type NewTransaction struct {
	Description string
	Amount      decimal.Decimal
	Date        civil.Date
	Category    Category
	Type        Type
	Status      Status
}

// Patch carries the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Description *string
	Amount      *decimal.Decimal
	Date        *civil.Date
	Category    *Category
	Type        *Type
	Status      *Status
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Description == nil &&
		p.Amount == nil &&
		p.Date == nil &&
		p.Category == nil &&
		p.Type == nil &&
		p.Status == nil
}

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	return t == TypeExpense || t == TypeRevenue
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// CategoriesFor returns the selectable categories for a type, in display
// order. Unknown types have no categories.
func CategoriesFor(t Type) []Category {
	switch t {
	case TypeExpense:
		return append([]Category(nil), expenseCategories...)
	case TypeRevenue:
		return append([]Category(nil), revenueCategories...)
	}
	return nil
}

// CategoryAllowed reports whether c belongs to the category set of t.
func CategoryAllowed(t Type, c Category) bool {
	for _, candidate := range CategoriesFor(t) {
		if candidate == c {
			return true
		}
	}
	return false
}

// KnownCategory reports whether c belongs to any category set.
func KnownCategory(c Category) bool {
	return CategoryAllowed(TypeExpense, c) || CategoryAllowed(TypeRevenue, c)
}

// StatusApplies reports whether the status field is meaningful for t.
func StatusApplies(t Type) bool {
	return t == TypeExpense
}

// AnchorDate converts a calendar day to the timestamp persisted by the store:
// midnight UTC of that day.
func AnchorDate(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// DateFromTimestamp recovers the calendar day from a stored timestamp by
// reading its UTC date. It is the inverse of AnchorDate for every reader
// timezone.
func DateFromTimestamp(ts time.Time) civil.Date {
	return civil.DateOf(ts.UTC())
}

// ParseDate parses a yyyy-mm-dd string.
func ParseDate(s string) (civil.Date, error) {
	return civil.ParseDate(s)
}
