package ledger

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned by ParseAmount for anything that is not a
// positive decimal.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrCategoryMismatch is returned when a partial update would leave a
// transaction whose category does not belong to its type.
var ErrCategoryMismatch = errors.New("category does not belong to type")

// TransactionInput is the raw, string-typed shape of a create/edit form.
type TransactionInput struct {
	Description string `json:"description" validate:"notblank,max=200"`
	Amount      string `json:"amount" validate:"positive_amount"`
	Date        string `json:"date" validate:"calendar_date"`
	Category    string `json:"category" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=expense revenue"`
	Status      string `json:"status" validate:"omitempty,oneof=Pending Paid"`
}

// PatchInput is the raw shape of a partial update. Nil fields are absent.
type PatchInput struct {
	Description *string `json:"description" validate:"omitnil,notblank,max=200"`
	Amount      *string `json:"amount" validate:"omitnil,positive_amount"`
	Date        *string `json:"date" validate:"omitnil,calendar_date"`
	Category    *string `json:"category" validate:"omitnil,required"`
	Type        *string `json:"type" validate:"omitnil,oneof=expense revenue"`
	Status      *string `json:"status" validate:"omitnil,oneof=Pending Paid"`
}

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + f[field]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var messages = map[string]map[string]string{
	"description": {
		"notblank": "A descrição é obrigatória.",
		"max":      "A descrição deve ter no máximo 200 caracteres.",
	},
	"amount": {
		"positive_amount": "O valor deve ser um número positivo.",
	},
	"date": {
		"calendar_date": "Informe uma data válida (aaaa-mm-dd).",
	},
	"category": {
		"required":          "Selecione uma categoria.",
		"category_for_type": "Categoria inválida para o tipo selecionado.",
	},
	"type": {
		"required": "Selecione o tipo da transação.",
		"oneof":    "O tipo deve ser despesa ou receita.",
	},
	"status": {
		"oneof": "O status deve ser Pendente ou Pago.",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "positive_amount", func(fl validator.FieldLevel) bool {
		_, err := ParseAmount(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "calendar_date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(strings.TrimSpace(fl.Field().String()))
		return err == nil
	})

	v.RegisterStructValidation(transactionCategoryRule, TransactionInput{})
	v.RegisterStructValidation(patchCategoryRule, PatchInput{})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("ledger: register validation " + tag + ": " + err.Error())
	}
}

func transactionCategoryRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(TransactionInput)
	t := Type(in.Type)
	if in.Category == "" || !t.Valid() {
		return
	}
	if !CategoryAllowed(t, Category(in.Category)) {
		sl.ReportError(in.Category, "category", "Category", "category_for_type", in.Type)
	}
}

func patchCategoryRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(PatchInput)
	if in.Category == nil || *in.Category == "" {
		return
	}
	c := Category(*in.Category)
	if in.Type != nil && Type(*in.Type).Valid() {
		if !CategoryAllowed(Type(*in.Type), c) {
			sl.ReportError(*in.Category, "category", "Category", "category_for_type", *in.Type)
		}
		return
	}
	if !KnownCategory(c) {
		sl.ReportError(*in.Category, "category", "Category", "category_for_type", "")
	}
}

// ParseAmount parses a positive decimal. Both "12.34" and "12,34" are
// accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// Validate checks a form and converts it into a NewTransaction. When the
// input is rejected the returned FieldErrors holds one message per offending
// field and the transaction is the zero value.
func Validate(in TransactionInput) (NewTransaction, FieldErrors) {
	if errs := collect(validate.Struct(in)); errs != nil {
		return NewTransaction{}, errs
	}

	amount, _ := ParseAmount(in.Amount)
	date, _ := ParseDate(strings.TrimSpace(in.Date))
	status := Status(in.Status)
	if status == "" {
		status = StatusPending
	}

	return NewTransaction{
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Date:        date,
		Category:    Category(in.Category),
		Type:        Type(in.Type),
		Status:      status,
	}, nil
}

// ValidatePatch checks the supplied subset of fields of a partial update.
func ValidatePatch(in PatchInput) (Patch, FieldErrors) {
	if errs := collect(validate.Struct(in)); errs != nil {
		return Patch{}, errs
	}

	var patch Patch
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		patch.Description = &description
	}
	if in.Amount != nil {
		amount, _ := ParseAmount(*in.Amount)
		patch.Amount = &amount
	}
	if in.Date != nil {
		date, _ := ParseDate(strings.TrimSpace(*in.Date))
		patch.Date = &date
	}
	if in.Category != nil {
		category := Category(*in.Category)
		patch.Category = &category
	}
	if in.Type != nil {
		t := Type(*in.Type)
		patch.Type = &t
	}
	if in.Status != nil {
		status := Status(*in.Status)
		patch.Status = &status
	}
	return patch, nil
}

func collect(err error) FieldErrors {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return FieldErrors{"": err.Error()}
	}

	out := make(FieldErrors, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Field()
		if _, exists := out[field]; exists {
			continue
		}
		out[field] = messageFor(field, fe.Tag())
	}
	return out
}

// CategoryMismatchErrors is the field error reported for ErrCategoryMismatch.
func CategoryMismatchErrors() FieldErrors {
	return FieldErrors{"category": messageFor("category", "category_for_type")}
}

func messageFor(field, tag string) string {
	if msg, ok := messages[field][tag]; ok {
		return msg
	}
	return "Valor inválido."
}
