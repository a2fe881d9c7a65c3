package workflow

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
)

// NewRequestValidator returns a validator that understands decimal fields,
// so `gt=0` on a decimal.Decimal means strictly positive and `scale=N` caps
// the number of decimal places at what the ledger columns store.
func NewRequestValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	if err := validate.RegisterValidation("scale", decimalScale); err != nil {
		panic(err)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return validate
}

// decimalScale reads the decimal from the parent struct since the custom type
// func above hands the tag a float64.
func decimalScale(fl validator.FieldLevel) bool {
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	field := reflect.Indirect(fl.Parent()).FieldByName(fl.StructFieldName())
	if !field.IsValid() {
		return false
	}
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return d.Equal(d.Truncate(int32(places)))
}

// validateRequest checks the actor, the struct tags and the header type, then
// runs the operation's own shape checks.
func validateRequest(validate *validator.Validate, op ledgerOperation) error {
	header := op.Header()
	if strings.TrimSpace(header.ActorUserId) == "" {
		return models.NewUnauthenticatedError("actor identity is required")
	}
	if header.Type == "" {
		header.Type = op.operationType()
	} else if header.Type != op.operationType() {
		return models.NewInvalidArgumentError("request type %s does not match operation %s", header.Type, op.operationType())
	}
	if err := validate.Struct(op.payload()); err != nil {
		return validationError(err)
	}
	return op.validate()
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.NewInvalidArgumentError("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return models.NewInvalidArgumentError("invalid request: %s", strings.Join(msgs, "; "))
}

func requireUniqueLots(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return models.NewInvalidArgumentError("lot %s is listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

func defaultAccount(account models.Account, def models.Account) models.Account {
	if account == "" {
		return def
	}
	return account
}
