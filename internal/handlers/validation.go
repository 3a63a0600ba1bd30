package handlers

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// formatValidationErrors раскладывает ошибки ozzo по именам полей формы.
func formatValidationErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}
	out["form"] = err.Error()
	return out
}

func validateStringEquals(expect, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != expect {
			return errors.New(message)
		}
		return nil
	}
}
