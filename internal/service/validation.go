package service

import (
	"skillswap/internal/domain/apperror"
	"skillswap/pkg/validator"
)

// validate runs struct tag validation and reports the first failing field.
func validate(s any) error {
	err := validator.ValidateStruct(s)
	if err == nil {
		return nil
	}
	if fe, ok := validator.FirstError(err); ok {
		return apperror.Validation(fe.Field, fe.Message)
	}
	return apperror.Validation("", err.Error())
}
