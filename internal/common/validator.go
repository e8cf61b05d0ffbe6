package common

import (
	"fmt"
	"net/http"
	"regexp"
	"sync"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// WalletAddressTag validates 0x-prefixed 40 hex digit addresses.
const WalletAddressTag = "walletaddr"

var walletAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type GenericEchoValidator struct {
	Validator *validator.Validate
	once      sync.Once
}

func NewValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(WalletAddressTag, func(fl validator.FieldLevel) bool {
		return walletAddressPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	gv.once.Do(func() {
		if gv.Validator == nil {
			gv.Validator = NewValidator()
		}
	})
	if err := gv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	return nil
}
