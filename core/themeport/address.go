package themeport

import (
	"net/mail"

	"github.com/pkg/errors"
)

func parseAddress(s string) (mail.Address, error) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return mail.Address{}, errors.Wrapf(err, "parsing address %q", s)
	}
	return *a, nil
}
