// cmd/cartctl/cmd_checkout.go
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	httpout "github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/http"
	uc "github.com/MaYdaN875/Papeleria-store-sub000/internal/application/usecase"
	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Create a payment session for the cart and print its URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := cont.Checkout.Start(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

// userMessage turns the errors a shopper can act on into plain text.
func userMessage(err error) string {
	var verr *uc.CheckoutValidationError
	var apiErr *httpout.APIError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, uc.ErrCheckoutEmptyCart):
		return "your cart is empty"
	case errors.Is(err, uc.ErrCheckoutLoginRequired):
		return "log in first (cartctl session set / cartctl session firebase)"
	case errors.Is(err, sessiondom.ErrInvalidSession):
		return "a session needs a token, an email and an account id or uid"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return err.Error()
	}
}
