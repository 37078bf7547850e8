// cmd/cartctl/cmd_cart.go
package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	uc "github.com/MaYdaN875/Papeleria-store-sub000/internal/application/usecase"
	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
	catalogdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/catalog"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit the cart of the current owner",
}

var (
	listImages bool

	addQty     int
	addProduct int64
	addImage   string

	bumpBy int
)

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cart lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var lookup catalogdom.Lookup
		if listImages {
			if err := cont.Catalog.Refresh(cmd.Context()); err != nil {
				logger.Sugar().Warnf("catalog unavailable, images from cart only: %v", err)
			} else {
				lookup = cont.Catalog
			}
		}
		printCart(cmd.OutOrStdout(), cont.Cart.Snapshot(), lookup)
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add NAME PRICE",
	Short: "Add a line, merging with an identical (name, price) line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cont.Cart.AddItem(cmd.Context(), cartdom.NewLine{
			Name:      args[0],
			Price:     cartdom.NormalizePrice(args[1]),
			Quantity:  addQty,
			ProductID: addProduct,
			Image:     addImage,
		})
		return err
	},
}

var cartSetCmd = &cobra.Command{
	Use:   "set ID QUANTITY",
	Short: "Set the quantity of a line (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("quantity %q is not a number", args[1])
		}
		return cont.Cart.SetQuantity(cmd.Context(), args[0], q)
	},
}

var cartBumpCmd = &cobra.Command{
	Use:   "bump ID",
	Short: "Change the quantity of a line by --by (default +1)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cont.Cart.UpdateQuantity(cmd.Context(), args[0], bumpBy)
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove"},
	Short:   "Remove a line",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cont.Cart.Remove(cmd.Context(), args[0])
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cont.Cart.Clear(cmd.Context())
	},
}

func init() {
	cartListCmd.Flags().BoolVar(&listImages, "images", false, "resolve missing images from the catalog")

	cartAddCmd.Flags().IntVarP(&addQty, "qty", "q", 1, "quantity")
	cartAddCmd.Flags().Int64Var(&addProduct, "product", 0, "catalog product id")
	cartAddCmd.Flags().StringVar(&addImage, "image", "", "image url")

	cartBumpCmd.Flags().IntVar(&bumpBy, "by", 1, "delta, e.g. --by=-1")

	cartCmd.AddCommand(cartListCmd, cartAddCmd, cartSetCmd, cartBumpCmd, cartRemoveCmd, cartClearCmd)
}

func printCart(w io.Writer, v uc.CartView, lookup catalogdom.Lookup) {
	fmt.Fprintf(w, "owner: %s\n", v.Owner)
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL\tPRODUCT\tIMAGE")
	for _, it := range v.Items {
		product := "-"
		if it.HasProduct() {
			product = strconv.FormatInt(it.ProductID, 10)
		}
		name := it.Name
		if it.Removing {
			name += " (removing)"
		}
		img := uc.ImageFor(it.Item, lookup)
		if img == "" {
			img = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			it.ID, name, it.Price, it.Quantity, cartdom.FormatPrice(it.Subtotal()), product, img)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "items: %d  total: %s\n", v.ItemCount, cartdom.FormatPrice(v.Total))
}
