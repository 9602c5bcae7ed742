package checks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jpalmerr/sitewait"
)

func init() {
	mustRegister(Check{Kind: "sort_za", Description: "sort by name Z to A via option index", Run: checkSortZA})
	mustRegister(Check{Kind: "sort_hilo", Description: "sort by price high to low", Run: sortByPrice("hilo", "Price (high to low)", true)})
	mustRegister(Check{Kind: "sort_lohi", Description: "sort by price low to high", Run: sortByPrice("lohi", "Price (low to high)", false)})
	mustRegister(Check{Kind: "add_to_cart", Description: "third product lands in the cart", Run: checkAddToCart})
}

// sortReady waits for the sort dropdown and checks it is a single-choice
// select.
func sortReady(ctx context.Context, env Env) error {
	if _, err := sitewait.WaitFor(ctx, sitewait.Clickable(env.Driver.Locate(selSort)), env.Wait); err != nil {
		return fmt.Errorf("sort dropdown: %w", err)
	}
	multiple, err := env.Driver.IsMultiple(ctx, selSort)
	if err != nil {
		return fmt.Errorf("sort dropdown: %w", err)
	}
	if multiple {
		return mismatch("sort dropdown allows multiple", true, false)
	}
	return nil
}

func activeSort(ctx context.Context, env Env, want string) error {
	return eventually(ctx, env, "active sort option", want, func(ctx context.Context) (string, error) {
		return readText(ctx, env, selActiveSort)
	})
}

func checkSortZA(ctx context.Context, env Env) error {
	if err := loginAsDefault(ctx, env); err != nil {
		return err
	}
	if err := sortReady(ctx, env); err != nil {
		return err
	}

	index, err := strconv.Atoi(env.Param("index", "1"))
	if err != nil {
		return fmt.Errorf("index param: %w", err)
	}
	if err := env.Driver.SelectIndex(ctx, selSort, index); err != nil {
		return fmt.Errorf("select sort index %d: %w", index, err)
	}
	if err := activeSort(ctx, env, env.Param("label", "Name (Z to A)")); err != nil {
		return err
	}

	names, err := texts(ctx, env, selItemName)
	if err != nil {
		return err
	}
	want := slices.Clone(names)
	slices.SortFunc(want, func(a, b string) int { return strings.Compare(b, a) })
	if !slices.Equal(names, want) {
		return mismatch("product names", names, want)
	}
	return nil
}

func sortByPrice(value, label string, descending bool) Func {
	return func(ctx context.Context, env Env) error {
		if err := loginAsDefault(ctx, env); err != nil {
			return err
		}
		if err := sortReady(ctx, env); err != nil {
			return err
		}
		if err := env.Driver.SelectOption(ctx, selSort, value); err != nil {
			return fmt.Errorf("select sort %s: %w", value, err)
		}
		if err := activeSort(ctx, env, label); err != nil {
			return err
		}

		raw, err := texts(ctx, env, selItemPrice)
		if err != nil {
			return err
		}
		prices, err := parsePrices(raw)
		if err != nil {
			return err
		}
		want := slices.Clone(prices)
		slices.Sort(want)
		if descending {
			slices.Reverse(want)
		}
		if !slices.Equal(prices, want) {
			return mismatch("product prices", prices, want)
		}
		return nil
	}
}

func checkAddToCart(ctx context.Context, env Env) error {
	if err := loginAsDefault(ctx, env); err != nil {
		return err
	}

	pos, err := strconv.Atoi(env.Param("position", "3"))
	if err != nil || pos < 1 {
		return fmt.Errorf("position param %q must be a positive integer", env.Param("position", "3"))
	}
	sel := fmt.Sprintf("(//button[text()='Add to cart'])[%d]", pos)
	btn, err := sitewait.WaitFor(ctx, sitewait.Clickable(env.Driver.Locate(sel)), env.Wait)
	if err != nil {
		return fmt.Errorf("add to cart button %d: %w", pos, err)
	}
	if err := btn.Click(ctx); err != nil {
		return fmt.Errorf("click add to cart: %w", err)
	}
	if err := eventually(ctx, env, "cart badge", "1", func(ctx context.Context) (string, error) {
		return readText(ctx, env, selCartBadge)
	}); err != nil {
		return err
	}

	if err := env.open(ctx, "/cart.html"); err != nil {
		return fmt.Errorf("open cart: %w", err)
	}
	items, err := texts(ctx, env, "//div[@class='cart_item']/div/a/div[@class='inventory_item_name']")
	if err != nil {
		return err
	}
	want := env.Param("item", "Sauce Labs Bolt T-Shirt")
	if !slices.Contains(items, want) {
		return mismatch("cart items", items, "to contain "+strconv.Quote(want))
	}
	return nil
}
