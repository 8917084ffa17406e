package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// Account is a plain bank account. It enforces nothing itself.
type Account struct {
	Owner   string `json:"owner"`
	Balance int    `json:"balance"`
}

// GuardedAccount is the invariant-guarded proxy for an Account. All access
// to the account goes through its methods.
type GuardedAccount struct {
	acc *Account
	inv *contract.Invariant[*Account]
}

// NewGuardedAccount wraps acc. A nil inv leaves the account unguarded.
func NewGuardedAccount(acc *Account, inv *contract.Invariant[*Account]) *GuardedAccount {
	return &GuardedAccount{acc: acc, inv: inv}
}

// Deposit adds amount to the balance.
func (g *GuardedAccount) Deposit(ctx context.Context, amount int) error {
	return g.inv.Do(ctx, g.acc, "Deposit", func(context.Context) error {
		g.acc.Balance += amount
		return nil
	})
}

// Withdraw subtracts amount from the balance without checking funds.
func (g *GuardedAccount) Withdraw(ctx context.Context, amount int) error {
	return g.inv.Do(ctx, g.acc, "Withdraw", func(context.Context) error {
		g.acc.Balance -= amount
		return nil
	})
}

// Balance returns the current balance.
func (g *GuardedAccount) Balance(ctx context.Context) (int, error) {
	return contract.Method(ctx, g.inv, g.acc, "Balance", func(context.Context) (int, error) {
		return g.acc.Balance, nil
	})
}

// Transfer moves amount to another account. The nested Withdraw on this
// account is not checked separately; the Deposit on to is.
func (g *GuardedAccount) Transfer(ctx context.Context, to *GuardedAccount, amount int) error {
	return g.inv.Do(ctx, g.acc, "Transfer", func(ctx context.Context) error {
		if err := g.Withdraw(ctx, amount); err != nil {
			return err
		}
		return to.Deposit(ctx, amount)
	})
}

// Adjust moves the balance by delta. It overdraws by one and then deposits
// the difference, so the balance is briefly negative inside the call.
func (g *GuardedAccount) Adjust(ctx context.Context, delta int) error {
	return g.inv.Do(ctx, g.acc, "Adjust", func(ctx context.Context) error {
		target := g.acc.Balance + delta
		if err := g.Withdraw(ctx, g.acc.Balance+1); err != nil {
			return err
		}
		return g.Deposit(ctx, target+1)
	})
}

var accountMethods = map[string]*binding.Schema{
	"Deposit":  binding.MustSchema([]binding.Param{binding.Required("amount")}),
	"Withdraw": binding.MustSchema([]binding.Param{binding.Required("amount")}),
	"Balance":  binding.MustSchema(nil),
	"Transfer": binding.MustSchema([]binding.Param{binding.Required("to"), binding.Required("amount")}),
	"Adjust":   binding.MustSchema([]binding.Param{binding.Required("delta")}),
}

// TypeName implements Object.
func (g *GuardedAccount) TypeName() string { return "Account" }

// Methods implements Object.
func (g *GuardedAccount) Methods() []string { return sortedKeys(accountMethods) }

// State implements Object.
func (g *GuardedAccount) State() map[string]any {
	return map[string]any{"owner": g.acc.Owner, "balance": g.acc.Balance}
}

// Invoke implements Object by binding call against the method's schema.
func (g *GuardedAccount) Invoke(ctx context.Context, method string, call binding.Call) (any, error) {
	schema, ok := accountMethods[method]
	if !ok {
		return nil, fmt.Errorf("Account has no method %q", method)
	}
	args, err := binding.Bind(schema, call)
	if err != nil {
		var be *binding.Error
		if errors.As(err, &be) {
			return nil, be.WithTarget("Account." + method)
		}
		return nil, err
	}

	switch method {
	case "Balance":
		return g.Balance(ctx)
	case "Transfer":
		to, ok := args["to"].(*GuardedAccount)
		if !ok {
			return nil, fmt.Errorf("argument \"to\" must be an Account, got %T", args["to"])
		}
		amount, err := intArg(args, "amount")
		if err != nil {
			return nil, err
		}
		return nil, g.Transfer(ctx, to, amount)
	case "Adjust":
		delta, err := intArg(args, "delta")
		if err != nil {
			return nil, err
		}
		return nil, g.Adjust(ctx, delta)
	}

	amount, err := intArg(args, "amount")
	if err != nil {
		return nil, err
	}
	if method == "Deposit" {
		return nil, g.Deposit(ctx, amount)
	}
	return nil, g.Withdraw(ctx, amount)
}

// AccountType describes Account(owner, balance=0).
func AccountType() *Type {
	return &Type{
		Name: "Account",
		Schema: binding.MustSchema([]binding.Param{
			binding.Required("owner"),
			binding.Optional("balance", 0),
		}),
		Methods: sortedKeys(accountMethods),
		New: func(c *contract.Contracts, inv *Invariant, args binding.Set) (Object, error) {
			owner, err := stringArg(args, "owner")
			if err != nil {
				return nil, err
			}
			balance, err := intArg(args, "balance")
			if err != nil {
				return nil, err
			}
			acc := &Account{Owner: owner, Balance: balance}
			if inv == nil {
				return NewGuardedAccount(acc, nil), nil
			}
			guard, err := contract.NewInvariant[*Account](c, "Account", inv.Description, inv.Predicate)
			if err != nil {
				return nil, err
			}
			return NewGuardedAccount(acc, guard), nil
		},
	}
}
