package race

// BalanceStore is the injected key-value capability holding account balances.
// The engine owns all bookkeeping logic; a store only reads and writes
// non-negative balances keyed by account. Implementations live in
// internal/store.
type BalanceStore interface {
	// Balance returns the balance for an account, 0 for unknown accounts.
	Balance(account string) (uint64, error)

	// SetBalance replaces the balance for an account.
	SetBalance(account string, balance uint64) error
}

// credit adds amount to the account's balance.
func (e *Engine) credit(account string, amount uint64) error {
	balance, err := e.balances.Balance(account)
	if err != nil {
		return err
	}
	return e.balances.SetBalance(account, balance+amount)
}

// debit removes amount from the account's balance, failing with
// ErrInsufficientBalance and no mutation if the balance is too small.
func (e *Engine) debit(account string, amount uint64) error {
	balance, err := e.balances.Balance(account)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientBalance
	}
	return e.balances.SetBalance(account, balance-amount)
}
