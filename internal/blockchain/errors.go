package blockchain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserRejected      = errors.New("Transaction was rejected by user")
	ErrInsufficientFunds = errors.New("Insufficient funds for transaction")
	ErrTransactionFailed = errors.New("Transaction failed")
	ErrReadOnly          = errors.New("no signing key configured")
	ErrInvalidCampaignID = errors.New("invalid campaign id")
	ErrCampaignNotFound  = errors.New("campaign not found")
)

// ContractError is returned by every failed contract write. Reason is the
// message suitable for showing to the user.
type ContractError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

func newContractError(op string, err error) error {
	classified := classify(err)
	return &ContractError{Op: op, Reason: ParseContractError(classified), Err: classified}
}

// classify maps node and wallet error messages onto the sentinel errors.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrUserRejected) || errors.Is(err, ErrInsufficientFunds) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return fmt.Errorf("%w: %v", ErrUserRejected, err)
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	}
	return err
}

// ParseContractError turns a contract call failure into a short reason string.
func ParseContractError(err error) string {
	if err == nil {
		return ""
	}

	var contractErr *ContractError
	if errors.As(err, &contractErr) {
		return contractErr.Reason
	}

	err = classify(err)
	switch {
	case errors.Is(err, ErrUserRejected):
		return ErrUserRejected.Error()
	case errors.Is(err, ErrInsufficientFunds):
		return ErrInsufficientFunds.Error()
	}

	msg := err.Error()
	if idx := strings.Index(msg, "execution reverted: "); idx >= 0 {
		return msg[idx+len("execution reverted: "):]
	}
	return msg
}
