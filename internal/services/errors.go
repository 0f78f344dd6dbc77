package services

import "errors"

var (
	// ErrRentalTermsMissing means no rental terms record resolves for a
	// contract, so no authoritative rent amount exists.
	ErrRentalTermsMissing = errors.New("rental terms not found for contract")

	// ErrContractDataIncomplete means a contract has no linked customer
	// or the customer record has no usable contact phone.
	ErrContractDataIncomplete = errors.New("contract data incomplete")

	// ErrSlipAmountBelowMinimum means the fee-adjusted total is under the
	// processor's floor for slip issuance.
	ErrSlipAmountBelowMinimum = errors.New("amount below slip minimum")
)
