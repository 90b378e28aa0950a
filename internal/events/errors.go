package events

// ErrorType classifies an Error event.
type ErrorType string

const (
	ErrProjectInfoFetch        ErrorType = "PROJECT_INFO_FETCH_ERROR"
	ErrCannotMint              ErrorType = "CANNOT_MINT"
	ErrPurchaseDisabled        ErrorType = "PURCHASE_DISABLED"
	ErrInsufficientETHAmount   ErrorType = "INSUFFICIENT_ETH_AMOUNT"
	ErrExceedsMaxSupply        ErrorType = "EXCEEDS_MAX_SUPPLY"
	ErrGasFeeNotAllowed        ErrorType = "GAS_FEE_NOT_ALLOWED"
	ErrExceedsIndividualSupply ErrorType = "EXCEEDS_INDIVIDUAL_SUPPLY"
	ErrPresaleInactive         ErrorType = "PRESALE_INACTIVE"
	ErrCannotMintPresale       ErrorType = "CANNOT_MINT_PRESALE"
	ErrContractCall            ErrorType = "CONTRACT_CALL_ERROR"
	ErrTransaction             ErrorType = "TRANSACTION_ERROR"
)

// messages is the user-facing text for each error type. UIs render these,
// never the underlying fault.
var messages = map[ErrorType]string{
	ErrProjectInfoFetch:        "Unable to load project information",
	ErrCannotMint:              "General onsale hasn't started yet",
	ErrPurchaseDisabled:        "Minting is currently disabled",
	ErrInsufficientETHAmount:   "Please ensure you paid enough ETH",
	ErrExceedsMaxSupply:        "Project sold out",
	ErrGasFeeNotAllowed:        "Please try again without additional gas",
	ErrExceedsIndividualSupply: "You've reached the purchase limit for your wallet",
	ErrPresaleInactive:         "Presale hasn't started yet",
	ErrCannotMintPresale:       "Please verify you're on the presale whitelist",
	ErrContractCall:            "Unable to read sale information from the contract",
}

// Message returns the fixed message for t, or "" when t has none
// (TRANSACTION_ERROR carries the underlying failure instead).
func (t ErrorType) Message() string {
	return messages[t]
}

// NewError builds an Error event with the fixed message for t.
func NewError(t ErrorType) Error {
	return Error{Type: t, Message: t.Message()}
}
