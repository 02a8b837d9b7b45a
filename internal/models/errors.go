package models

import "errors"

// Operation errors. Gate errors (paused, unauthorized) are distinct from
// domain-validation errors so callers can tell "try later" from "fix your
// input". Services wrap these with fmt.Errorf("...: %w", err); handlers
// match with errors.Is.
var (
	ErrProgramPaused               = errors.New("program is paused")
	ErrUnauthorized                = errors.New("caller is not the authority")
	ErrAlreadyInitialized          = errors.New("registry already initialized")
	ErrNotInitialized              = errors.New("registry not initialized")
	ErrInvalidCoverageAmount       = errors.New("coverage amount must be greater than zero")
	ErrInvalidPremiumAmount        = errors.New("premium amount must be greater than zero")
	ErrInvalidGeographicBounds     = errors.New("geographic bounds out of range")
	ErrInvalidEndTimestamp         = errors.New("end timestamp must be in the future")
	ErrMissingTriggerThreshold     = errors.New("no threshold relevant to the policy type")
	ErrDuplicatePolicy             = errors.New("policy already exists for owner")
	ErrPolicyNotFound              = errors.New("policy not found")
	ErrPolicyNotActive             = errors.New("policy is not active")
	ErrAlreadyActive               = errors.New("policy is already active")
	ErrInsufficientPremium         = errors.New("deposit is below the premium amount")
	ErrUnregisteredOracle          = errors.New("oracle provider is not registered or inactive")
	ErrSignatureVerificationFailed = errors.New("oracle signature verification failed")
	ErrStaleData                   = errors.New("climate data is older than the ingestion window")
	ErrNoValidOracleData           = errors.New("no valid oracle data for evaluation")
	ErrNotTriggered                = errors.New("policy is not in triggered state")
	ErrInvalidPayoutAmount         = errors.New("payout amount is zero or exceeds coverage")
	ErrInsufficientPoolBalance     = errors.New("risk pool balance is insufficient")
	ErrAlreadyPaidOut              = errors.New("policy has already been paid out")
	ErrArithmeticOverflow          = errors.New("arithmetic overflow")
	ErrInsufficientFunds           = errors.New("funding account balance is insufficient")
)

// ErrorCode maps an operation error to the API envelope code. Unknown errors
// map to INTERNAL_ERROR.
func ErrorCode(err error) string {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return "INTERNAL_ERROR"
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrProgramPaused, "PROGRAM_PAUSED"},
	{ErrUnauthorized, "UNAUTHORIZED"},
	{ErrAlreadyInitialized, "ALREADY_INITIALIZED"},
	{ErrNotInitialized, "NOT_INITIALIZED"},
	{ErrInvalidCoverageAmount, "INVALID_COVERAGE_AMOUNT"},
	{ErrInvalidPremiumAmount, "INVALID_PREMIUM_AMOUNT"},
	{ErrInvalidGeographicBounds, "INVALID_GEOGRAPHIC_BOUNDS"},
	{ErrInvalidEndTimestamp, "INVALID_END_TIMESTAMP"},
	{ErrMissingTriggerThreshold, "INVALID_TRIGGER_CONDITIONS"},
	{ErrDuplicatePolicy, "DUPLICATE_POLICY"},
	{ErrPolicyNotFound, "POLICY_NOT_FOUND"},
	{ErrPolicyNotActive, "POLICY_NOT_ACTIVE"},
	{ErrAlreadyActive, "ALREADY_ACTIVE"},
	{ErrInsufficientPremium, "INSUFFICIENT_PREMIUM"},
	{ErrUnregisteredOracle, "UNREGISTERED_ORACLE"},
	{ErrSignatureVerificationFailed, "SIGNATURE_VERIFICATION_FAILED"},
	{ErrStaleData, "STALE_DATA"},
	{ErrNoValidOracleData, "NO_VALID_ORACLE_DATA"},
	{ErrNotTriggered, "NOT_TRIGGERED"},
	{ErrInvalidPayoutAmount, "INVALID_PAYOUT_AMOUNT"},
	{ErrInsufficientPoolBalance, "INSUFFICIENT_POOL_BALANCE"},
	{ErrAlreadyPaidOut, "ALREADY_PAID_OUT"},
	{ErrArithmeticOverflow, "ARITHMETIC_OVERFLOW"},
	{ErrInsufficientFunds, "INSUFFICIENT_FUNDS"},
}
