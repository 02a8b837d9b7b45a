package instruction

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"insurance-service/internal/models"
	"insurance-service/internal/services"
)

// Dispatcher routes decoded instructions to the owning service. It is the
// single entry point for operation frames arriving over the queue.
type Dispatcher struct {
	registryService *services.RegistryService
	policyService   *services.PolicyService
	oracleService   *services.OracleService
	triggerService  *services.TriggerService
	payoutService   *services.PayoutService
}

func NewDispatcher(
	registryService *services.RegistryService,
	policyService *services.PolicyService,
	oracleService *services.OracleService,
	triggerService *services.TriggerService,
	payoutService *services.PayoutService,
) *Dispatcher {
	return &Dispatcher{
		registryService: registryService,
		policyService:   policyService,
		oracleService:   oracleService,
		triggerService:  triggerService,
		payoutService:   payoutService,
	}
}

// Dispatch executes one instruction and returns its result payload, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, instr *Instruction) (any, error) {
	slog.Info("dispatching instruction", "selector", instr.Selector, "payload_bytes", len(instr.Payload))

	switch instr.Selector {
	case SelectorCrank:
		return nil, d.oracleService.Crank(ctx)

	case SelectorReadClimate:
		if instr.Accounts.Provider == "" {
			return nil, fmt.Errorf("read_climate requires a provider account")
		}
		return d.oracleService.ReadClimate(ctx, instr.Accounts.Provider)

	case SelectorInitState:
		if instr.Accounts.Executor == "" {
			return nil, fmt.Errorf("init_state requires an authority account")
		}
		return nil, d.registryService.Initialize(ctx, instr.Accounts.Executor)

	case SelectorInitOracle:
		if instr.Accounts.Provider == "" {
			return nil, fmt.Errorf("init_oracle requires a provider account")
		}
		oracleType, publicKey, err := DecodeInitOracle(instr.Payload)
		if err != nil {
			return nil, err
		}
		return d.oracleService.RegisterProvider(ctx, &models.RegisterOracleRequest{
			Provider:     instr.Accounts.Provider,
			OracleType:   oracleType,
			PublicKeyHex: hex.EncodeToString(publicKey),
		})

	case SelectorCreatePolicy:
		if instr.Accounts.Owner == "" {
			return nil, fmt.Errorf("create_policy requires an owner account")
		}
		req, err := DecodeCreatePolicy(instr.Payload)
		if err != nil {
			return nil, err
		}
		req.OracleSources = instr.Accounts.OracleSources
		return d.policyService.CreatePolicy(ctx, instr.Accounts.Owner, req)

	case SelectorEvalTrigger:
		if instr.Accounts.Owner == "" {
			return nil, fmt.Errorf("eval_trigger requires an owner account")
		}
		policyID, err := DecodeEvalTrigger(instr.Payload)
		if err != nil {
			return nil, err
		}
		return d.triggerService.EvaluateTrigger(ctx, instr.Accounts.Owner, policyID)

	case SelectorExecutePayout:
		if instr.Accounts.Owner == "" || instr.Accounts.Executor == "" {
			return nil, fmt.Errorf("execute_payout requires owner and executor accounts")
		}
		policyID, amount, err := DecodeExecutePayout(instr.Payload)
		if err != nil {
			return nil, err
		}
		return nil, d.payoutService.ExecutePayout(ctx, instr.Accounts.Executor, instr.Accounts.Owner, policyID, amount)

	default:
		return nil, fmt.Errorf("unknown instruction selector %d", instr.Selector)
	}
}
