package payment

import "strings"

var InstructionMap = map[Method][]string{
	MethodCash: {
		"Pay {{amount}} at the counter",
		"Quote transaction {{transaction_id}} to the cashier",
		"Keep the printed receipt until your order is served",
	},
	MethodCard: {
		"Enter your card number, expiry date and CVV",
		"Complete the one-time password check from your bank",
		"Wait until the charge of {{amount}} is confirmed",
	},
	MethodUPI: {
		"Open any UPI app on your phone",
		"Approve the collect request for {{amount}}",
		"Use {{transaction_id}} as the payment reference if asked",
	},
	MethodNetBanking: {
		"Choose your bank on the payment page",
		"Log in to net banking and approve {{amount}}",
		"Do not close the page until you are redirected back",
	},
	MethodWallet: {
		"Choose your wallet on the payment page",
		"Confirm the payment of {{amount}} in the wallet app",
	},
}

// GetInstructions returns the customer-facing steps for method.
func GetInstructions(method Method) []string {
	if steps, ok := InstructionMap[method]; ok {
		return steps
	}

	return []string{
		"Follow the payment instructions shown on this page",
	}
}

type InstructionVars map[string]string

func InjectVariables(
	steps []string,
	vars InstructionVars,
) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(
				updated,
				"{{"+key+"}}",
				value,
			)
		}
		result = append(result, updated)
	}

	return result
}

// InstructionsFor renders the steps for p with its amount and transaction id.
func InstructionsFor(p *Payment) []string {
	return InjectVariables(GetInstructions(p.Method), InstructionVars{
		"amount":         p.Amount.StringFixed(2),
		"transaction_id": p.TransactionID,
	})
}
