package enums

// PaymentMethod identifies how a checkout is paid.
type PaymentMethod string

const (
	PaymentMethodBalance        PaymentMethod = "balance"
	PaymentMethodCashOnDelivery PaymentMethod = "cod"
)

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodBalance, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}
