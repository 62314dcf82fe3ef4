package domain

import "time"

// статусы burn-инвойса; переходы только pending -> paid | error
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusError   InvoiceStatus = "error"
)

// BurnInvoice — выставленный платежному бэкенду счет на сжигание
type BurnInvoice struct {
	ID         string        `db:"id" json:"invoiceId"`
	TgID       int64         `db:"tg_id" json:"tg_id"`
	AmountNano int64         `db:"amount_nano" json:"amount_nano"`
	PaymentURL string        `db:"payment_url" json:"paymentUrl"`
	Status     InvoiceStatus `db:"status" json:"status"`

	// код ошибки при статусе error (auth/transient)
	ErrorKind *string `db:"error_kind" json:"error_kind,omitempty"`

	// выданный фрагмент при оплате; null если все уже собраны
	FragmentGranted *int `db:"fragment_granted" json:"fragment,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	SettledAt *time.Time `db:"settled_at" json:"settled_at,omitempty"`
}

// Settled сообщает, завершен ли инвойс (повторный поллинг не нужен)
func (i *BurnInvoice) Settled() bool {
	return i.Status != InvoiceStatusPending
}
