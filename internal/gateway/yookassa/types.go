package yookassa

// Amount is a monetary value as the gateway expects it: a decimal string with
// two fractional digits and an ISO 4217 currency code.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Confirmation describes how the customer confirms a payment. Requests carry
// Type and ReturnURL; responses add ConfirmationURL.
type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// Customer identifies the receipt recipient.
type Customer struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// ReceiptItem is one fiscal receipt line.
type ReceiptItem struct {
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	Amount         Amount `json:"amount"`
	VatCode        int    `json:"vat_code"`
	PaymentMode    string `json:"payment_mode,omitempty"`
	PaymentSubject string `json:"payment_subject,omitempty"`
}

// Receipt is the fiscal receipt attached to a payment.
type Receipt struct {
	Customer Customer      `json:"customer"`
	Items    []ReceiptItem `json:"items"`
}

// PaymentRequest is the body of POST /payments.
type PaymentRequest struct {
	Amount       Amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
	Description  string            `json:"description,omitempty"`
	Receipt      *Receipt          `json:"receipt,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Payment is the gateway's payment object.
type Payment struct {
	ID            string            `json:"id"`
	GatewayStatus string            `json:"status"`
	Paid          bool              `json:"paid"`
	Amount        Amount            `json:"amount"`
	Confirmation  *Confirmation     `json:"confirmation,omitempty"`
	Description   string            `json:"description,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ConfirmationURL returns the redirect URL, or "" when the gateway sent none.
func (p *Payment) ConfirmationURL() string {
	if p == nil || p.Confirmation == nil {
		return ""
	}
	return p.Confirmation.ConfirmationURL
}

// Status is the local view of a payment's lifecycle.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Status maps the gateway status onto pending, paid, or failed.
func (p *Payment) Status() Status {
	switch {
	case p.Paid || p.GatewayStatus == "succeeded":
		return StatusPaid
	case p.GatewayStatus == "canceled":
		return StatusFailed
	default:
		return StatusPending
	}
}
