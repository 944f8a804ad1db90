package payop

// RequestOrder carries the order fields of the outbound payment request.
// ID, Amount and Currency are the signed fields; Description is display-only.
type RequestOrder struct {
	ID          string `json:"id" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Description string `json:"description"`
}

// RequestCustomer identifies the buyer on the hosted payment page.
type RequestCustomer struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// Request is the signed JSON payload posted to the PayOp payment endpoint.
type Request struct {
	PublicKey string          `json:"publicKey" validate:"required"`
	Order     RequestOrder    `json:"order"`
	Customer  RequestCustomer `json:"customer"`
	Language  string          `json:"language"`
	ResultURL string          `json:"resultUrl" validate:"required,url"`
	FailURL   string          `json:"failUrl" validate:"required,url"`
	Signature string          `json:"signature" validate:"required,len=64,hexadecimal"`
}

// Response is the subset of the PayOp create-payment response the gateway
// interprets. A response without a redirect URL, or with a non-empty error
// list, is a rejection.
type Response struct {
	Data   ResponseData    `json:"data"`
	Errors []ResponseError `json:"errors"`
}

// ResponseData carries the accepted-invoice payload.
type ResponseData struct {
	RedirectURL string `json:"redirectUrl"`
}

// ResponseError is a single processor-side rejection reason.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Rejected reports whether the processor declined the request.
func (r Response) Rejected() bool {
	return len(r.Errors) > 0 || r.Data.RedirectURL == ""
}
