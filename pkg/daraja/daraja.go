package daraja

import (
	"context"
	"encoding/json"
)

type STKRequest struct {
	PhoneNumber string
	Amount      string
	OrderID     string
	Description string
}

type STKResponse struct {
	MerchantRequestID   string          `json:"MerchantRequestID"`
	CheckoutRequestID   string          `json:"CheckoutRequestID"`
	ResponseCode        string          `json:"ResponseCode"`
	ResponseDescription string          `json:"ResponseDescription"`
	CustomerMessage     string          `json:"CustomerMessage"`
	Raw                 json.RawMessage `json:"-"`
}

// Provider is the outbound Daraja surface. Authenticate and STKPush are separate
// calls so their failures stay distinguishable: a failed token exchange is
// upstream unavailability, a rejected push is an upstream rejection.
type Provider interface {
	Authenticate(ctx context.Context) (string, error)
	STKPush(ctx context.Context, token string, req STKRequest) (*STKResponse, error)
}
