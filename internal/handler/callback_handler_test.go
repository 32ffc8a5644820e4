package handler

import (
	"net/http"
	"testing"

	"pesarelay/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusUpdate struct {
	transactionID string
	status        string
	receipt       *string
}

type mockFinalizer struct {
	updateFunc func(transactionID, status string, receipt *string) error
	updates    []statusUpdate
}

func (m *mockFinalizer) UpdateStatus(transactionID, status string, receipt *string) error {
	if m.updateFunc != nil {
		if err := m.updateFunc(transactionID, status, receipt); err != nil {
			return err
		}
	}
	m.updates = append(m.updates, statusUpdate{transactionID, status, receipt})
	return nil
}

func newCallbackRouter(store TransactionFinalizer) *gin.Engine {
	r := gin.New()
	r.POST("/callback", NewCallbackHandler(store).Handle)
	return r
}

func TestCallback_SuccessResultCode(t *testing.T) {
	store := &mockFinalizer{}
	body := `{"ResultCode":"0","CheckoutRequestID":"ws_1","MpesaReceiptNumber":"R1"}`
	w := postJSON(t, newCallbackRouter(store), "/callback", body)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.updates, 1)
	u := store.updates[0]
	assert.Equal(t, "ws_1", u.transactionID)
	assert.Equal(t, domain.StatusSuccess, u.status)
	require.NotNil(t, u.receipt)
	assert.Equal(t, "R1", *u.receipt)
}

func TestCallback_NonZeroResultCodeIsFailed(t *testing.T) {
	store := &mockFinalizer{}
	body := `{"ResultCode":"1032","CheckoutRequestID":"ws_1"}`
	w := postJSON(t, newCallbackRouter(store), "/callback", body)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.updates, 1)
	u := store.updates[0]
	assert.Equal(t, domain.StatusFailed, u.status)
	assert.Nil(t, u.receipt, "no receipt on a failed payment")
}

func TestCallback_NumericResultCode(t *testing.T) {
	store := &mockFinalizer{}
	body := `{"ResultCode":0,"CheckoutRequestID":"ws_1","MpesaReceiptNumber":"R2"}`
	w := postJSON(t, newCallbackRouter(store), "/callback", body)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.updates, 1)
	assert.Equal(t, domain.StatusSuccess, store.updates[0].status)
}

func TestCallback_DarajaEnvelope(t *testing.T) {
	store := &mockFinalizer{}
	body := `{"Body":{"stkCallback":{
		"MerchantRequestID":"29115-34620561-1",
		"CheckoutRequestID":"ws_CO_191220191020363925",
		"ResultCode":0,
		"ResultDesc":"The service request is processed successfully.",
		"CallbackMetadata":{"Item":[
			{"Name":"Amount","Value":100.00},
			{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},
			{"Name":"PhoneNumber","Value":254712345678}
		]}}}}`
	w := postJSON(t, newCallbackRouter(store), "/callback", body)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.updates, 1)
	u := store.updates[0]
	assert.Equal(t, "ws_CO_191220191020363925", u.transactionID)
	assert.Equal(t, domain.StatusSuccess, u.status)
	require.NotNil(t, u.receipt)
	assert.Equal(t, "NLJ7RT61SV", *u.receipt)
}

func TestCallback_MissingFieldsIs400(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no checkout id", `{"ResultCode":"0"}`},
		{"no result code", `{"CheckoutRequestID":"ws_1"}`},
		{"empty body", `{}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockFinalizer{}
			w := postJSON(t, newCallbackRouter(store), "/callback", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, store.updates, "no mutation on invalid callback")
		})
	}
}

func TestCallback_UnknownTransactionIs404(t *testing.T) {
	store := &mockFinalizer{
		updateFunc: func(string, string, *string) error { return domain.ErrTransactionNotFound },
	}
	body := `{"ResultCode":"0","CheckoutRequestID":"ws_missing"}`
	w := postJSON(t, newCallbackRouter(store), "/callback", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallback_StoreFailureIs500(t *testing.T) {
	store := &mockFinalizer{
		updateFunc: func(string, string, *string) error { return assert.AnError },
	}
	body := `{"ResultCode":"0","CheckoutRequestID":"ws_1"}`
	w := postJSON(t, newCallbackRouter(store), "/callback", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCallback_RedeliveryReappliesSameValues(t *testing.T) {
	store := &mockFinalizer{}
	r := newCallbackRouter(store)
	body := `{"ResultCode":"0","CheckoutRequestID":"ws_1","MpesaReceiptNumber":"R1"}`

	w1 := postJSON(t, r, "/callback", body)
	w2 := postJSON(t, r, "/callback", body)

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, http.StatusOK, w2.Code)
	require.Len(t, store.updates, 2)
	assert.Equal(t, store.updates[0], store.updates[1])
}
