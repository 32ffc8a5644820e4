package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pesarelay/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogStore struct {
	entries chan *models.APILog
	err     error
}

func newMockLogStore() *mockLogStore {
	return &mockLogStore{entries: make(chan *models.APILog, 8)}
}

func (m *mockLogStore) Create(l *models.APILog) error {
	m.entries <- l
	return m.err
}

func (m *mockLogStore) wait(t *testing.T) *models.APILog {
	t.Helper()
	select {
	case e := <-m.entries:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry never written")
		return nil
	}
}

func newAuditRouter(store *mockLogStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(Audit(store))
	r.POST("/initiate-payment", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	r.POST("/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestAudit_RecordsExchange(t *testing.T) {
	store := newMockLogStore()
	r := newAuditRouter(store)

	body := `{"order_id":"ORD1"}`
	req := httptest.NewRequest(http.MethodPost, "/initiate-payment", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	entry := store.wait(t)
	assert.Equal(t, "/initiate-payment", entry.Endpoint)
	assert.Equal(t, body, entry.RequestPayload)
	assert.Equal(t, w.Body.String(), entry.ResponsePayload)
	assert.Equal(t, http.StatusOK, entry.StatusCode)
	assert.NotEmpty(t, entry.RequestID)
}

func TestAudit_RecordsFailureStatus(t *testing.T) {
	store := newMockLogStore()
	r := newAuditRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/fail", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	entry := store.wait(t)
	assert.Equal(t, http.StatusBadGateway, entry.StatusCode)
}

func TestAudit_HealthExempt(t *testing.T) {
	store := newMockLogStore()
	r := newAuditRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	select {
	case <-store.entries:
		t.Fatal("health check must not be audited")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAudit_WriteFailureDoesNotAffectResponse(t *testing.T) {
	store := newMockLogStore()
	store.err = errors.New("table locked")
	r := newAuditRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/initiate-payment", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
	store.wait(t)
}

func TestAudit_HandlerStillReadsBody(t *testing.T) {
	store := newMockLogStore()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(Audit(store))
	var seen string
	r.POST("/echo", func(c *gin.Context) {
		var in struct {
			Val string `json:"val"`
		}
		_ = c.ShouldBindJSON(&in)
		seen = in.Val
		c.String(http.StatusOK, in.Val)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"val":"x1"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "x1", seen, "request body must be replayable after capture")
	assert.Equal(t, "x1", w.Body.String())
	store.wait(t)
}
