package antifraud

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "card-gateway/internal/domain/antifraud"
	"card-gateway/internal/infrastructure/config"
)

func newTestClient(serverURL string) *HTTPClient {
	return NewHTTPClient(&config.AntifraudConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestHTTPClient_CreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"order_id":"order-001"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ctx := context.Background()
	order, err := client.CreateOrder(ctx, &domain.OrderRequest{
		MerchantID:    "merchant-001",
		SecureID:      "secure-001",
		SecureService: "3ds",
		Currency:      "USD",
		TotalAmount:   100.0,
		CardBin:       "411111",
		CardLastFour:  "1111",
	})

	require.NoError(t, err)
	assert.Equal(t, "order-001", order.OrderID)
}

func TestHTTPClient_GetWorkflowStatus(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantError bool
		check     func(t *testing.T, got *domain.WorkflowResult)
	}{
		{
			name: "正常系: スコアとワークフロー履歴を復元",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/orders/order-001/workflows", r.URL.Path)
				w.Write([]byte(`{
					"scores": {"payment_abuse": {"score": 0.82}},
					"workflows": [
						{
							"name": "high-risk-review",
							"status": "finished",
							"history": [
								{"app": "decision", "name": "score-check", "config": {"decision_id": "dec-001"}},
								{"app": "stage", "name": "enqueue", "config": {}}
							]
						}
					]
				}`))
			},
			wantError: false,
			check: func(t *testing.T, got *domain.WorkflowResult) {
				assert.Equal(t, 0.82, got.Scores.PaymentAbuse)
				require.Len(t, got.Workflows, 1)
				wf := got.Workflows[0]
				assert.Equal(t, "high-risk-review", wf.Name)
				assert.Equal(t, domain.WorkflowStatusFinished, wf.Status)
				require.Len(t, wf.History, 2)
				assert.Equal(t, domain.HistoryAppDecision, wf.History[0].App)
				assert.Equal(t, "dec-001", wf.History[0].DecisionID)
				assert.Empty(t, wf.History[1].DecisionID)
			},
		},
		{
			name: "異常系: サービスエラー",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := newTestClient(server.URL)

			ctx := context.Background()
			got, err := client.GetWorkflowStatus(ctx, "order-001")

			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				tt.check(t, got)
			}
		})
	}
}

func TestHTTPClient_GetDecision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/decisions/dec-001", r.URL.Path)
		w.Write([]byte(`{"id":"dec-001","name":"card-testing-block","category":"block"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ctx := context.Background()
	decision, err := client.GetDecision(ctx, "dec-001")

	require.NoError(t, err)
	assert.Equal(t, "card-testing-block", decision.Name)
	assert.Equal(t, domain.CategoryBlock, decision.Category)
}
