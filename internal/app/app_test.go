package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/checkout"
	"github.com/xenking/kart-checkout/internal/handler"
	"github.com/xenking/kart-checkout/pkg/health"
)

func writeBlocklist(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocked.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	h := health.New()

	orders, closeStore, err := newOrderStore(ctx, "", h)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	gateway, err := newGateway(ctx, PaymentConfig{
		Provider:       ProviderSandbox,
		BlocklistFiles: []string{writeBlocklist(t, "tok_stolen")},
	})
	require.NoError(t, err)

	notifier, err := newNotifier(ctx, SMTPConfig{})
	require.NoError(t, err)

	svc, err := checkout.NewService(gateway, orders, notifier)
	require.NoError(t, err)

	h.SetReady(true)
	srv := httptest.NewServer(newRouter(zap.NewNop(), h, handler.NewHandler(svc)))
	t.Cleanup(srv.Close)
	return srv
}

func postCheckout(t *testing.T, srv *httptest.Server, tier, instrument string) (int, map[string]any) {
	t.Helper()
	body := `{"user":{"id":1,"name":"Ana","email":"ana@example.com","tier":"` + tier + `"},` +
		`"items":[{"name":"Monitor","price":"150.00"},{"name":"Cable","price":"50.00"}],` +
		`"instrument":"` + instrument + `"}`

	resp, err := http.Post(srv.URL+"/api/checkout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)

	code, out := postCheckout(t, srv, "premium", "tok_visa")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "ORD-000001", out["id"])
	assert.Equal(t, "processed", out["status"])
	assert.InDelta(t, 180.0, out["finalTotal"], 0.001)
	assert.InDelta(t, 200.0, out["total"], 0.001)

	code, out = postCheckout(t, srv, "standard", "tok_visa")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "ORD-000002", out["id"])
	assert.InDelta(t, 200.0, out["finalTotal"], 0.001)

	code, out = postCheckout(t, srv, "standard", "tok_declined")
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "payment declined", out["message"])

	code, _ = postCheckout(t, srv, "premium", "tok_stolen")
	assert.Equal(t, http.StatusPaymentRequired, code)

	// Declines do not consume order numbers.
	code, out = postCheckout(t, srv, "standard", "tok_mastercard")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "ORD-000003", out["id"])
}

func TestProbes(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), path)
	}
}

func TestNewGateway_Errors(t *testing.T) {
	_, err := newGateway(context.Background(), PaymentConfig{Provider: "paypal"})
	require.Error(t, err)

	_, err = newGateway(context.Background(), PaymentConfig{
		Provider:       ProviderSandbox,
		BlocklistFiles: []string{filepath.Join(t.TempDir(), "missing.gz")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load instrument blocklist")
}

func TestNewGateway_Stripe(t *testing.T) {
	g, err := newGateway(context.Background(), PaymentConfig{Provider: ProviderStripe, StripeKey: "sk_test"})
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestNewNotifier_SMTP(t *testing.T) {
	n, err := newNotifier(context.Background(), SMTPConfig{Host: "localhost", Port: "1025", From: "shop@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, n)

	_, err = newNotifier(context.Background(), SMTPConfig{Host: "localhost"})
	require.Error(t, err)
}
