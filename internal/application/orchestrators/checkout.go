package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/metrics"
)

// CheckoutLinker resolves a product to a hosted checkout URL.
type CheckoutLinker interface {
	LinkFor(ctx context.Context, productID string) (string, error)
}

// CheckoutDeps holds dependencies for CheckoutLink. A nil Linker means
// online checkout is not configured.
type CheckoutDeps struct {
	Linker CheckoutLinker
}

// ExecuteCheckoutLink returns the checkout URL for productID.
// POST: *apperr.UnconfiguredError when no linker is configured,
// *apperr.UpstreamUnavailableError when the provider fails
func ExecuteCheckoutLink(ctx context.Context, productID string, deps CheckoutDeps) (string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return "", apperr.Validation("productId", "is required")
	}
	if deps.Linker == nil {
		metrics.CheckoutLookupsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return "", &apperr.UnconfiguredError{Service: "checkout"}
	}
	url, err := deps.Linker.LinkFor(ctx, productID)
	if err != nil {
		metrics.CheckoutLookupsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		slog.Error("checkout_event", "event", "checkout_lookup_failed", "product_id", productID, "error", err)
		if apperr.KindOf(err) == apperr.KindInternal {
			return "", &apperr.UpstreamUnavailableError{Service: "checkout", Err: err}
		}
		return "", err
	}
	metrics.CheckoutLookupsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return url, nil
}

// CheckoutFallbackMessage is shown when online checkout cannot proceed.
func CheckoutFallbackMessage(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return "Online checkout is unavailable right now. Please call us to register."
	}
	return "Online checkout is unavailable right now. Please call us at " + phone + " to register."
}
