// Package waitlist manages restock notification lists per variant.
package waitlist

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/mailer"
	"github.com/stockpilot/stockpilot/internal/observability"
)

// StorePort abstracts the durable store for waitlist entries.
type StorePort interface {
	ListPush(ctx context.Context, key string, values ...string) error
	ListDrain(ctx context.Context, key string) ([]string, error)
}

// SenderPort abstracts the email capability.
type SenderPort interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Notifier drains and notifies a variant's waitlist on restock.
type Notifier struct {
	store         StorePort
	sender        SenderPort
	storefrontURL string
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewNotifier builds a Notifier.
func NewNotifier(store StorePort, sender SenderPort, storefrontURL string, logger *slog.Logger, metrics *observability.Metrics) *Notifier {
	return &Notifier{store: store, sender: sender, storefrontURL: storefrontURL, logger: logger, metrics: metrics}
}

// Key returns the store key holding the waitlist for a variant.
func Key(variantID string) string {
	return "waitlist:" + variantID
}

// NotifyRestock sends one message to every waiting customer and retires
// the list. Entries are removed atomically before the send so two
// concurrent restock deliveries cannot both notify the same list; a
// failed send pushes the entries back so a later delivery can retry.
func (n *Notifier) NotifyRestock(ctx context.Context, v catalog.Variant, available int) error {
	if available <= 0 {
		return nil
	}

	entries, err := n.store.ListDrain(ctx, Key(v.ID))
	if err != nil {
		return fmt.Errorf("waitlist: drain: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	recipients := dedupe(entries)
	msg := n.buildMessage(v, recipients)
	if err := n.sender.Send(ctx, msg); err != nil {
		if restoreErr := n.store.ListPush(ctx, Key(v.ID), entries...); restoreErr != nil {
			n.logger.Error("waitlist restore failed, entries lost",
				slog.String("variant_id", v.ID),
				slog.Int("entries", len(entries)),
				slog.Any("error", restoreErr))
		}
		return fmt.Errorf("waitlist: send notification: %w", err)
	}

	n.metrics.ObserveNotification()
	n.logger.Info("restock notification sent",
		slog.String("variant_id", v.ID),
		slog.String("sku", v.SKU),
		slog.Int("recipients", len(recipients)))
	return nil
}

// dedupe collapses repeated emails, preserving first-seen order.
func dedupe(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		addr := strings.ToLower(strings.TrimSpace(e))
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

func (n *Notifier) buildMessage(v catalog.Variant, recipients []string) mailer.Message {
	link := fmt.Sprintf("%s/variants/%s", strings.TrimRight(n.storefrontURL, "/"), url.PathEscape(v.ID))

	image := v.ImageURL
	if image == "" {
		image = v.ProductImageURL
	}

	var b strings.Builder
	b.WriteString("<h2>" + html.EscapeString(v.ProductTitle) + "</h2>")
	if v.Title != "" {
		b.WriteString("<p>" + html.EscapeString(v.Title) + " is back in stock.</p>")
	} else {
		b.WriteString("<p>Back in stock.</p>")
	}
	if image != "" {
		b.WriteString(fmt.Sprintf(`<img src=%q alt=%q width="300"/>`, image, v.ProductTitle))
	}
	b.WriteString(fmt.Sprintf(`<p><a href=%q>Buy now</a></p>`, link))

	return mailer.Message{
		To:      recipients,
		Subject: fmt.Sprintf("Back in stock: %s", v.ProductTitle),
		HTML:    b.String(),
		Text:    fmt.Sprintf("%s is back in stock: %s", v.ProductTitle, link),
	}
}
