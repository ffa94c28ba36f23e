package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"robokassa/internal/logger"
	"robokassa/payment"
	"robokassa/signature"
)

// Settler applies a verified result notification to the shop's orders.
type Settler interface {
	Settle(ctx context.Context, n *payment.Notification) error
}

// SettlerFunc adapts a function to Settler.
type SettlerFunc func(ctx context.Context, n *payment.Notification) error

func (f SettlerFunc) Settle(ctx context.Context, n *payment.Notification) error { return f(ctx, n) }

// SignatureVerifier is satisfied by *payment.Verifier.
type SignatureVerifier interface {
	SuccessOrFailValid(claimed string, outSum signature.Amount, invID string, extra signature.Params) bool
	ResultValid(claimed string, outSum signature.Amount, invID string, extra signature.Params) bool
}

type Config struct {
	// Prefix of the echoed merchant fields, shp by default.
	Prefix string
	// Where to send the buyer after verification. Empty answers with text.
	SuccessRedirect string
	FailRedirect    string
}

type Handler struct {
	Verifier SignatureVerifier
	Settler  Settler
	// Repo is optional. Without it duplicate result callbacks are settled again.
	Repo   payment.Repository
	Config Config
}

func NewWebhookHandler(verifier SignatureVerifier, settler Settler, repo payment.Repository, cfg Config) *Handler {
	if cfg.Prefix == "" {
		cfg.Prefix = payment.DefaultPrefix
	}
	return &Handler{
		Verifier: verifier,
		Settler:  settler,
		Repo:     repo,
		Config:   cfg,
	}
}

// ResultHandler serves ResultURL. The gateway retries until it reads OK{InvId}.
func (h *Handler) ResultHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	n, payload, err := h.parse(r, payment.KindResult)
	if err != nil {
		log.Warn("Invalid result notification", zap.Error(err))
		http.Error(w, "invalid notification", http.StatusBadRequest)
		return
	}
	log = log.With(zap.String("inv_id", n.InvID), zap.String("out_sum", n.OutSum.String()))

	valid := h.Verifier.ResultValid(n.SignatureValue, n.OutSum, n.InvID, n.Extra)

	var (
		notificationID int64
		isDuplicate    bool
	)
	if h.Repo != nil {
		notificationID, isDuplicate, err = h.Repo.SaveNotification(ctx, n, payload, valid)
		if errors.Is(err, payment.ErrNotificationInProgress) && valid {
			log.Info("Result notification is being settled by another request")
			http.Error(w, "notification in progress", http.StatusConflict)
			return
		}
		if err != nil && !errors.Is(err, payment.ErrNotificationInProgress) {
			log.Error("Failed to save notification", zap.Error(err))
			http.Error(w, "failed to save notification", http.StatusInternalServerError)
			return
		}
	}

	if !valid {
		log.Warn("Result notification signature mismatch")
		http.Error(w, "bad sign", http.StatusBadRequest)
		return
	}

	if isDuplicate {
		log.Info("Duplicate result notification, already settled")
		writeOK(w, n.InvID)
		return
	}

	if err := h.Settler.Settle(ctx, n); err != nil {
		log.Error("Failed to settle payment", zap.Error(err))
		if h.Repo != nil {
			if markErr := h.Repo.MarkFailed(ctx, notificationID, err.Error()); markErr != nil {
				log.Error("Failed to mark notification failed", zap.Error(markErr))
			}
		}
		http.Error(w, "failed to settle payment", http.StatusInternalServerError)
		return
	}

	if h.Repo != nil {
		if err := h.Repo.MarkProcessed(ctx, notificationID); err != nil {
			log.Error("Failed to mark notification processed", zap.Error(err))
		}
	}

	log.Info("Payment settled")
	writeOK(w, n.InvID)
}

// SuccessHandler serves SuccessURL, the buyer redirect after payment.
func (h *Handler) SuccessHandler(w http.ResponseWriter, r *http.Request) {
	h.redirectHandler(w, r, payment.KindSuccess, h.Config.SuccessRedirect, "Thank you for using service!")
}

// FailHandler serves FailURL, the buyer redirect after a refused payment.
func (h *Handler) FailHandler(w http.ResponseWriter, r *http.Request) {
	h.redirectHandler(w, r, payment.KindFail, h.Config.FailRedirect, "Payment was not completed")
}

func (h *Handler) redirectHandler(w http.ResponseWriter, r *http.Request, kind payment.NotificationKind, target, text string) {
	log := logger.FromCtx(r.Context())

	n, _, err := h.parse(r, kind)
	if err != nil {
		log.Warn("Invalid redirect notification", zap.String("kind", string(kind)), zap.Error(err))
		http.Error(w, "invalid notification", http.StatusBadRequest)
		return
	}

	if !h.Verifier.SuccessOrFailValid(n.SignatureValue, n.OutSum, n.InvID, n.Extra) {
		log.Warn("Redirect signature mismatch", zap.String("kind", string(kind)), zap.String("inv_id", n.InvID))
		http.Error(w, "bad sign", http.StatusBadRequest)
		return
	}

	log.Info("Buyer returned", zap.String("kind", string(kind)), zap.String("inv_id", n.InvID))

	if target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, text)
}

func (h *Handler) parse(r *http.Request, kind payment.NotificationKind) (*payment.Notification, json.RawMessage, error) {
	if err := r.ParseForm(); err != nil {
		return nil, nil, err
	}
	n, err := payment.ParseNotification(kind, r.Form, h.Config.Prefix)
	if err != nil {
		return nil, nil, err
	}
	payload, err := json.Marshal(r.Form)
	if err != nil {
		return nil, nil, err
	}
	return n, payload, nil
}

func writeOK(w http.ResponseWriter, invID string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK"+invID)
}
