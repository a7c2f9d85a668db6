package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/api/middleware"
	"github.com/haventrip/haventrip-backend/api/responses"
	"github.com/haventrip/haventrip-backend/api/validators"
	"github.com/haventrip/haventrip-backend/internal/wallets"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
	"github.com/haventrip/haventrip-backend/pkg/logger"
)

const (
	defaultEntryLimit = 50
	maxEntryLimit     = 200
)

type balanceResponse struct {
	OwnerID      uuid.UUID              `json:"owner_id"`
	Kind         enums.AccountKind      `json:"kind"`
	Namespace    enums.AccountNamespace `json:"namespace"`
	Currency     enums.Currency         `json:"currency"`
	BalanceCents int64                  `json:"balance_cents"`
}

type ledgerEntryResponse struct {
	EntryID           uuid.UUID             `json:"entry_id"`
	BookingID         *uuid.UUID            `json:"booking_id,omitempty"`
	Type              enums.LedgerEntryType `json:"type"`
	AmountCents       int64                 `json:"amount_cents"`
	BalanceAfterCents int64                 `json:"balance_after_cents"`
	Note              *string               `json:"note,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
}

// WalletBalance returns the caller's balance for one account, creating the
// account on first read so new users see a zero balance instead of a 404.
func WalletBalance(svc wallets.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		ref, err := accountRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.EnsureAccount(r.Context(), ref, currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balanceResponse{
			OwnerID:      account.OwnerID,
			Kind:         account.Kind,
			Namespace:    account.Namespace,
			Currency:     account.Currency,
			BalanceCents: account.BalanceCents,
		})
	}
}

// WalletEntries returns the most recent ledger entries for one of the
// caller's accounts, newest first.
func WalletEntries(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		ref, err := accountRefFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultEntryLimit, 1, maxEntryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Entries(r.Context(), ref, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]ledgerEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ledgerEntryResponse{
				EntryID:           entry.ID,
				BookingID:         entry.BookingID,
				Type:              entry.Type,
				AmountCents:       entry.AmountCents,
				BalanceAfterCents: entry.BalanceAfterCents,
				Note:              entry.Note,
				CreatedAt:         entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}

// accountRefFromRequest builds the account ref for the authenticated caller.
// Callers only ever read their own accounts; the platform account has no
// HTTP surface.
func accountRefFromRequest(r *http.Request) (wallets.AccountRef, error) {
	ownerID := middleware.UserUUIDFromContext(r.Context())
	if ownerID == uuid.Nil {
		return wallets.AccountRef{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}

	kind := enums.AccountKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if kind == "" {
		kind = enums.AccountKindGuest
	}
	if !kind.IsValid() || kind == enums.AccountKindPlatform {
		return wallets.AccountRef{}, pkgerrors.New(pkgerrors.CodeValidation, "kind must be guest or host")
	}

	namespace := enums.AccountNamespace(strings.TrimSpace(r.URL.Query().Get("namespace")))
	if namespace == "" {
		namespace = enums.AccountNamespaceWallet
	}
	if !namespace.IsValid() {
		return wallets.AccountRef{}, pkgerrors.New(pkgerrors.CodeValidation, "namespace must be wallet or points")
	}

	return wallets.AccountRef{OwnerID: ownerID, Kind: kind, Namespace: namespace}, nil
}
