package wallets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// AccountRef identifies one wallet or points account.
type AccountRef struct {
	OwnerID   uuid.UUID
	Kind      enums.AccountKind
	Namespace enums.AccountNamespace
}

// MovementInput is one signed ledger movement. AmountCents is always the
// positive magnitude; Credit and Debit set the sign.
type MovementInput struct {
	Account     AccountRef
	AmountCents int64
	Type        enums.LedgerEntryType
	BookingID   *uuid.UUID
	Note        *string
}

// Service moves money and points through per-account append-only ledgers.
// Credit and Debit must run inside the caller's settlement transaction.
type Service interface {
	EnsureAccount(ctx context.Context, ref AccountRef, currency enums.Currency) (*models.WalletAccount, error)
	Balance(ctx context.Context, ref AccountRef) (*models.WalletAccount, error)
	Entries(ctx context.Context, ref AccountRef, limit int) ([]models.LedgerEntry, error)
	Credit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.LedgerEntry, error)
	Debit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// NewService wires the wallet service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

// EnsureAccount returns the account for the ref, creating a zero-balance one
// on first use.
func (s *service) EnsureAccount(ctx context.Context, ref AccountRef, currency enums.Currency) (*models.WalletAccount, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	account, err := s.repo.GetAccount(ctx, ref.OwnerID, ref.Kind, ref.Namespace)
	if err == nil {
		return account, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	created := &models.WalletAccount{
		ID:        uuid.New(),
		OwnerID:   ref.OwnerID,
		Kind:      ref.Kind,
		Namespace: ref.Namespace,
		Currency:  currency,
	}
	if err := s.repo.CreateAccount(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Balance(ctx context.Context, ref AccountRef) (*models.WalletAccount, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	return s.repo.GetAccount(ctx, ref.OwnerID, ref.Kind, ref.Namespace)
}

func (s *service) Entries(ctx context.Context, ref AccountRef, limit int) ([]models.LedgerEntry, error) {
	account, err := s.Balance(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, account.ID, limit)
}

// Credit adds the amount to the account balance inside tx.
func (s *service) Credit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.LedgerEntry, error) {
	return s.move(ctx, tx, input, input.AmountCents)
}

// Debit removes the amount from the account balance inside tx, failing with
// InsufficientFunds when the locked balance cannot cover it.
func (s *service) Debit(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.LedgerEntry, error) {
	return s.move(ctx, tx, input, -input.AmountCents)
}

func (s *service) move(ctx context.Context, tx *gorm.DB, input MovementInput, deltaCents int64) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger movement requires a transaction")
	}
	if err := validateRef(input.Account); err != nil {
		return nil, err
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", input.Type))
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.GetAccountForUpdate(ctx, input.Account.OwnerID, input.Account.Kind, input.Account.Namespace)
	if err != nil {
		return nil, err
	}

	balanceAfter := account.BalanceCents + deltaCents
	if balanceAfter < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "balance too low")
	}

	entry := &models.LedgerEntry{
		ID:                uuid.New(),
		AccountID:         account.ID,
		BookingID:         input.BookingID,
		Type:              input.Type,
		AmountCents:       deltaCents,
		BalanceAfterCents: balanceAfter,
		Note:              input.Note,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := repo.UpdateBalance(ctx, account.ID, balanceAfter); err != nil {
		return nil, err
	}
	return entry, nil
}

func validateRef(ref AccountRef) error {
	if ref.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account owner is required")
	}
	if !ref.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid account kind %q", ref.Kind))
	}
	if !ref.Namespace.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid account namespace %q", ref.Namespace))
	}
	return nil
}
