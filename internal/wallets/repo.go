package wallets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haventrip/haventrip-backend/pkg/db"
	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/enums"
	pkgerrors "github.com/haventrip/haventrip-backend/pkg/errors"
)

// Repository manages wallet accounts and their append-only ledgers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAccount(ctx context.Context, account *models.WalletAccount) error
	GetAccount(ctx context.Context, ownerID uuid.UUID, kind enums.AccountKind, namespace enums.AccountNamespace) (*models.WalletAccount, error)
	GetAccountForUpdate(ctx context.Context, ownerID uuid.UUID, kind enums.AccountKind, namespace enums.AccountNamespace) (*models.WalletAccount, error)
	UpdateBalance(ctx context.Context, accountID uuid.UUID, balanceCents int64) error
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, accountID uuid.UUID, limit int) ([]models.LedgerEntry, error)
	SumEntries(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(database *gorm.DB) Repository {
	return &repository{db: database}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAccount(ctx context.Context, account *models.WalletAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) GetAccount(ctx context.Context, ownerID uuid.UUID, kind enums.AccountKind, namespace enums.AccountNamespace) (*models.WalletAccount, error) {
	return r.getAccount(ctx, ownerID, kind, namespace, false)
}

// GetAccountForUpdate reads the account with a row lock so balance_after can
// be computed from the locked value inside the same transaction.
func (r *repository) GetAccountForUpdate(ctx context.Context, ownerID uuid.UUID, kind enums.AccountKind, namespace enums.AccountNamespace) (*models.WalletAccount, error) {
	return r.getAccount(ctx, ownerID, kind, namespace, true)
}

func (r *repository) getAccount(ctx context.Context, ownerID uuid.UUID, kind enums.AccountKind, namespace enums.AccountNamespace, forUpdate bool) (*models.WalletAccount, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ? AND namespace = ?", ownerID, kind, namespace)
	if forUpdate {
		query = db.LockForUpdate(query)
	}

	var account models.WalletAccount
	err := query.First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet account not found")
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) UpdateBalance(ctx context.Context, accountID uuid.UUID, balanceCents int64) error {
	result := r.db.WithContext(ctx).Model(&models.WalletAccount{}).
		Where("id = ?", accountID).
		Update("balance_cents", balanceCents)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wallet account not found")
	}
	return nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntries(ctx context.Context, accountID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) SumEntries(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}
