package repository

import (
	"context"
	"errors"
	"time"

	"order_of_ash/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const invoiceColumns = `id, tg_id, amount_nano, payment_url, status, error_kind,
	fragment_granted, created_at, settled_at`

type InvoiceRepository struct {
	db *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func scanInvoice(row pgx.Row) (*domain.BurnInvoice, error) {
	var inv domain.BurnInvoice
	err := row.Scan(&inv.ID, &inv.TgID, &inv.AmountNano, &inv.PaymentURL, &inv.Status,
		&inv.ErrorKind, &inv.FragmentGranted, &inv.CreatedAt, &inv.SettledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewError(domain.KindNotFound, "invoice not found")
		}
		return nil, err
	}
	return &inv, nil
}

// Create сохраняет новый инвойс в статусе pending
func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.BurnInvoice) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO burn_invoices (id, tg_id, amount_nano, payment_url, status)
		 VALUES ($1, $2, $3, $4, 'pending')
		 RETURNING created_at`,
		inv.ID, inv.TgID, inv.AmountNano, inv.PaymentURL,
	).Scan(&inv.CreatedAt)
}

// GetByID возвращает инвойс
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.BurnInvoice, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM burn_invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// MarkPaid переводит pending инвойс в paid и записывает выданный фрагмент.
// Возвращает false, если инвойс уже был завершен (защита от двойного зачисления).
func (r *InvoiceRepository) MarkPaid(ctx context.Context, id string, fragment *int, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE burn_invoices SET status = 'paid', fragment_granted = $2, settled_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, fragment, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkError переводит pending инвойс в error с кодом причины
func (r *InvoiceRepository) MarkError(ctx context.Context, id string, kind domain.ErrorKind, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE burn_invoices SET status = 'error', error_kind = $2, settled_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, string(kind), at)
	return err
}

// ListPending возвращает незавершенные инвойсы (для возобновления поллинга после рестарта)
func (r *InvoiceRepository) ListPending(ctx context.Context) ([]*domain.BurnInvoice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+invoiceColumns+` FROM burn_invoices WHERE status = 'pending' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*domain.BurnInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, inv)
	}
	return pending, rows.Err()
}

// CountBurns возвращает число оплаченных сжиганий (для админ бота)
func (r *InvoiceRepository) CountBurns(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM burn_invoices WHERE status = 'paid'`).Scan(&n)
	return n, err
}
