package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
	pvstore "github.com/xraph/provenance/store"
)

// compile-time interface check
var _ pvstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("provenance/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("provenance/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Participant Store ====================

func (s *Store) GetParticipant(ctx context.Context, who identity.Identity) (*participant.Participant, error) {
	m := new(participantModel)
	err := s.pg.NewSelect(m).
		Where("identity = $1", who.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, provenance.ErrParticipantNotFound
		}
		return nil, err
	}
	return fromParticipantModel(m), nil
}

func (s *Store) SaveParticipant(ctx context.Context, p *participant.Participant) error {
	m := toParticipantModel(p)
	_, err := s.pg.NewInsert(m).
		OnConflict("(identity) DO UPDATE").
		Set("authorized = EXCLUDED.authorized").
		Set("admin = EXCLUDED.admin").
		Set("authorized_at = EXCLUDED.authorized_at").
		Set("revoked_at = EXCLUDED.revoked_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) ListParticipants(ctx context.Context, opts participant.ListOpts) ([]*participant.Participant, error) {
	var models []participantModel
	q := s.pg.NewSelect(&models)

	if opts.AuthorizedOnly {
		q = q.Where("authorized = $1", true)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, identity ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*participant.Participant, len(models))
	for i := range models {
		result[i] = fromParticipantModel(&models[i])
	}
	return result, nil
}

// ==================== Product Store ====================

func (s *Store) CreateProduct(ctx context.Context, p *product.Product, first *product.HistoryEntry) error {
	if _, err := s.GetProduct(ctx, p.ProductID); err == nil {
		return fmt.Errorf("%w: %d", provenance.ErrDuplicateProduct, p.ProductID)
	} else if !errors.Is(err, provenance.ErrProductNotFound) {
		return err
	}

	if err := s.putHistory(ctx, first); err != nil {
		return fmt.Errorf("provenance/postgres: write history: %w", err)
	}

	res, err := s.pg.NewInsert(toProductModel(p)).
		OnConflict("(product_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/postgres: insert product: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", provenance.ErrDuplicateProduct, p.ProductID)
	}
	return nil
}

func (s *Store) AppendHistory(ctx context.Context, p *product.Product, e *product.HistoryEntry) error {
	if err := s.putHistory(ctx, e); err != nil {
		return fmt.Errorf("provenance/postgres: write history: %w", err)
	}
	return s.updateProduct(ctx, p)
}

func (s *Store) TransferProduct(ctx context.Context, p *product.Product, t *product.Transfer) error {
	_, err := s.pg.NewInsert(toTransferModel(t)).
		OnConflict("(product_id, seq) DO UPDATE").
		Set("id = EXCLUDED.id").
		Set("from_owner = EXCLUDED.from_owner").
		Set("to_owner = EXCLUDED.to_owner").
		Set("timestamp = EXCLUDED.timestamp").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/postgres: write transfer: %w", err)
	}
	return s.updateProduct(ctx, p)
}

func (s *Store) GetProduct(ctx context.Context, productID uint64) (*product.Product, error) {
	m := new(productModel)
	err := s.pg.NewSelect(m).
		Where("product_id = $1", toDBProductID(productID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, provenance.ErrProductNotFound
		}
		return nil, err
	}
	return fromProductModel(m), nil
}

func (s *Store) ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.Owner.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("current_owner = $%d", argIdx), opts.Owner.String())
	}
	if opts.Status != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("current_status = $%d", argIdx), int16(*opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr(productOrder)

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*product.Product, len(models))
	for i := range models {
		result[i] = fromProductModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListHistory(ctx context.Context, productID uint64) ([]*product.HistoryEntry, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var models []historyModel
	err = s.pg.NewSelect(&models).
		Where("product_id = $1", toDBProductID(productID)).
		Where("seq <= $2", p.HistoryCount).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*product.HistoryEntry, len(models))
	for i := range models {
		e, err := fromHistoryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) ListTransfers(ctx context.Context, productID uint64) ([]*product.Transfer, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var models []transferModel
	err = s.pg.NewSelect(&models).
		Where("product_id = $1", toDBProductID(productID)).
		Where("seq <= $2", p.TransferCount).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*product.Transfer, len(models))
	for i := range models {
		t, err := fromTransferModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

func (s *Store) CountProducts(ctx context.Context) (uint64, error) {
	var total int64
	err := s.pg.NewRaw(`SELECT COUNT(*) FROM provenance_products`).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return uint64(total), nil //nolint:gosec // COUNT is never negative
}

// ==================== Helpers ====================

// putHistory writes e at its seq, replacing an orphan left by an earlier
// write whose product update never landed.
func (s *Store) putHistory(ctx context.Context, e *product.HistoryEntry) error {
	_, err := s.pg.NewInsert(toHistoryModel(e)).
		OnConflict("(product_id, seq) DO UPDATE").
		Set("id = EXCLUDED.id").
		Set("status = EXCLUDED.status").
		Set("location = EXCLUDED.location").
		Set("actor = EXCLUDED.actor").
		Set("timestamp = EXCLUDED.timestamp").
		Exec(ctx)
	return err
}

// updateProduct is the commit point of every product mutation.
func (s *Store) updateProduct(ctx context.Context, p *product.Product) error {
	res, err := s.pg.NewUpdate(toProductModel(p)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/postgres: update product: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return provenance.ErrProductNotFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
