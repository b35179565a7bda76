package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/participant"
	"github.com/xraph/provenance/product"
	pvstore "github.com/xraph/provenance/store"
)

// Collection name constants.
const (
	colParticipants = "provenance_participants"
	colProducts     = "provenance_products"
	colHistory      = "provenance_history"
	colTransfers    = "provenance_transfers"
)

// compile-time interface check
var _ pvstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all provenance collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("provenance/mongo: migrate %s indexes: %w", col, err)
		}
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
	var m participantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": who.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, provenance.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("provenance/mongo: get participant: %w", err)
	}
	return fromParticipantModel(&m), nil
}

func (s *Store) SaveParticipant(ctx context.Context, p *participant.Participant) error {
	m := toParticipantModel(p)

	set := bson.M{
		"authorized": m.Authorized,
		"admin":      m.Admin,
		"created_at": m.CreatedAt,
		"updated_at": m.UpdatedAt,
	}
	unset := bson.M{}
	if m.AuthorizedAt != nil {
		set["authorized_at"] = *m.AuthorizedAt
	} else {
		unset["authorized_at"] = ""
	}
	if m.RevokedAt != nil {
		set["revoked_at"] = *m.RevokedAt
	} else {
		unset["revoked_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Identity}).
		SetUpdate(update).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: save participant: %w", err)
	}
	return nil
}

func (s *Store) ListParticipants(ctx context.Context, opts participant.ListOpts) ([]*participant.Participant, error) {
	var models []participantModel

	filter := bson.M{}
	if opts.AuthorizedOnly {
		filter["authorized"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("provenance/mongo: list participants: %w", err)
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
		return err
	}

	_, err := s.mdb.NewInsert(toProductModel(p)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %d", provenance.ErrDuplicateProduct, p.ProductID)
		}
		return fmt.Errorf("provenance/mongo: create product: %w", err)
	}
	return nil
}

func (s *Store) AppendHistory(ctx context.Context, p *product.Product, e *product.HistoryEntry) error {
	if err := s.putHistory(ctx, e); err != nil {
		return err
	}
	return s.updateProduct(ctx, p)
}

func (s *Store) TransferProduct(ctx context.Context, p *product.Product, t *product.Transfer) error {
	m := toTransferModel(t)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"product_id": m.ProductID, "seq": m.Seq}).
		SetUpdate(bson.M{"$set": bson.M{
			"transfer_id": m.ID,
			"product_id":  m.ProductID,
			"seq":         m.Seq,
			"from_owner":  m.FromOwner,
			"to_owner":    m.ToOwner,
			"timestamp":   m.Timestamp,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: write transfer: %w", err)
	}
	return s.updateProduct(ctx, p)
}

func (s *Store) GetProduct(ctx context.Context, productID uint64) (*product.Product, error) {
	var m productModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": toDBProductID(productID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, provenance.ErrProductNotFound
		}
		return nil, fmt.Errorf("provenance/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error) {
	var models []productModel

	filter := bson.M{}
	if !opts.Owner.IsZero() {
		filter["current_owner"] = opts.Owner.String()
	}
	if opts.Status != nil {
		filter["current_status"] = int32(*opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "high", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("provenance/mongo: list products: %w", err)
	}

	result := make([]*product.Product, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) ListHistory(ctx context.Context, productID uint64) ([]*product.HistoryEntry, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var models []historyModel
	err = s.mdb.NewFind(&models).
		Filter(bson.M{
			"product_id": toDBProductID(productID),
			"seq":        bson.M{"$lte": p.HistoryCount},
		}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("provenance/mongo: list history: %w", err)
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
	err = s.mdb.NewFind(&models).
		Filter(bson.M{
			"product_id": toDBProductID(productID),
			"seq":        bson.M{"$lte": p.TransferCount},
		}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("provenance/mongo: list transfers: %w", err)
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
	n, err := s.mdb.Collection(colProducts).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("provenance/mongo: count products: %w", err)
	}
	return uint64(n), nil //nolint:gosec // a count is never negative
}

// ==================== Helpers ====================

// putHistory upserts e at its seq so an orphan left by an interrupted
// write is replaced.
func (s *Store) putHistory(ctx context.Context, e *product.HistoryEntry) error {
	m := toHistoryModel(e)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"product_id": m.ProductID, "seq": m.Seq}).
		SetUpdate(bson.M{"$set": bson.M{
			"entry_id":   m.ID,
			"product_id": m.ProductID,
			"seq":        m.Seq,
			"status":     m.Status,
			"location":   m.Location,
			"actor":      m.Actor,
			"timestamp":  m.Timestamp,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: write history: %w", err)
	}
	return nil
}

// updateProduct is the commit point of every product mutation.
func (s *Store) updateProduct(ctx context.Context, p *product.Product) error {
	m := toProductModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ProductID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("provenance/mongo: update product: %w", err)
	}
	if res.MatchedCount() == 0 {
		return provenance.ErrProductNotFound
	}
	return nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all provenance collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colParticipants: {
			{Keys: bson.D{{Key: "authorized", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "current_owner", Value: 1}}},
			{Keys: bson.D{{Key: "current_status", Value: 1}}},
			{Keys: bson.D{{Key: "high", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colHistory: {
			{
				Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colTransfers: {
			{
				Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
