package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/apperr"
	"github.com/Simplici0/sourcing/internal/metrics"
	"github.com/Simplici0/sourcing/internal/pricing"
)

var (
	// ErrLastVariant is returned when removing a product's only variant.
	ErrLastVariant = errors.New("a product keeps at least one variant")
	// ErrUnreadableVariants is returned when a change would overwrite a
	// stored variant list that could not be decoded.
	ErrUnreadableVariants = errors.New("stored variants could not be read; replace them with an explicit variant list")
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// Store persists products and settings in SQLite.
type Store struct {
	db       *sql.DB
	log      *zap.Logger
	recorder *metrics.Recorder
}

// NewStore creates a store on an already migrated database.
func NewStore(db *sql.DB, log *zap.Logger, recorder *metrics.Recorder) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log, recorder: recorder}
}

const productColumns = `
	id, name, unit_cost, unit_weight_kg, quantity, target_margin, ad_fraction,
	manual_price, competitor_price, dimensions, copy_text, note, sourcing_link,
	competitor_link, image_path, variants_json, suggested_price, final_price,
	hard_cost, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanProduct(row rowScanner) (Product, error) {
	var (
		p                      Product
		manual, competitor     float64
		dims, variantsJSON     string
		suggested, final, hard float64
		createdAt, updatedAt   string
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.UnitCost, &p.UnitWeightKg, &p.Quantity, &p.TargetMargin, &p.AdFraction,
		&manual, &competitor, &dims, &p.Copy, &p.Note, &p.SourcingLink,
		&p.CompetitorLink, &p.ImagePath, &variantsJSON, &suggested, &final,
		&hard, &createdAt, &updatedAt,
	); err != nil {
		return Product{}, err
	}

	p.ManualPrice = pricing.PriceFromWire(manual)
	p.CompetitorPrice = pricing.PriceFromWire(competitor)
	p.Summary = Summary{
		SuggestedPrice: decimal.NewFromFloat(suggested),
		FinalPrice:     decimal.NewFromFloat(final),
		HardCost:       decimal.NewFromFloat(hard),
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	if d, err := ParseDimensions(dims); err == nil {
		p.Dimensions = d
	} else {
		s.log.Warn("ignoring malformed dimensions", zap.Int64("product_id", p.ID), zap.Error(err))
		p.Warnings = append(p.Warnings, "stored dimensions are malformed and were ignored: "+err.Error())
	}

	variants, err := pricing.DecodeVariants(variantsJSON)
	if err != nil {
		s.log.Warn("ignoring malformed variants", zap.Int64("product_id", p.ID), zap.Error(err))
		s.recorder.RecordDecodeWarning()
		p.variantsUnreadable = true
		p.Warnings = append(p.Warnings, "stored variants are malformed and were ignored: "+err.Error())
	}
	p.Variants = variants

	return p, nil
}

// Create validates and inserts a product. A product created without
// variants is stored with its seed variant. Variants are stored resolved
// against the product, so unset fields are fixed at creation.
func (s *Store) Create(ctx context.Context, p Product) (Product, error) {
	if p.Quantity == 0 {
		p.Quantity = 1
	}
	if err := p.Validate(); err != nil {
		return Product{}, apperr.Input("invalid product", err)
	}
	if len(p.Variants) == 0 {
		p.Variants = []pricing.Variant{pricing.SeedVariant(p.Defaults())}
	}

	variantsJSON, err := pricing.EncodeVariants(p.Defaults().ResolveAll(p.Variants))
	if err != nil {
		return Product{}, apperr.Input("invalid variants", err)
	}

	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			name, unit_cost, unit_weight_kg, quantity, target_margin, ad_fraction,
			manual_price, competitor_price, dimensions, copy_text, note, sourcing_link,
			competitor_link, image_path, variants_json, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		strings.TrimSpace(p.Name), p.UnitCost, p.UnitWeightKg, p.Quantity, p.TargetMargin, p.AdFraction,
		p.ManualPrice.Wire(), p.CompetitorPrice.Wire(), p.Dimensions.String(), p.Copy, p.Note, p.SourcingLink,
		p.CompetitorLink, p.ImagePath, variantsJSON, now, now,
	)
	if err != nil {
		return Product{}, apperr.Internal("insert product", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Product{}, apperr.Internal("read product id", err)
	}
	return s.Get(ctx, id)
}

// Get loads one product.
func (s *Store) Get(ctx context.Context, id int64) (Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := s.scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, apperr.NotFound("product", id)
	}
	if err != nil {
		return Product{}, apperr.Internal("load product", err).WithContext("id", id)
	}
	return p, nil
}

// Update replaces every editable field of an existing product. Variants are
// replaced only when p carries some; otherwise the stored list is kept as
// is, readable or not. The summary snapshot is left alone; SaveSummary
// refreshes it.
func (s *Store) Update(ctx context.Context, p Product) (Product, error) {
	if p.Quantity == 0 {
		p.Quantity = 1
	}
	if err := p.Validate(); err != nil {
		return Product{}, apperr.Input("invalid product", err)
	}

	query := `
		UPDATE products SET
			name = ?, unit_cost = ?, unit_weight_kg = ?, quantity = ?, target_margin = ?, ad_fraction = ?,
			manual_price = ?, competitor_price = ?, dimensions = ?, copy_text = ?, note = ?, sourcing_link = ?,
			competitor_link = ?, image_path = ?, updated_at = ?`
	args := []any{
		strings.TrimSpace(p.Name), p.UnitCost, p.UnitWeightKg, p.Quantity, p.TargetMargin, p.AdFraction,
		p.ManualPrice.Wire(), p.CompetitorPrice.Wire(), p.Dimensions.String(), p.Copy, p.Note, p.SourcingLink,
		p.CompetitorLink, p.ImagePath, formatTime(time.Now()),
	}
	if len(p.Variants) > 0 {
		variantsJSON, err := pricing.EncodeVariants(p.Defaults().ResolveAll(p.Variants))
		if err != nil {
			return Product{}, apperr.Input("invalid variants", err)
		}
		query += `, variants_json = ?`
		args = append(args, variantsJSON)
	}
	query += ` WHERE id = ?`
	args = append(args, p.ID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Product{}, apperr.Internal("update product", err).WithContext("id", p.ID)
	}
	if err := requireRow(res, p.ID); err != nil {
		return Product{}, err
	}
	return s.Get(ctx, p.ID)
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return apperr.Internal("delete product", err).WithContext("id", id)
	}
	return requireRow(res, id)
}

// List returns products whose name or note contains query, newest first.
// An empty query lists everything.
func (s *Store) List(ctx context.Context, query string) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if term := strings.TrimSpace(query); term != "" {
		q += ` WHERE name LIKE ? ESCAPE '\' OR note LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(term) + "%"
		args = append(args, pattern, pattern)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Internal("list products", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := s.scanProduct(rows)
		if err != nil {
			return nil, apperr.Internal("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate products", err)
	}
	return products, nil
}

// AppendVariant adds NewVariant to the product. A product whose variants
// were never stored first gets its default variant. A product whose stored
// variants are unreadable is left untouched.
func (s *Store) AppendVariant(ctx context.Context, id int64) (Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if p.variantsUnreadable {
		return Product{}, apperr.Input("cannot append variant", ErrUnreadableVariants).WithContext("id", id)
	}
	if len(p.Variants) == 0 {
		p.Variants = []pricing.Variant{pricing.DefaultVariant(p.Defaults())}
	}
	p.Variants = append(p.Variants, p.NewVariant())
	return s.saveVariants(ctx, p)
}

// RemoveLastVariant drops the last variant. It refuses to remove the only one.
func (s *Store) RemoveLastVariant(ctx context.Context, id int64) (Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if len(p.Variants) <= 1 {
		return Product{}, apperr.Input("cannot remove variant", ErrLastVariant).WithContext("id", id)
	}
	p.Variants = p.Variants[:len(p.Variants)-1]
	return s.saveVariants(ctx, p)
}

func (s *Store) saveVariants(ctx context.Context, p Product) (Product, error) {
	variantsJSON, err := pricing.EncodeVariants(p.Variants)
	if err != nil {
		return Product{}, apperr.Internal("encode variants", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE products SET variants_json = ?, updated_at = ? WHERE id = ?`,
		variantsJSON, formatTime(time.Now()), p.ID)
	if err != nil {
		return Product{}, apperr.Internal("save variants", err).WithContext("id", p.ID)
	}
	if err := requireRow(res, p.ID); err != nil {
		return Product{}, err
	}
	return s.Get(ctx, p.ID)
}

// SaveSummary stores the snapshot of the product's first variant report.
func (s *Store) SaveSummary(ctx context.Context, id int64, reports []pricing.VariantReport) (Summary, error) {
	if len(reports) == 0 {
		return Summary{}, apperr.Input("no variant reports to summarize", nil)
	}
	sum := SummaryOf(reports[0].Report)

	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET suggested_price = ?, final_price = ?, hard_cost = ?
		WHERE id = ?
	`, sum.SuggestedPrice.InexactFloat64(), sum.FinalPrice.InexactFloat64(), sum.HardCost.InexactFloat64(), id)
	if err != nil {
		return Summary{}, apperr.Internal("save summary", err).WithContext("id", id)
	}
	if err := requireRow(res, id); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal("read affected rows", err)
	}
	if n == 0 {
		return apperr.NotFound("product", id)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
