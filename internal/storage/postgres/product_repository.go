package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const productColumns = `id, name, price, is_active, is_deleted, version, created_at, created_by, modified_at, modified_by`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (
			name, price, is_active, is_deleted, version,
			created_at, created_by, modified_at, modified_by
		) VALUES ($1, $2, $3, FALSE, 1, $4, $5, $4, $6)
		RETURNING id
	`,
		product.Name, product.Price, product.IsActive,
		product.CreatedAt, product.CreatedBy, product.ModifiedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	return id, nil
}

func (r *productRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND is_deleted = FALSE
	`, id).Scan(
		&product.ID, &product.Name, &product.Price, &product.IsActive, &product.IsDeleted,
		&product.Version, &product.CreatedAt, &product.CreatedBy, &product.ModifiedAt, &product.ModifiedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) List(ctx context.Context, query domain.ProductQuery) ([]domain.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	where, args := buildProductFilter(query)

	var total int64
	if query.CountTotal {
		countQuery := `SELECT COUNT(*) FROM products ` + where
		if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	listQuery := `SELECT ` + productColumns + ` FROM products ` + where + productOrderBy(query)
	if query.Limit > 0 {
		args = append(args, query.Limit)
		listQuery += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if query.Offset > 0 {
		args = append(args, query.Offset)
		listQuery += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Price, &product.IsActive, &product.IsDeleted,
			&product.Version, &product.CreatedAt, &product.CreatedBy, &product.ModifiedAt, &product.ModifiedBy,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

func (r *productRepository) Save(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    price = $2,
		    is_active = $3,
		    is_deleted = $4,
		    version = version + 1,
		    modified_at = $5,
		    modified_by = $6
		WHERE id = $7
		  AND version = $8
		  AND is_deleted = FALSE
	`,
		product.Name, product.Price, product.IsActive, product.IsDeleted,
		time.Now().UTC(), product.ModifiedBy,
		product.ID, product.Version,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.productExists(ctx, product.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrProductNotFound
		}
		return domain.ErrVersionConflict
	}

	return nil
}

func (r *productRepository) FindActive(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id IN (`+strings.Join(placeholders, ", ")+`)
		  AND is_deleted = FALSE
		  AND is_active = TRUE
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("find active products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Price, &product.IsActive, &product.IsDeleted,
			&product.Version, &product.CreatedAt, &product.CreatedBy, &product.ModifiedAt, &product.ModifiedBy,
		); err != nil {
			return nil, fmt.Errorf("scan active product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active products: %w", err)
	}

	return products, nil
}

func (r *productRepository) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name
		FROM products
		WHERE id IN (`+strings.Join(placeholders, ", ")+`)
		  AND is_deleted = FALSE
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("load product names: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan product name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product names: %w", err)
	}

	return names, nil
}

// buildProductFilter собирает WHERE-часть запроса. Предикат is_deleted
// добавляется всегда, фильтры соединяются через AND.
func buildProductFilter(query domain.ProductQuery) (string, []any) {
	conditions := []string{"is_deleted = FALSE"}
	args := make([]any, 0, 6)

	if query.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		args = append(args, "%"+escapeLikePattern(strings.ToLower(search))+"%")
		conditions = append(conditions, fmt.Sprintf(`LOWER(name) LIKE $%d ESCAPE '\'`, len(args)))
	}
	if query.MinPrice != nil {
		args = append(args, *query.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if query.MaxPrice != nil {
		args = append(args, *query.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}
	if query.AfterID != nil {
		args = append(args, *query.AfterID)
		conditions = append(conditions, fmt.Sprintf("id > $%d", len(args)))
	}
	if query.BeforeID != nil {
		args = append(args, *query.BeforeID)
		conditions = append(conditions, fmt.Sprintf("id < $%d", len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePattern экранирует метасимволы LIKE, чтобы поиск работал как
// подстрочное совпадение, а не как шаблон.
func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

func productOrderBy(query domain.ProductQuery) string {
	column := "id"
	switch query.SortBy {
	case domain.ProductSortName:
		column = "name"
	case domain.ProductSortPrice:
		column = "price"
	}

	direction := "ASC"
	if query.Descending {
		direction = "DESC"
	}

	// id в качестве tiebreaker даёт стабильный порядок страниц.
	if column == "id" {
		return fmt.Sprintf(" ORDER BY id %s", direction)
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}

func (r *productRepository) productExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM products WHERE id = $1 AND is_deleted = FALSE
	`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check product exists: %w", err)
}

var _ domain.ProductRepository = (*productRepository)(nil)
