package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `id, name, COALESCE(barcode, ''), selling_price, cost_price, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.SellingPrice, &p.CostPrice,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (name, barcode, selling_price, cost_price)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING ` + productColumns

	return scanProduct(r.DB.QueryRow(ctx, query,
		req.Name, req.Barcode, req.SellingPrice, req.CostPrice))
}

func (r *ProductRepository) Get(ctx context.Context, id int) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.DB.QueryRow(ctx, query, id))
}

// Update applies the provided optional fields
func (r *ProductRepository) Update(ctx context.Context, id int, req *models.UpdateProductRequest) (*models.Product, error) {
	var sets []string
	var args []interface{}
	argNum := 1

	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argNum))
		args = append(args, val)
		argNum++
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Barcode != nil {
		sets = append(sets, fmt.Sprintf("barcode = NULLIF($%d, '')", argNum))
		args = append(args, *req.Barcode)
		argNum++
	}
	if req.SellingPrice != nil {
		add("selling_price", *req.SellingPrice)
	}
	if req.CostPrice != nil {
		add("cost_price", *req.CostPrice)
	}
	if req.IsActive != nil {
		add("is_active", *req.IsActive)
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING `+productColumns,
		strings.Join(sets, ", "), argNum)
	args = append(args, id)

	return scanProduct(r.DB.QueryRow(ctx, query, args...))
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`
	return scanProduct(r.DB.QueryRow(ctx, query, barcode))
}

func (r *ProductRepository) List(ctx context.Context, search string, limit, offset int) ([]models.Product, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR barcode ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT `+productColumns+`
		FROM products
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	return products, nil
}
