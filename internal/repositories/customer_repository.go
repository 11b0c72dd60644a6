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

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

const customerColumns = `id, name, email, COALESCE(phone, '') as phone, COALESCE(address, '') as address,
	loyalty_points, total_spent, last_purchase_at, membership_tier, birth_date, status, created_at, updated_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.LoyaltyPoints, &c.TotalSpent, &c.LastPurchaseAt,
		&c.MembershipTier, &c.BirthDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("customer not found")
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a new customer with a zero points balance
func (r *CustomerRepository) Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	query := `
		INSERT INTO customers (name, email, phone, address, birth_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + customerColumns

	return scanCustomer(r.DB.QueryRow(ctx, query,
		req.Name, req.Email, req.Phone, req.Address, req.BirthDate))
}

// Get returns a customer by id
func (r *CustomerRepository) Get(ctx context.Context, id int) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(r.DB.QueryRow(ctx, query, id))
}

// Update applies the provided optional fields
func (r *CustomerRepository) Update(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
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
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.BirthDate != nil {
		add("birth_date", *req.BirthDate)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf(`UPDATE customers SET %s WHERE id = $%d RETURNING `+customerColumns,
		strings.Join(sets, ", "), argNum)
	args = append(args, id)

	return scanCustomer(r.DB.QueryRow(ctx, query, args...))
}

// List returns customers matching the filter
func (r *CustomerRepository) List(ctx context.Context, filter *models.CustomerFilter) ([]models.Customer, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argNum, argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}
	if filter.MembershipTier != "" {
		conditions = append(conditions, fmt.Sprintf("membership_tier = $%d", argNum))
		args = append(args, filter.MembershipTier)
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT `+customerColumns+`
		FROM customers
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}

	return customers, nil
}
