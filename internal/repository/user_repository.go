package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// UserListFilter narrows and pages the admin user listing. Filtering, search
// and ordering all run server-side.
type UserListFilter struct {
	Role      *domain.Role
	Status    *domain.UserStatus
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// UserUpdate describes a partial lifecycle update applied in one statement.
// Timestamp fields for role/status changes are assigned by the database.
type UserUpdate struct {
	Name            *string
	FirstName       *string
	LastName        *string
	Mobile          *string
	Role            *domain.Role
	PreviousRole    *domain.Role
	RoleChangedBy   *string
	Status          *domain.UserStatus
	StatusChangedBy *string
	PasswordHash    *string
}

// UserStats aggregates account counts for the admin dashboard.
type UserStats struct {
	Total         int
	ByRole        map[domain.Role]int
	ByStatus      map[domain.UserStatus]int
	RecentSignups int
}

// UserRepository defines persistence access for platform accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ApplyUpdate(ctx context.Context, id string, upd UserUpdate) error
	List(ctx context.Context, filter UserListFilter) ([]domain.User, int, error)
	Stats(ctx context.Context) (*UserStats, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, password_hash, name, first_name, last_name, mobile,
        role, status, previous_role, role_changed_at, role_changed_by,
        status_changed_at, status_changed_by, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, password_hash, name, first_name, last_name, mobile, role, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.FirstName,
		user.LastName,
		user.Mobile,
		user.Role,
		user.Status,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

// ApplyUpdate writes every set field plus updated_at in a single UPDATE so
// the row change stays atomic.
func (r *userRepository) ApplyUpdate(ctx context.Context, id string, upd UserUpdate) error {
	sets := []string{"updated_at=NOW()"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if upd.Name != nil {
		sets = append(sets, "name="+arg(*upd.Name))
	}
	if upd.FirstName != nil {
		sets = append(sets, "first_name="+arg(*upd.FirstName))
	}
	if upd.LastName != nil {
		sets = append(sets, "last_name="+arg(*upd.LastName))
	}
	if upd.Mobile != nil {
		sets = append(sets, "mobile="+arg(*upd.Mobile))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash="+arg(*upd.PasswordHash))
	}
	if upd.Role != nil {
		sets = append(sets, "role="+arg(*upd.Role))
		sets = append(sets, "previous_role="+arg(upd.PreviousRole))
		sets = append(sets, "role_changed_at=NOW()")
		sets = append(sets, "role_changed_by="+arg(upd.RoleChangedBy))
	}
	if upd.Status != nil {
		sets = append(sets, "status="+arg(*upd.Status))
		sets = append(sets, "status_changed_at=NOW()")
		sets = append(sets, "status_changed_by="+arg(upd.StatusChangedBy))
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id=" + arg(id)
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

var userSortColumns = map[string]string{
	"createdAt": "created_at",
	"email":     "email",
	"role":      "role",
	"status":    "status",
}

func (r *userRepository) List(ctx context.Context, filter UserListFilter) ([]domain.User, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Role != nil {
		where = append(where, "role="+arg(*filter.Role))
	}
	if filter.Status != nil {
		where = append(where, "status="+arg(*filter.Status))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + s + "%")
		where = append(where, fmt.Sprintf("(email ILIKE %s OR name ILIKE %s OR first_name ILIKE %s OR last_name ILIKE %s)", p, p, p, p))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := userSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		dir = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY %s %s LIMIT %s OFFSET %s`,
		userColumns, whereClause, sortCol, dir, arg(limit), arg(filter.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *userRepository) Stats(ctx context.Context) (*UserStats, error) {
	stats := &UserStats{
		ByRole:   map[domain.Role]int{domain.RoleCustomer: 0, domain.RolePartner: 0, domain.RoleSupport: 0, domain.RoleAdmin: 0},
		ByStatus: map[domain.UserStatus]int{domain.UserStatusActive: 0, domain.UserStatusInactive: 0, domain.UserStatusSuspended: 0},
	}

	rows, err := r.pool.Query(ctx, `SELECT role, status, COUNT(*) FROM users GROUP BY role, status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var role domain.Role
		var status domain.UserStatus
		var count int
		if err := rows.Scan(&role, &status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		if _, ok := stats.ByRole[role]; ok {
			stats.ByRole[role] += count
		}
		if _, ok := stats.ByStatus[status]; ok {
			stats.ByStatus[status] += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -7)
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE created_at > $1`, cutoff).Scan(&stats.RecentSignups); err != nil {
		return nil, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	return r.scanRow(row)
}

func (r *userRepository) scanRow(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.FirstName,
		&user.LastName,
		&user.Mobile,
		&user.Role,
		&user.Status,
		&user.PreviousRole,
		&user.RoleChangedAt,
		&user.RoleChangedBy,
		&user.StatusChangedAt,
		&user.StatusChangedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
