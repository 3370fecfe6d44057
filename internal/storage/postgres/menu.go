package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/foodhub/internal/domain/menu"
)

const (
	listRestaurantsSQL = `SELECT id, name, location, rating FROM restaurants ORDER BY created_at, id`

	menuItemColumns = `id, restaurant_id, name, category, description, price, is_veg, available`

	listMenuItemsSQL             = `SELECT ` + menuItemColumns + ` FROM menu_items ORDER BY restaurant_id, category, name`
	listMenuItemsByRestaurantSQL = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE restaurant_id = $1 ORDER BY category, name`
	getMenuItemsByIDsSQL         = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ANY($1)`

	upsertRestaurantSQL = `INSERT INTO restaurants (id, name, location, rating) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, location = EXCLUDED.location, rating = EXCLUDED.rating`

	upsertMenuItemSQL = `INSERT INTO menu_items (` + menuItemColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET restaurant_id = EXCLUDED.restaurant_id, name = EXCLUDED.name,
			category = EXCLUDED.category, description = EXCLUDED.description, price = EXCLUDED.price,
			is_veg = EXCLUDED.is_veg, available = EXCLUDED.available`

	deleteMenuItemSQL          = `DELETE FROM menu_items WHERE id = $1`
	setMenuItemAvailabilitySQL = `UPDATE menu_items SET available = $2 WHERE id = $1`
)

var (
	_ menu.Repository = (*MenuRepository)(nil)
	_ menu.Writer     = (*MenuRepository)(nil)
)

// MenuRepository implements menu.Repository and menu.Writer backed by
// PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// ListRestaurants returns restaurants in registration order.
func (r *MenuRepository) ListRestaurants(ctx context.Context) ([]menu.Restaurant, error) {
	rows, err := r.pool.Query(ctx, listRestaurantsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list restaurants")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (menu.Restaurant, error) {
		var rs menu.Restaurant
		err := row.Scan(&rs.ID, &rs.Name, &rs.Location, &rs.Rating)
		return rs, err
	})
}

func (r *MenuRepository) ListItems(ctx context.Context, restaurantID string) ([]menu.Item, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if restaurantID == "" {
		rows, err = r.pool.Query(ctx, listMenuItemsSQL)
	} else {
		rows, err = r.pool.Query(ctx, listMenuItemsByRestaurantSQL, restaurantID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "list menu items")
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

func (r *MenuRepository) GetItemsByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get menu items by ids")
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// UpsertRestaurant inserts or replaces a restaurant.
func (r *MenuRepository) UpsertRestaurant(ctx context.Context, rs menu.Restaurant) error {
	if _, err := r.pool.Exec(ctx, upsertRestaurantSQL, rs.ID, rs.Name, rs.Location, rs.Rating); err != nil {
		return errors.Wrapf(err, "upsert restaurant %q", rs.ID)
	}
	return nil
}

// UpsertItem inserts or replaces a menu item.
func (r *MenuRepository) UpsertItem(ctx context.Context, it menu.Item) error {
	if _, err := r.pool.Exec(ctx, upsertMenuItemSQL,
		it.ID, it.RestaurantID, it.Name, it.Category, it.Description, it.Price, it.IsVeg, it.Available,
	); err != nil {
		return errors.Wrapf(err, "upsert menu item %q", it.ID)
	}
	return nil
}

func (r *MenuRepository) DeleteItem(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteMenuItemSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete menu item %q", id)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrItemNotFound
	}
	return nil
}

func (r *MenuRepository) SetItemAvailability(ctx context.Context, id string, available bool) error {
	tag, err := r.pool.Exec(ctx, setMenuItemAvailabilitySQL, id, available)
	if err != nil {
		return errors.Wrapf(err, "set menu item %q availability", id)
	}
	if tag.RowsAffected() == 0 {
		return menu.ErrItemNotFound
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(&it.ID, &it.RestaurantID, &it.Name, &it.Category, &it.Description, &it.Price, &it.IsVeg, &it.Available)
	return it, err
}
