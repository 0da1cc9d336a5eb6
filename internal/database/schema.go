package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/Argor01/OkoZnaniy-sub000/internal/entity"
)

type indexDef struct {
	model   any
	name    string
	columns []string
	unique  bool
	where   string
}

// CreateSchema builds the engine tables from the bun models. Postgres
// deployments run the goose migrations instead; this path serves sqlite.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	tables := []struct {
		model any
		fk    string
	}{
		{model: (*entity.Order)(nil)},
		{model: (*entity.Bid)(nil), fk: `("order_id") REFERENCES "orders" ("id") ON DELETE CASCADE`},
		{model: (*entity.Offer)(nil)},
		{model: (*entity.WorkFile)(nil), fk: `("order_id") REFERENCES "orders" ("id") ON DELETE CASCADE`},
		{model: (*entity.OrderEvent)(nil), fk: `("order_id") REFERENCES "orders" ("id") ON DELETE CASCADE`},
	}

	for _, tbl := range tables {
		q := db.NewCreateTable().Model(tbl.model).IfNotExists()
		if tbl.fk != "" {
			q = q.ForeignKey(tbl.fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", tbl.model, err)
		}
	}

	indexes := []indexDef{
		{model: (*entity.Order)(nil), name: "orders_status_idx", columns: []string{"status"}},
		{model: (*entity.Order)(nil), name: "orders_client_idx", columns: []string{"client_id"}},
		{model: (*entity.Bid)(nil), name: "bids_order_idx", columns: []string{"order_id"}},
		// one live bid per expert per order
		{
			model:   (*entity.Bid)(nil),
			name:    "bids_active_expert_uidx",
			columns: []string{"order_id", "expert_id"},
			unique:  true,
			where:   "status = 'active'",
		},
		{model: (*entity.WorkFile)(nil), name: "order_files_order_idx", columns: []string{"order_id"}},
		{model: (*entity.OrderEvent)(nil), name: "order_events_order_idx", columns: []string{"order_id"}},
	}

	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if idx.where != "" {
			q = q.Where(idx.where)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}
