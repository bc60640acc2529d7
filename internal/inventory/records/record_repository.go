package records

import (
	"context"
	"fmt"

	"imsystem/internal/repository"
	"imsystem/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

const itemsTable = "items"

// RecordRepository reads inventory records from the items table. It is the
// Postgres data source of the grid refresher.
type RecordRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *RecordRepository {
	return &RecordRepository{repository: r}
}

// ListRecords returns rows in the inclusive range [from, to] ordered by id.
func (r *RecordRepository) ListRecords(ctx context.Context, from, to int) ([]models.Record, error) {
	if from < 0 || to < from {
		return nil, fmt.Errorf("invalid record range %d-%d", from, to)
	}

	query := r.repository.GoquDBWrapper.
		Select(
			goqu.COALESCE(goqu.I("i.container"), "").As("container"),
			goqu.COALESCE(goqu.I("i.rack"), "").As("rack"),
			goqu.COALESCE(goqu.I("i.level"), "").As("level"),
			goqu.I("i.item_code").As("item_code"),
			goqu.I("i.description").As("description"),
			goqu.COALESCE(goqu.I("i.uom"), "").As("uom"),
			goqu.I("i.quantity").As("quantity"),
			goqu.I("i.department").As("department"),
		).
		From(goqu.T(itemsTable).As("i")).
		Order(goqu.I("i.id").Asc()).
		Offset(uint(from)).
		Limit(uint(to - from + 1))

	records := []models.Record{}
	if err := query.Executor().ScanStructsContext(ctx, &records); err != nil {
		return nil, fmt.Errorf("unable to select inventory records from database: %w", err)
	}

	return records, nil
}
