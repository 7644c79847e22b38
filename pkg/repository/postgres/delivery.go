package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/repository"
)

func (x *Client) PutDelivery(ctx context.Context, delivery *model.Delivery) error {
	if delivery.ID == "" {
		return goerr.Wrap(repository.ErrInvalidInput, "delivery ID is empty")
	}

	row := x.db.QueryRowContext(ctx,
		`INSERT INTO deliveries (id, binding_id, event, payload, received_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq`,
		string(delivery.ID),
		string(delivery.BindingID),
		string(delivery.Event),
		delivery.Payload,
		delivery.ReceivedAt,
	)
	if err := row.Scan(&delivery.Seq); err != nil {
		return goerr.Wrap(err, "failed to insert delivery",
			goerr.V("deliveryID", delivery.ID),
		)
	}

	return nil
}

func (x *Client) ListDeliveries(ctx context.Context, limit int) ([]*model.Delivery, error) {
	query := `SELECT seq, id, binding_id, event, payload, received_at
	          FROM deliveries ORDER BY seq`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query deliveries")
	}
	defer rows.Close()

	var deliveries []*model.Delivery
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(&d.Seq, &d.ID, &d.BindingID, &d.Event, &d.Payload, &d.ReceivedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan delivery row")
		}
		deliveries = append(deliveries, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate delivery rows")
	}

	return deliveries, nil
}

func (x *Client) DeleteDelivery(ctx context.Context, id types.DeliveryID) error {
	result, err := x.db.ExecContext(ctx,
		`DELETE FROM deliveries WHERE id = $1`, string(id),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to delete delivery",
			goerr.V("deliveryID", id),
		)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(repository.ErrNotFound, "delivery not found",
			goerr.V("deliveryID", id),
		)
	}

	return nil
}
