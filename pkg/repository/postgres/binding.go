package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/repository"
)

func (x *Client) GetBinding(ctx context.Context, id types.BindingID) (*model.Binding, error) {
	row := x.db.QueryRowContext(ctx,
		`SELECT data FROM bindings WHERE id = $1`, string(id),
	)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(repository.ErrNotFound, "binding not found",
				goerr.V("bindingID", id),
			)
		}
		return nil, goerr.Wrap(err, "failed to query binding")
	}

	return x.decodeBinding(data)
}

func (x *Client) ListBindings(ctx context.Context) ([]*model.Binding, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT data FROM bindings ORDER BY id`,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query bindings")
	}
	defer rows.Close()

	var bindings []*model.Binding
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, goerr.Wrap(err, "failed to scan binding row")
		}
		binding, err := x.decodeBinding(data)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate binding rows")
	}

	return bindings, nil
}

func (x *Client) SaveBinding(ctx context.Context, binding *model.Binding) error {
	if binding.ID == "" {
		return goerr.Wrap(repository.ErrInvalidInput, "binding ID is empty")
	}

	data, err := json.Marshal(binding)
	if err != nil {
		return goerr.Wrap(err, "failed to encode binding",
			goerr.V("bindingID", binding.ID),
		)
	}

	_, err = x.db.ExecContext(ctx,
		`INSERT INTO bindings (id, data, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		string(binding.ID), data,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to save binding",
			goerr.V("bindingID", binding.ID),
		)
	}

	return nil
}

func (x *Client) decodeBinding(data []byte) (*model.Binding, error) {
	var binding model.Binding
	if err := json.Unmarshal(data, &binding); err != nil {
		return nil, goerr.Wrap(err, "failed to decode binding")
	}

	// handlers are not persisted, re-attach from the process registry
	if x.resolver != nil {
		for _, link := range binding.Links {
			if link.Automation != nil && link.Automation.Handler == nil {
				link.Automation.Handler = x.resolver(link.Automation.ID)
			}
		}
	}

	return &binding, nil
}
