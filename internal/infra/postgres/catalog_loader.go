package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"geoquiz/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads country JSONB rows from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.Country, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM countries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var catalog []domain.Country
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		var c domain.Country
		if err := json.Unmarshal(raw, &c); err != nil {
			// skip malformed rows rather than failing the whole load
			continue
		}
		catalog = append(catalog, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, domain.ErrCatalogNotFound
	}
	return catalog, nil
}
