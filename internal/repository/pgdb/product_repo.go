package pgdb

import (
	"context"
	"errors"
	"strings"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const productColumns = `id, branch_id, code, name, price, stock, is_archived, created_at, updated_at`

// querier покрывает общее подмножество pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepo реализует локальное хранилище каталога поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// ListByBranch возвращает активные товары филиала, отсортированные по имени.
func (p *ProductRepo) ListByBranch(ctx context.Context, branchID, search string, limit, offset int) ([]domain.Product, error) {
	return p.list(ctx, branchID, search, false, limit, offset)
}

// ListArchived возвращает архивные товары филиала.
func (p *ProductRepo) ListArchived(ctx context.Context, branchID, search string, limit, offset int) ([]domain.Product, error) {
	return p.list(ctx, branchID, search, true, limit, offset)
}

func (p *ProductRepo) list(ctx context.Context, branchID, search string, archived bool, limit, offset int) ([]domain.Product, error) {
	// $3: шаблон ILIKE, пустая строка отключает поиск
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE branch_id = $1
		  AND is_archived = $2
		  AND ($3::text = '' OR name ILIKE $3 OR code ILIKE $3)
		ORDER BY name, code
		LIMIT $4 OFFSET $5
	`

	rows, err := p.q(ctx).Query(ctx, query, branchID, archived, searchPattern(search), limit, offset)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.ProductModel, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := scanProduct(rows, &model); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

// GetByCode находит товар по бизнес-коду, в том числе архивный.
func (p *ProductRepo) GetByCode(ctx context.Context, branchID, code string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE branch_id = $1 AND code = $2`

	return p.getOne(ctx, query, branchID, code)
}

func (p *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	return p.getOne(ctx, query, id)
}

// UpdateNamePrice записывает имя и цену и возвращает только что записанную строку.
func (p *ProductRepo) UpdateNamePrice(ctx context.Context, id, name string, price decimal.Decimal) (*domain.Product, error) {
	name, price, err := domain.NormalizeBaseFields(name, price)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2, price = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	return p.getOne(ctx, query, id, name, domain.PriceToCents(price))
}

// SetStock записывает абсолютный остаток, отрицательные значения приводятся к нулю.
func (p *ProductRepo) SetStock(ctx context.Context, id string, stock int64) (*domain.Product, error) {
	query := `
		UPDATE products
		SET stock = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	return p.getOne(ctx, query, id, domain.ClampStockInt(stock))
}

// Archive помечает товар архивным. Уже архивный или отсутствующий товар не ошибка.
func (p *ProductRepo) Archive(ctx context.Context, id string) error {
	query := `UPDATE products SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_archived`

	if _, err := p.q(ctx).Exec(ctx, query, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete удаляет строку. Повторное удаление не ошибка.
func (p *ProductRepo) Delete(ctx context.Context, id string) error {
	if _, err := p.q(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// ReplaceSnapshot приводит каталог филиала к снимку сервера одной транзакцией:
// строки сопоставляются по коду, локальный id и флаг архива сохраняются, отсутствующие в снимке удаляются.
func (p *ProductRepo) ReplaceSnapshot(ctx context.Context, branchID string, products []domain.Product) (err error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.pool)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return e.Wrap(whereami.WhereAmI(), e.ErrTransactionNotFound)
	}
	ctx = tr.WithTx(ctx, pgxTx)

	upsert := `
		INSERT INTO products (id, branch_id, code, name, price, stock, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (branch_id, code)
		DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			is_archived = products.is_archived OR EXCLUDED.is_archived,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	codes := make([]string, 0, len(products))
	for i := range products {
		model := p.conv.ToModel(&products[i])
		batch.Queue(upsert, uuid.NewString(), branchID, model.Code, model.Name, model.Price, model.Stock, model.IsArchived)
		codes = append(codes, model.Code)
	}

	if batch.Len() > 0 {
		if err = pgxTx.SendBatch(ctx, batch).Close(); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if _, err = p.q(ctx).Exec(ctx, `DELETE FROM products WHERE branch_id = $1 AND NOT (code = ANY($2))`, branchID, codes); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// q возвращает транзакцию из контекста, если она есть, иначе пул.
func (p *ProductRepo) q(ctx context.Context) querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return p.pool
}

func (p *ProductRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var model converter.ProductModel
	if err := scanProduct(p.q(ctx).QueryRow(ctx, query, args...), &model); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

func scanProduct(row pgx.Row, model *converter.ProductModel) error {
	return row.Scan(
		&model.ID, &model.BranchID, &model.Code, &model.Name, &model.Price,
		&model.Stock, &model.IsArchived, &model.CreatedAt, &model.UpdatedAt,
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern строит шаблон ILIKE для подстрочного поиска; спецсимволы ищутся буквально.
func searchPattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(search) + "%"
}
