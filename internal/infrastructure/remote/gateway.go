package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
)

// Gateway — HTTP JSON клиент авторитетного сервера каталога.
// Любая ошибка транспорта, статуса или разбора ответа оборачивает e.ErrNetwork.
type Gateway struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

func NewGateway(client *http.Client, cfg *cfg.RemoteCfg) *Gateway {
	return &Gateway{
		client:  client,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
	}
}

// PullCatalog забирает текущий каталог филиала с сервера.
func (g *Gateway) PullCatalog(ctx context.Context, branchID string) ([]domain.Product, error) {
	const op = "Gateway.PullCatalog"

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.do(ctx, http.MethodGet, "/branches/"+url.PathEscape(branchID)+"/products", nil)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	var dtos []productDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, e.Wrap(op, networkErr(fmt.Errorf("decode catalog: %w", err)))
	}

	products := make([]domain.Product, 0, len(dtos))
	for i := range dtos {
		p, err := dtos[i].toDomain(branchID)
		if err != nil {
			return nil, e.Wrap(op, networkErr(fmt.Errorf("product %q: %w", dtos[i].Code, err)))
		}
		products = append(products, p)
	}

	return products, nil
}

// PushBaseFields отправляет код, имя и цену товара.
func (g *Gateway) PushBaseFields(ctx context.Context, product *domain.Product) error {
	const op = "Gateway.PushBaseFields"

	body := newSyncBody(product.BranchID)
	body.Products = append(body.Products, toBaseFieldsDTO(product))

	if err := g.postSync(ctx, body); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// PushMovement отправляет одно движение остатка. Передаётся только дельта.
func (g *Gateway) PushMovement(ctx context.Context, movement *domain.StockMovement) error {
	const op = "Gateway.PushMovement"

	body := newSyncBody(movement.BranchID)
	body.StockMoves = append(body.StockMoves, toStockMoveDTO(movement))

	if err := g.postSync(ctx, body); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// PushDelete сообщает серверу об удалении товара филиала.
func (g *Gateway) PushDelete(ctx context.Context, branchID, code string) error {
	const op = "Gateway.PushDelete"

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	path := "/branches/" + url.PathEscape(branchID) + "/products/" + url.PathEscape(code)
	resp, err := g.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return e.Wrap(op, err)
	}
	resp.Body.Close()

	return nil
}

func (g *Gateway) postSync(ctx context.Context, body *syncBody) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal sync body: %w", err)
	}

	resp, err := g.do(ctx, http.MethodPost, "/sync", data)
	if err != nil {
		return err
	}
	resp.Body.Close()

	return nil
}

// do выполняет запрос и проверяет статус. Тело ответа закрывает вызывающий.
func (g *Gateway) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, networkErr(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, networkErr(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, networkErr(fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg)))
	}

	return resp, nil
}

func networkErr(err error) error {
	return fmt.Errorf("%w: %w", e.ErrNetwork, err)
}
