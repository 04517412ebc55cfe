package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse сопоставляет ошибку статусу. Ошибки валидации отдают свой текст, остальное скрывается.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrProductNameRequired):
		return http.StatusBadRequest, e.ErrProductNameRequired.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrInvalidStock):
		return http.StatusBadRequest, e.ErrInvalidStock.Error()
	case errors.Is(err, e.ErrInvalidFilter):
		return http.StatusBadRequest, e.ErrInvalidFilter.Error()
	case errors.Is(err, e.ErrValidation), errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// flexNumber принимает число как JSON-число или как строку ("12,5" тоже допустимо).
type flexNumber struct {
	raw string
	set bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	f.set = true
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &f.raw)
	}
	f.raw = string(data)
	return nil
}

// parseDecimalInput разбирает пользовательский ввод числа: пробелы обрезаются, запятая считается десятичным разделителем.
func parseDecimalInput(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, errors.New("empty number")
	}
	return decimal.NewFromString(s)
}

// parsePrice проверяет формат цены; точность и знак проверяет хранилище.
func parsePrice(f flexNumber) (decimal.Decimal, error) {
	if !f.set {
		return decimal.Zero, e.ErrInvalidPrice
	}

	d, err := parseDecimalInput(f.raw)
	if err != nil {
		return decimal.Zero, e.ErrInvalidPrice
	}
	return d, nil
}

// parseStock разбирает запрошенный остаток; отрицательные и дробные значения допустимы и приводятся позже.
func parseStock(f flexNumber) (decimal.Decimal, error) {
	if !f.set {
		return decimal.Zero, e.ErrInvalidStock
	}

	d, err := parseDecimalInput(f.raw)
	if err != nil {
		return decimal.Zero, e.ErrInvalidStock
	}
	return d, nil
}

// parseListQuery читает search, filter, limit и offset из строки запроса.
func parseListQuery(r *http.Request) (*usecase.ListLocalReq, error) {
	q := r.URL.Query()

	filter, err := domain.ParseStockFilter(q.Get("filter"))
	if err != nil {
		return nil, err
	}

	limit, err := parseNonNegativeInt(q.Get("limit"))
	if err != nil {
		return nil, err
	}

	offset, err := parseNonNegativeInt(q.Get("offset"))
	if err != nil {
		return nil, err
	}

	return usecase.NewListLocalReq(q.Get("search"), filter, limit, offset), nil
}

func parseNonNegativeInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, e.Wrap(s, e.ErrStatusBadRequest)
	}
	return v, nil
}
