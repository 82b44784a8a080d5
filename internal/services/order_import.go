package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"shop/internal/csvimport"
	"shop/internal/models"
	"shop/internal/repositories"
)

// Columns of the order import file.
const (
	ColumnUsername        = "username"
	ColumnDeliveryAddress = "delivery_address"
	ColumnPromocode       = "promocode"
	ColumnProductIDs      = "product_ids"
)

var importColumns = []string{ColumnUsername, ColumnDeliveryAddress, ColumnPromocode, ColumnProductIDs}

const importSource = "csv_import"

// ImportResult lists the orders created by an import, in file order.
type ImportResult struct {
	Orders []uint `json:"orders"`
}

// ImportOrders creates one order per data row of a CSV file. Each row is
// committed on its own; the first failing row stops the import and is
// reported as a *csvimport.RowError while earlier rows stay in place. The
// result is never nil.
func (s *OrderService) ImportOrders(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{Orders: []uint{}}

	parser, err := csvimport.NewParser(r)
	if err != nil {
		return result, err
	}
	for _, col := range importColumns {
		if !parser.HasColumn(col) {
			return result, csvimport.NewRowError(1, col, csvimport.ErrCodeMissingColumn, "",
				fmt.Errorf("column %q is missing from the header", col))
		}
	}

	headers := parser.Headers()
	idsLast := headers[len(headers)-1] == ColumnProductIDs

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		row, err := parser.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, err
		}

		order, err := s.importRow(ctx, row, idsLast)
		if err != nil {
			s.logger.Warn("order import stopped",
				zap.Int("line", row.Line),
				zap.Int("imported", len(result.Orders)),
				zap.Error(err),
			)
			return result, err
		}
		result.Orders = append(result.Orders, order.ID)
		s.publishCreated(order, importSource)
	}

	s.logger.Info("orders imported", zap.Int("count", len(result.Orders)))
	return result, nil
}

// importRow creates the order of one row. When product_ids is the last
// column, an unquoted id list spills into extra fields; those are joined
// back into the list. Extra fields after any other layout are an error.
func (s *OrderService) importRow(ctx context.Context, row *csvimport.Row, idsLast bool) (*models.Order, error) {
	values := make(map[string]string, len(importColumns))
	for _, col := range importColumns {
		v, ok := row.Get(col)
		if !ok {
			return nil, csvimport.NewRowError(row.Line, col, csvimport.ErrCodeMissingColumn, "",
				fmt.Errorf("row has no value for column %q", col))
		}
		values[col] = v
	}
	if extra := row.Extra(); len(extra) > 0 {
		if !idsLast {
			return nil, csvimport.NewRowError(row.Line, "", csvimport.ErrCodeMalformedRow, strings.Join(extra, ","),
				fmt.Errorf("row has %d fields more than the header", len(extra)))
		}
		values[ColumnProductIDs] = strings.Join(append([]string{values[ColumnProductIDs]}, extra...), ",")
	}

	username := values[ColumnUsername]
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		code := csvimport.ErrCodeStorage
		if errors.Is(err, repositories.ErrUserNotFound) {
			code = csvimport.ErrCodeReferenceNotFound
		}
		return nil, csvimport.NewRowError(row.Line, ColumnUsername, code, username, err)
	}

	promocode := values[ColumnPromocode]
	if len([]rune(promocode)) > 20 {
		return nil, csvimport.NewRowError(row.Line, ColumnPromocode, csvimport.ErrCodeInvalidValue, promocode,
			errors.New("promocode must have at most 20 characters"))
	}

	rawIDs := values[ColumnProductIDs]
	ids, err := ParseProductIDs(rawIDs)
	if err != nil {
		return nil, csvimport.NewRowError(row.Line, ColumnProductIDs, csvimport.ErrCodeInvalidValue, rawIDs, err)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, csvimport.NewRowError(row.Line, ColumnProductIDs, csvimport.ErrCodeStorage, rawIDs, err)
	}
	if missing := missingIDs(ids, products); len(missing) > 0 {
		value := strconv.FormatUint(uint64(missing[0]), 10)
		return nil, csvimport.NewRowError(row.Line, ColumnProductIDs, csvimport.ErrCodeReferenceNotFound, value,
			fmt.Errorf("product with ID %d: %w", missing[0], repositories.ErrProductNotFound))
	}

	order := &models.Order{
		DeliveryAddress: values[ColumnDeliveryAddress],
		Promocode:       promocode,
		UserID:          user.ID,
		User:            *user,
		Products:        products,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, csvimport.NewRowError(row.Line, "", csvimport.ErrCodeStorage, "", err)
	}
	return order, nil
}

// ParseProductIDs parses a comma separated list of positive ids. Duplicates
// are dropped, first occurrence wins.
func ParseProductIDs(raw string) ([]uint, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	seen := make(map[uint]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.New("product id list contains an empty entry")
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid product id %q", part)
		}
		id := uint(n)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func missingIDs(want []uint, found []models.Product) []uint {
	have := make(map[uint]struct{}, len(found))
	for _, p := range found {
		have[p.ID] = struct{}{}
	}
	var missing []uint
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
