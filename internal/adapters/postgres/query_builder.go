package postgres_adapter

import (
	"fmt"
	"strings"

	"rentals-service/internal/core/domain"
)

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argID      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{argID: 1}
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.argID))
	qb.args = append(qb.args, arg)
	qb.argID++
}

func (qb *queryBuilder) build() (string, []interface{}) {
	if len(qb.conditions) == 0 {
		return "", qb.args
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ") + " ", qb.args
}

// Разрешенные поля сортировки снимка. Имя столбца никогда не берется из запроса напрямую.
var (
	listingOrderColumns = map[string]string{
		domain.ListingFieldCreatedAt: "created_at",
		domain.ListingFieldRentPrice: "rent_price",
		domain.ListingFieldCity:      "city",
	}
	userOrderColumns = map[string]string{
		domain.UserFieldCreatedAt: "u.created_at",
		domain.UserFieldEmail:     "u.email",
	}
)

// orderClause - записи без значения всегда в конце, затем id для стабильного порядка.
func orderClause(columns map[string]string, q domain.CollectionQuery) string {
	column, ok := columns[q.OrderBy]
	if !ok {
		column = columns[domain.ListingFieldCreatedAt]
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s NULLS LAST, id", column, direction)
}
