package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/campus-tools/online-students-report/internal/models"
)

// TermRepository reads the enrollment-term dimension for display names.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// ListNames returns a term id to display name lookup for report bodies.
func (r *TermRepository) ListNames(ctx context.Context) (map[string]string, error) {
	const query = `SELECT id, name FROM enrollment_term_dim`

	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query); err != nil {
		return nil, fmt.Errorf("list enrollment terms: %w", err)
	}

	names := make(map[string]string, len(terms))
	for _, term := range terms {
		names[strconv.FormatInt(term.ID, 10)] = term.Name
	}
	return names, nil
}
