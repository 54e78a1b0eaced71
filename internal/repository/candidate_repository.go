package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-tools/online-students-report/internal/models"
)

// coursePatterns is the only source of the course-code regex. The term id
// is bound; the pattern is interpolated, so it must come from this fixed
// table keyed by the validated enum.
var coursePatterns = map[models.CourseType]string{
	models.CourseTypeOnline: "E0[0-9]",
	models.CourseTypeHybrid: "H0[0-9]",
	models.CourseTypeBoth:   "(E|H)0[0-9]",
}

// BuildCandidateQuery emits the warehouse query selecting distinct active
// student enrollments for a term, narrowed by course family. When
// loginFilter is set the query left-joins request activity and keeps only
// users with zero recorded requests for the course; when unset the join
// and grouping are absent entirely.
func BuildCandidateQuery(courseType models.CourseType, loginFilter bool) string {
	pattern := coursePatterns[models.ParseCourseType(string(courseType))]

	q := "SELECT DISTINCT user_dim.canvas_id " +
		"FROM course_dim " +
		"JOIN enrollment_dim " +
		"ON enrollment_dim.course_id = course_dim.id " +
		"JOIN user_dim " +
		"ON enrollment_dim.user_id = user_dim.id "

	if loginFilter {
		q += "LEFT JOIN requests " +
			"ON requests.user_id = user_dim.id " +
			"AND requests.course_id = course_dim.id "
	}

	q += fmt.Sprintf("WHERE course_dim.code ~ '%s' ", pattern) +
		"AND course_dim.enrollment_term_id = $1 " +
		"AND enrollment_dim.workflow_state = 'active' " +
		"AND enrollment_dim.type = 'StudentEnrollment'"

	if loginFilter {
		q += " GROUP BY user_dim.canvas_id HAVING COUNT(requests.user_id) = 0"
	}

	return q
}

// CandidateRepository executes candidate queries against the warehouse.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs the repository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// List returns candidate users for the shard-mapped term in warehouse
// result order. Failures propagate fatally; no report goes out on a
// partial candidate set.
func (r *CandidateRepository) List(ctx context.Context, courseType models.CourseType, loginFilter bool, termID int64) ([]models.Candidate, error) {
	query := BuildCandidateQuery(courseType, loginFilter)

	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, termID); err != nil {
		return nil, fmt.Errorf("list candidates for term %d: %w", termID, err)
	}
	return candidates, nil
}
