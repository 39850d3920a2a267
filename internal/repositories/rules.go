package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// RuleRepository stores notification rules. Stored order (the sequence
// column) is the evaluation order.
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository creates a new RuleRepository with the given database connection
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = "id, sequence, rule_type, match_pattern, enabled, created_at"

// Create inserts a new [models.NotificationRule] with generated ID and sequence
func (r *RuleRepository) Create(rule *models.NotificationRule) error {
	sequence, err := NextSequence(r.db, "notification_rules")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	rule.SetID(shared.GenerateID())
	rule.SetSequence(sequence)

	if err := rule.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO notification_rules (id, sequence, rule_type, match_pattern, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		rule.ID(),
		rule.Sequence(),
		rule.RuleType(),
		rule.Pattern(),
		rule.Enabled(),
		rule.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by ID
func (r *RuleRepository) Get(id string) (*models.NotificationRule, error) {
	query := fmt.Sprintf("SELECT %s FROM notification_rules WHERE id = ?", ruleColumns)
	return scanRule(r.db.QueryRow(query, id).Scan)
}

// List retrieves rules in stored order. When enabledOnly is true, disabled
// rules are skipped.
func (r *RuleRepository) List(enabledOnly bool) ([]*models.NotificationRule, error) {
	query := fmt.Sprintf("SELECT %s FROM notification_rules", ruleColumns)
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.NotificationRule
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return rules, nil
}

// SetEnabled toggles a rule without changing its stored order.
func (r *RuleRepository) SetEnabled(id string, enabled bool) error {
	result, err := r.db.Exec("UPDATE notification_rules SET enabled = ? WHERE id = ?", enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRuleNotFound, id)
	}

	return nil
}

// Delete removes a rule by ID
func (r *RuleRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM notification_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRuleNotFound, id)
	}

	return nil
}

func scanRule(scan func(...any) error) (*models.NotificationRule, error) {
	var (
		id        string
		sequence  int
		ruleType  string
		pattern   string
		enabled   bool
		createdAt time.Time
	)

	err := scan(&id, &sequence, &ruleType, &pattern, &enabled, &createdAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	rule := models.NewNotificationRule(ruleType, pattern)
	rule.SetID(id)
	rule.SetSequence(sequence)
	rule.SetEnabled(enabled)

	return rule, nil
}
