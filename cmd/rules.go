package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
	"github.com/urfave/cli/v3"
)

// RulesAdd appends a notification rule at the end of the evaluation order.
func (r *Runner) RulesAdd(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	rule := models.NewNotificationRule(cmd.String("type"), cmd.String("pattern"))
	if err := p.rules.Create(rule); err != nil {
		return fmt.Errorf("failed to add rule: %w", err)
	}

	r.logger.Info("rule added", "id", rule.ID(), "type", rule.RuleType(), "pattern", rule.Pattern())
	r.writePlainln("✓ Rule added: %s", rule.ID())
	return nil
}

// RulesList prints notification rules in evaluation order.
func (r *Runner) RulesList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	rules, err := p.rules.List(cmd.Bool("enabled"))
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	if cmd.Bool("json") {
		payload := make([]map[string]any, 0, len(rules))
		for _, rule := range rules {
			payload = append(payload, map[string]any{
				"id":      rule.ID(),
				"type":    rule.RuleType(),
				"pattern": rule.Pattern(),
				"enabled": rule.Enabled(),
			})
		}
		return r.writeJSON(payload, true)
	}

	if len(rules) == 0 {
		r.writePlainln("No notification rules configured.")
		return nil
	}

	r.writePlainHeader("Notification rules")
	for i, rule := range rules {
		state := ""
		if !rule.Enabled() {
			state = " (disabled)"
		}
		r.writePlain("%d. [%s] %q%s\n   %s\n", i+1, rule.RuleType(), rule.Pattern(), state, rule.ID())
	}
	return nil
}

// RulesRemove deletes a notification rule by ID.
func (r *Runner) RulesRemove(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	id := cmd.String("id")
	if err := p.rules.Delete(id); err != nil {
		if errors.Is(err, shared.ErrRuleNotFound) {
			r.writePlainln("No rule with ID %s", id)
			return nil
		}
		return fmt.Errorf("failed to remove rule: %w", err)
	}

	r.writePlainln("✓ Rule removed: %s", id)
	return nil
}

// RulesEnable re-enables a notification rule.
func (r *Runner) RulesEnable(ctx context.Context, cmd *cli.Command) error {
	return r.setRuleEnabled(cmd, true)
}

// RulesDisable disables a notification rule without deleting it.
func (r *Runner) RulesDisable(ctx context.Context, cmd *cli.Command) error {
	return r.setRuleEnabled(cmd, false)
}

func (r *Runner) setRuleEnabled(cmd *cli.Command, enabled bool) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	id := cmd.String("id")
	if err := p.rules.SetEnabled(id, enabled); err != nil {
		if errors.Is(err, shared.ErrRuleNotFound) {
			r.writePlainln("No rule with ID %s", id)
			return nil
		}
		return fmt.Errorf("failed to update rule: %w", err)
	}

	verb := "enabled"
	if !enabled {
		verb = "disabled"
	}
	r.writePlainln("✓ Rule %s: %s", verb, id)
	return nil
}
