package models

import (
	"fmt"
	"strings"
	"time"
)

// Notification rule types. PositionRange is stored and listed but reserved:
// no range semantics are evaluated yet.
const (
	RuleTypeArtist        = "artist"
	RuleTypeTitle         = "title"
	RuleTypePositionRange = "position_range"
)

// TargetPersistent is the sentinel target meaning the local persistent
// notification surface rather than an external notify service.
const TargetPersistent = "persistent_notification"

// NotificationRule matches songs by substring on artist or title. Rules are
// evaluated in stored order; the first match wins.
type NotificationRule struct {
	id        string
	sequence  int
	ruleType  string
	pattern   string
	enabled   bool
	createdAt time.Time
	updatedAt time.Time
}

// NewNotificationRule creates an enabled rule of the given type.
func NewNotificationRule(ruleType, pattern string) *NotificationRule {
	now := time.Now()
	return &NotificationRule{
		ruleType:  ruleType,
		pattern:   pattern,
		enabled:   true,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *NotificationRule) ID() string           { return r.id }
func (r *NotificationRule) Sequence() int        { return r.sequence }
func (r *NotificationRule) RuleType() string     { return r.ruleType }
func (r *NotificationRule) Pattern() string      { return r.pattern }
func (r *NotificationRule) Enabled() bool        { return r.enabled }
func (r *NotificationRule) CreatedAt() time.Time { return r.createdAt }
func (r *NotificationRule) UpdatedAt() time.Time { return r.updatedAt }

func (r *NotificationRule) SetID(id string)     { r.id = id }
func (r *NotificationRule) SetSequence(seq int) { r.sequence = seq }
func (r *NotificationRule) SetEnabled(v bool)   { r.enabled = v }

// Validate checks the rule type and pattern.
func (r *NotificationRule) Validate() error {
	switch r.ruleType {
	case RuleTypeArtist, RuleTypeTitle, RuleTypePositionRange:
	default:
		return fmt.Errorf("unknown rule type %q", r.ruleType)
	}
	if strings.TrimSpace(r.pattern) == "" {
		return fmt.Errorf("rule pattern is required")
	}
	return nil
}

// Matches reports whether the rule matches the song by case-insensitive
// substring containment. position_range rules never match.
func (r *NotificationRule) Matches(song *Song) bool {
	pattern := strings.ToLower(r.pattern)
	switch r.ruleType {
	case RuleTypeArtist:
		return strings.Contains(strings.ToLower(song.Artist()), pattern)
	case RuleTypeTitle:
		return strings.Contains(strings.ToLower(song.Title()), pattern)
	case RuleTypePositionRange:
		// Reserved for future range semantics.
		return false
	}
	return false
}

// NotificationSettings is the singleton global notification configuration.
type NotificationSettings struct {
	Targets         []string `json:"targets"`
	NotifyCurrent   bool     `json:"notify_current"`
	NotifyUpcoming  bool     `json:"notify_upcoming"`
	UpcomingOffsets []int    `json:"upcoming_offsets"`
}

// DefaultNotificationSettings returns the documented defaults used when the
// settings store has no row.
func DefaultNotificationSettings() *NotificationSettings {
	return &NotificationSettings{
		Targets:         []string{TargetPersistent},
		NotifyCurrent:   true,
		NotifyUpcoming:  false,
		UpcomingOffsets: []int{1, 2, 3},
	}
}
