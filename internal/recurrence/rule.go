package recurrence

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

// rrule-go numbers weekdays from Monday.
var rruleWeekdays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

func toRRuleWeekday(d time.Weekday) rrule.Weekday {
	return rruleWeekdays[(int(d)+6)%7]
}

func fromRRuleWeekday(w rrule.Weekday) time.Weekday {
	return time.Weekday((w.Day() + 1) % 7)
}

// ParseRule reads RRULE text such as "FREQ=WEEKLY;BYDAY=WE" for a series
// anchored at anchorStart. Empty text means a single booking and returns nil.
// WEEKLY rules always record the anchor's UTC weekday.
func ParseRule(text string, anchorStart time.Time) (*model.RecurrenceRule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if len(text) > 6 && strings.EqualFold(text[:6], "RRULE:") {
		text = text[6:]
	}

	opt, err := rrule.StrToROption(text)
	if err != nil {
		return nil, &model.ValidationError{Field: "rrule", Reason: err.Error()}
	}
	if opt.Count != 0 || !opt.Until.IsZero() {
		return nil, &model.ValidationError{Field: "rrule", Reason: "series have no end; COUNT and UNTIL are not supported"}
	}
	if opt.Interval > 1 {
		return nil, &model.ValidationError{Field: "rrule", Reason: "INTERVAL is not supported"}
	}
	if len(opt.Bysetpos)+len(opt.Bymonth)+len(opt.Bymonthday)+len(opt.Byyearday)+len(opt.Byweekno)+
		len(opt.Byhour)+len(opt.Byminute)+len(opt.Bysecond)+len(opt.Byeaster) > 0 {
		return nil, &model.ValidationError{Field: "rrule", Reason: "only FREQ and BYDAY are supported"}
	}

	var rule model.RecurrenceRule
	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) > 0 {
			return nil, &model.ValidationError{Field: "rrule", Reason: "BYDAY only applies to WEEKLY"}
		}
		rule.Freq = model.Daily
	case rrule.WEEKLY:
		anchorDay := anchorStart.UTC().Weekday()
		switch len(opt.Byweekday) {
		case 0:
		case 1:
			wd := opt.Byweekday[0]
			if wd.N() != 0 || fromRRuleWeekday(wd) != anchorDay {
				return nil, &model.ValidationError{
					Field:  "rrule",
					Reason: "BYDAY must be the weekday of the first occurrence (" + anchorDay.String() + ")",
				}
			}
		default:
			return nil, &model.ValidationError{Field: "rrule", Reason: "BYDAY takes a single weekday"}
		}
		rule.Freq = model.Weekly
		rule.Weekday = &anchorDay
	default:
		return nil, &model.ValidationError{Field: "rrule", Reason: "unknown frequency; use DAILY or WEEKLY"}
	}
	return &rule, nil
}

// Validate checks a rule that did not come through ParseRule.
func Validate(rule *model.RecurrenceRule, anchorStart time.Time) error {
	if rule == nil {
		return nil
	}
	switch rule.Freq {
	case model.Daily:
		if rule.Weekday != nil {
			return &model.ValidationError{Field: "rule", Reason: "weekday only applies to WEEKLY"}
		}
	case model.Weekly:
		if rule.Weekday != nil && *rule.Weekday != anchorStart.UTC().Weekday() {
			return &model.ValidationError{Field: "rule", Reason: "weekday must match the first occurrence"}
		}
	default:
		return &model.ValidationError{Field: "rule", Reason: "unknown frequency " + string(rule.Freq)}
	}
	return nil
}

// String renders the rule as RRULE text without the "RRULE:" prefix.
func String(rule *model.RecurrenceRule) string {
	if rule == nil {
		return ""
	}
	opt := rrule.ROption{Freq: rrule.DAILY}
	if rule.Freq == model.Weekly {
		opt.Freq = rrule.WEEKLY
		if rule.Weekday != nil {
			opt.Byweekday = []rrule.Weekday{toRRuleWeekday(*rule.Weekday)}
		}
	}
	return opt.RRuleString()
}
