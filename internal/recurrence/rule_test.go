package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

func TestParseRule(t *testing.T) {
	wednesday := at("2024-01-03T09:00:00Z")

	tests := []struct {
		name    string
		text    string
		want    *model.RecurrenceRule
		wantErr bool
	}{
		{name: "empty is single", text: "  "},
		{name: "daily", text: "FREQ=DAILY", want: &model.RecurrenceRule{Freq: model.Daily}},
		{name: "prefixed", text: "RRULE:FREQ=DAILY", want: &model.RecurrenceRule{Freq: model.Daily}},
		{name: "weekly takes anchor day", text: "FREQ=WEEKLY",
			want: &model.RecurrenceRule{Freq: model.Weekly, Weekday: weekday(time.Wednesday)}},
		{name: "weekly byday", text: "FREQ=WEEKLY;BYDAY=WE",
			want: &model.RecurrenceRule{Freq: model.Weekly, Weekday: weekday(time.Wednesday)}},
		{name: "byday other weekday", text: "FREQ=WEEKLY;BYDAY=TH", wantErr: true},
		{name: "byday several", text: "FREQ=WEEKLY;BYDAY=WE,TH", wantErr: true},
		{name: "byday on daily", text: "FREQ=DAILY;BYDAY=WE", wantErr: true},
		{name: "monthly", text: "FREQ=MONTHLY", wantErr: true},
		{name: "count", text: "FREQ=DAILY;COUNT=3", wantErr: true},
		{name: "until", text: "FREQ=DAILY;UNTIL=20240201T000000Z", wantErr: true},
		{name: "interval", text: "FREQ=WEEKLY;INTERVAL=2", wantErr: true},
		{name: "garbage", text: "FREQ=SOMETIMES", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRule(tt.text, wednesday)
			if tt.wantErr {
				var verr *model.ValidationError
				require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
				assert.Equal(t, "rrule", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringRendersRRule(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "FREQ=DAILY", String(&model.RecurrenceRule{Freq: model.Daily}))
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=WE",
		String(&model.RecurrenceRule{Freq: model.Weekly, Weekday: weekday(time.Wednesday)}))
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SU",
		String(&model.RecurrenceRule{Freq: model.Weekly, Weekday: weekday(time.Sunday)}))

	anchor := at("2024-01-07T09:00:00Z") // Sunday
	rule, err := ParseRule(String(&model.RecurrenceRule{Freq: model.Weekly, Weekday: weekday(time.Sunday)}), anchor)
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, *rule.Weekday)
}

func TestValidate(t *testing.T) {
	wednesday := at("2024-01-03T09:00:00Z")
	assert.NoError(t, Validate(nil, wednesday))
	assert.NoError(t, Validate(&model.RecurrenceRule{Freq: model.Daily}, wednesday))
	assert.NoError(t, Validate(&model.RecurrenceRule{Freq: model.Weekly, Weekday: weekday(time.Wednesday)}, wednesday))
	assert.Error(t, Validate(&model.RecurrenceRule{Freq: model.Weekly, Weekday: weekday(time.Monday)}, wednesday))
	assert.Error(t, Validate(&model.RecurrenceRule{Freq: model.Daily, Weekday: weekday(time.Wednesday)}, wednesday))
	assert.Error(t, Validate(&model.RecurrenceRule{Freq: "HOURLY"}, wednesday))
}
