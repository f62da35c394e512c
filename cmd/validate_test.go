package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minuteme-cli/client"
	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

func TestValidateRequest_UpdateAgenda(t *testing.T) {
	valid := func() client.UpdateAgendaRequest {
		return client.UpdateAgendaRequest{
			MeetingName: "Sprint review",
			MeetingDate: "2026-10-20",
			Agenda: []client.AgendaItem{
				{Topic: "Demo", Priority: "urgent", TimeAllocated: "15m"},
				{Topic: "Retro"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *client.UpdateAgendaRequest)
		wantMsg string
	}{
		{name: "valid", mutate: func(r *client.UpdateAgendaRequest) {}},
		{name: "missing name", mutate: func(r *client.UpdateAgendaRequest) { r.MeetingName = "" }, wantMsg: "meeting_name is required"},
		{name: "bad date", mutate: func(r *client.UpdateAgendaRequest) { r.MeetingDate = "20/10/2026" }, wantMsg: "meeting_date must be a date like 2006-01-02"},
		{name: "no items", mutate: func(r *client.UpdateAgendaRequest) { r.Agenda = nil }, wantMsg: "agenda needs at least 1 entries"},
		{name: "item without topic", mutate: func(r *client.UpdateAgendaRequest) { r.Agenda[1].Topic = "" }, wantMsg: "agenda[1].topic is required"},
		{name: "unknown priority", mutate: func(r *client.UpdateAgendaRequest) { r.Agenda[0].Priority = "high" }, wantMsg: "agenda[0].priority must be one of: urgent discussion info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := validateRequest(req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, mmerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateRequest_CreateAgenda(t *testing.T) {
	assert.NoError(t, validateRequest(client.CreateAgendaRequest{Date: "2026-10-20", Topics: []string{"Budget"}}))
	assert.NoError(t, validateRequest(client.CreateAgendaRequest{Date: "2026-10-20", DiscussionPoints: []string{"Hiring"}}))

	err := validateRequest(client.CreateAgendaRequest{Date: "2026-10-20"})
	require.Error(t, err)
	assert.True(t, mmerrors.IsValidation(err))

	err = validateRequest(client.CreateAgendaRequest{Date: "tomorrow", Topics: []string{"Budget"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date must be a date")
}

func TestParseAgendaItem(t *testing.T) {
	tests := []struct {
		in   string
		want client.AgendaItem
	}{
		{"Budget", client.AgendaItem{Topic: "Budget"}},
		{"Budget|Urgent", client.AgendaItem{Topic: "Budget", Priority: "urgent"}},
		{" Budget | info | 10 min ", client.AgendaItem{Topic: "Budget", Priority: "info", TimeAllocated: "10 min"}},
		{"Q&A||5m", client.AgendaItem{Topic: "Q&A", TimeAllocated: "5m"}},
		{"a|b|c|d", client.AgendaItem{Topic: "a", Priority: "b", TimeAllocated: "c|d"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAgendaItem(tt.in))
		})
	}
}
