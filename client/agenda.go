package client

import "context"

// ListAgendas calls GET /agendas.
func (c *Client) ListAgendas(ctx context.Context) ([]Agenda, error) {
	var out []Agenda
	if err := c.Get(ctx, "/agendas", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAgenda calls GET /agenda. The backend returns the latest agenda.
func (c *Client) GetAgenda(ctx context.Context) (*Agenda, error) {
	var out Agenda
	if err := c.Get(ctx, "/agenda", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAgenda calls POST /agenda.
func (c *Client) CreateAgenda(ctx context.Context, req CreateAgendaRequest) (*Agenda, error) {
	var out Agenda
	if err := c.Post(ctx, "/agenda", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAgenda calls PATCH /agenda/{meetingID}.
func (c *Client) UpdateAgenda(ctx context.Context, meetingID string, req UpdateAgendaRequest) error {
	return c.Patch(ctx, "/agenda/"+escape(meetingID), req, nil)
}

// DeleteAgenda calls DELETE /agenda/{meetingID}.
func (c *Client) DeleteAgenda(ctx context.Context, meetingID string) error {
	return c.Delete(ctx, "/agenda/"+escape(meetingID), nil)
}

// ScheduleAgenda calls POST /schedule-agenda.
func (c *Client) ScheduleAgenda(ctx context.Context, agendaID string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Post(ctx, "/schedule-agenda", map[string]string{"agenda_id": agendaID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
