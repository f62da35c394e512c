package client

import "context"

// ListTranscripts calls GET /transcripts.
func (c *Client) ListTranscripts(ctx context.Context) ([]Transcript, error) {
	var out []Transcript
	if err := c.Get(ctx, "/transcripts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transcribe calls POST /transcribe. The backend fetches and transcribes the video
// before answering, so the call lasts as long as the transcription.
func (c *Client) Transcribe(ctx context.Context, req TranscribeRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Post(ctx, "/transcribe", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveManualTranscript calls POST /save-manual-transcript.
func (c *Client) SaveManualTranscript(ctx context.Context, req ManualTranscriptRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.Post(ctx, "/save-manual-transcript", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTranscript calls DELETE /transcripts/{id}.
func (c *Client) DeleteTranscript(ctx context.Context, id string) error {
	return c.Delete(ctx, "/transcripts/"+escape(id), nil)
}
