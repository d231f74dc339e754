package api

import (
	"context"
	"fmt"

	"github.com/tuannvm/agentctl/internal/document"
)

// Assistant is the platform's view of a deployed assistant.
type Assistant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Squad is the platform's view of a deployed squad.
type Squad struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Tool is the platform's view of a shared tool.
type Tool struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Platform exposes the remote operations the engine needs. Satisfied by
// *Service against the real API and by fakes in tests.
type Platform interface {
	CreateAssistant(ctx context.Context, payload document.Document) (*Assistant, error)
	UpdateAssistant(ctx context.Context, id string, payload document.Document) (*Assistant, error)
	GetAssistant(ctx context.Context, id string) (*Assistant, error)
	ListAssistants(ctx context.Context, limit int) ([]Assistant, error)
	DeleteAssistant(ctx context.Context, id string) error

	CreateSquad(ctx context.Context, payload document.Document) (*Squad, error)
	UpdateSquad(ctx context.Context, id string, payload document.Document) (*Squad, error)
	GetSquad(ctx context.Context, id string) (*Squad, error)
	ListSquads(ctx context.Context, limit int) ([]Squad, error)
	DeleteSquad(ctx context.Context, id string) error

	CreateTool(ctx context.Context, payload document.Document) (*Tool, error)
	ListTools(ctx context.Context, limit int) ([]Tool, error)
	DeleteTool(ctx context.Context, id string) error
}

// Service implements Platform over a Client.
type Service struct {
	client *Client
}

// NewService wraps a transport client.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

var _ Platform = (*Service)(nil)

func (s *Service) CreateAssistant(ctx context.Context, payload document.Document) (*Assistant, error) {
	var out Assistant
	if err := s.client.Post(ctx, "assistant", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) UpdateAssistant(ctx context.Context, id string, payload document.Document) (*Assistant, error) {
	if err := s.client.Patch(ctx, "assistant/"+id, payload, nil); err != nil {
		return nil, err
	}
	// Re-read after write: the platform is eventually consistent.
	var out Assistant
	if err := s.client.GetWithRetry(ctx, "assistant/"+id, &out); err != nil {
		return nil, fmt.Errorf("assistant %s updated but refetch failed: %w", id, err)
	}
	return &out, nil
}

func (s *Service) GetAssistant(ctx context.Context, id string) (*Assistant, error) {
	var out Assistant
	if err := s.client.Get(ctx, "assistant/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListAssistants(ctx context.Context, limit int) ([]Assistant, error) {
	path := "assistant"
	if limit > 0 {
		path = fmt.Sprintf("assistant?limit=%d", limit)
	}
	var out []Assistant
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeleteAssistant(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "assistant/"+id, nil)
}

func (s *Service) CreateSquad(ctx context.Context, payload document.Document) (*Squad, error) {
	var out Squad
	if err := s.client.Post(ctx, "squad", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) UpdateSquad(ctx context.Context, id string, payload document.Document) (*Squad, error) {
	if err := s.client.Patch(ctx, "squad/"+id, payload, nil); err != nil {
		return nil, err
	}
	var out Squad
	if err := s.client.GetWithRetry(ctx, "squad/"+id, &out); err != nil {
		return nil, fmt.Errorf("squad %s updated but refetch failed: %w", id, err)
	}
	return &out, nil
}

func (s *Service) GetSquad(ctx context.Context, id string) (*Squad, error) {
	var out Squad
	if err := s.client.Get(ctx, "squad/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListSquads(ctx context.Context, limit int) ([]Squad, error) {
	path := "squad"
	if limit > 0 {
		path = fmt.Sprintf("squad?limit=%d", limit)
	}
	var out []Squad
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeleteSquad(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "squad/"+id, nil)
}

func (s *Service) CreateTool(ctx context.Context, payload document.Document) (*Tool, error) {
	var out Tool
	if err := s.client.Post(ctx, "tool", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListTools(ctx context.Context, limit int) ([]Tool, error) {
	path := "tool"
	if limit > 0 {
		path = fmt.Sprintf("tool?limit=%d", limit)
	}
	var out []Tool
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeleteTool(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "tool/"+id, nil)
}
