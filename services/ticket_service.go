package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"formhub/config"

	"go.uber.org/zap"
)

var allowedPriorities = map[string]bool{
	"High":   true,
	"Medium": true,
	"Low":    true,
}

// TicketService creates support tickets in the remote issue tracker. The
// remote user record for the caller's email is ensured before the issue is
// created; the returned URL is browsable.
type TicketService struct {
	cfg    config.JiraConfig
	client *http.Client
	logger *zap.Logger
}

func NewTicketService(cfg config.JiraConfig, logger *zap.Logger) *TicketService {
	return &TicketService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type CreateTicketRequest struct {
	Summary       string `json:"summary" binding:"required"`
	Priority      string `json:"priority" binding:"required"`
	TemplateTitle string `json:"template_title"`
}

type issueFields struct {
	Project     map[string]string `json:"project"`
	Summary     string            `json:"summary"`
	Description ticketDoc         `json:"description"`
	IssueType   map[string]string `json:"issuetype"`
	Priority    map[string]string `json:"priority"`
}

// ticketDoc is the tracker's rich-text document envelope.
type ticketDoc struct {
	Type    string       `json:"type"`
	Version int          `json:"version"`
	Content []docContent `json:"content"`
}

type docContent struct {
	Type    string     `json:"type"`
	Content []docInner `json:"content"`
}

type docInner struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type remoteUser struct {
	EmailAddress string `json:"emailAddress"`
}

type issueResponse struct {
	Key string `json:"key"`
}

func (s *TicketService) CreateTicket(userEmail, pageLink string, req *CreateTicketRequest) (string, error) {
	if !allowedPriorities[req.Priority] {
		return "", ErrInvalidPriority
	}
	if pageLink == "" {
		pageLink = "Not specified"
	}

	if err := s.ensureUser(userEmail); err != nil {
		return "", err
	}

	payload := map[string]issueFields{
		"fields": {
			Project: map[string]string{"key": s.cfg.ProjectKey},
			Summary: req.Summary,
			Description: ticketDoc{
				Type:    "doc",
				Version: 1,
				Content: []docContent{{
					Type: "paragraph",
					Content: []docInner{{
						Type: "text",
						Text: fmt.Sprintf("Ticket created from: %s", pageLink),
					}},
				}},
			},
			IssueType: map[string]string{"name": "Story"},
			Priority:  map[string]string{"name": req.Priority},
		},
	}

	var issue issueResponse
	if err := s.do(http.MethodPost, "/rest/api/3/issue", payload, &issue); err != nil {
		return "", err
	}

	ticketURL := fmt.Sprintf("%s/browse/%s", s.cfg.BaseURL, issue.Key)
	s.logger.Info("ticket created", zap.String("key", issue.Key), zap.String("email", userEmail))
	return ticketURL, nil
}

// ensureUser looks the email up in the tracker and creates the user when the
// search comes back empty.
func (s *TicketService) ensureUser(email string) error {
	var found []remoteUser
	path := "/rest/api/3/user/search?query=" + url.QueryEscape(email)
	if err := s.do(http.MethodGet, path, nil, &found); err != nil {
		return err
	}
	if len(found) > 0 {
		return nil
	}

	payload := map[string]interface{}{
		"emailAddress": email,
		"displayName":  email,
		"active":       true,
		"products":     []string{},
	}
	return s.do(http.MethodPost, "/rest/api/3/user", payload, nil)
}

func (s *TicketService) do(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.cfg.Email, s.cfg.APIToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("ticketing request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTicketUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("ticketing request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", remote))
		return fmt.Errorf("%w: status %d: %s", ErrTicketUpstream, resp.StatusCode, remote)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrTicketUpstream, err)
		}
	}
	return nil
}
