package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"formhub/config"

	"go.uber.org/zap"
)

// CRMService creates sales records in the remote CRM. A password-grant token
// is obtained first; without it no object is created. The Account is created
// before its linked Contact, and a failure in between leaves the Account
// standing (no compensation beyond the ordering).
type CRMService struct {
	cfg    config.SalesforceConfig
	client *http.Client
	logger *zap.Logger
}

func NewCRMService(cfg config.SalesforceConfig, logger *zap.Logger) *CRMService {
	return &CRMService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type CreateAccountRequest struct {
	AccountName  string `json:"account_name" binding:"required"`
	ContactName  string `json:"contact_name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
}

type CreateAccountResult struct {
	AccountID string `json:"account_id"`
	ContactID string `json:"contact_id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

type sobjectResponse struct {
	ID string `json:"id"`
}

func (s *CRMService) CreateAccount(req *CreateAccountRequest) (*CreateAccountResult, error) {
	token, err := s.getAccessToken()
	if err != nil {
		return nil, err
	}

	accountID, err := s.createObject(token, "Account", map[string]string{
		"Name": req.AccountName,
	})
	if err != nil {
		return nil, err
	}

	contactID, err := s.createObject(token, "Contact", map[string]string{
		"LastName":  req.ContactName,
		"Email":     req.ContactEmail,
		"AccountId": accountID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("crm account created",
		zap.String("account_id", accountID),
		zap.String("contact_id", contactID))
	return &CreateAccountResult{AccountID: accountID, ContactID: contactID}, nil
}

func (s *CRMService) getAccessToken() (*tokenResponse, error) {
	params := url.Values{}
	params.Set("grant_type", "password")
	params.Set("client_id", s.cfg.ClientID)
	params.Set("client_secret", s.cfg.ClientSecret)
	params.Set("username", s.cfg.Username)
	params.Set("password", s.cfg.Password)

	resp, err := s.client.Post(s.cfg.LoginURL, "application/x-www-form-urlencoded",
		strings.NewReader(params.Encode()))
	if err != nil {
		s.logger.Error("crm token request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCRMUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		remote, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("crm token request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", remote))
		return nil, fmt.Errorf("%w: status %d: %s", ErrCRMUpstream, resp.StatusCode, remote)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCRMUpstream, err)
	}
	return &token, nil
}

func (s *CRMService) createObject(token *tokenResponse, object string, fields map[string]string) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/services/data/v58.0/sobjects/%s", token.InstanceURL, object)
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("crm object request failed", zap.String("object", object), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrCRMUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("crm object request rejected",
			zap.String("object", object),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", remote))
		return "", fmt.Errorf("%w: status %d: %s", ErrCRMUpstream, resp.StatusCode, remote)
	}

	var created sobjectResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCRMUpstream, err)
	}
	return created.ID, nil
}
