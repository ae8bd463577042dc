package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/internal/taxcalc"
	"occ-api/pkg/cnpj"
	"occ-api/pkg/pagination"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateClientRequest struct {
	Name             string   `json:"name" binding:"required,min=2,max=255"`
	Email            string   `json:"email" binding:"required,email"`
	Password         string   `json:"password" binding:"required,min=6"`
	Phone            string   `json:"phone" binding:"max=20"`
	CompanyName      string   `json:"company_name" binding:"required,min=2,max=255"`
	CNPJ             string   `json:"cnpj" binding:"required"`
	RegimeTributario string   `json:"regime_tributario" binding:"required"`
	CNAE             string   `json:"cnae" binding:"required"`
	CNAESecundarios  []string `json:"cnaes_secundarios"`
}

// UpdateClientRequest changes only the fields that are present.
type UpdateClientRequest struct {
	Name             *string  `json:"name" binding:"omitempty,min=2,max=255"`
	Email            *string  `json:"email" binding:"omitempty,email"`
	Password         *string  `json:"password" binding:"omitempty,min=6"`
	Phone            *string  `json:"phone" binding:"omitempty,max=20"`
	CompanyName      *string  `json:"company_name" binding:"omitempty,min=2,max=255"`
	CNPJ             *string  `json:"cnpj"`
	RegimeTributario *string  `json:"regime_tributario"`
	CNAE             *string  `json:"cnae"`
	CNAESecundarios  []string `json:"cnaes_secundarios"`
}

type CompanyResponse struct {
	ID               uuid.UUID `json:"id"`
	CompanyName      string    `json:"company_name"`
	CNPJ             string    `json:"cnpj"`
	RegimeTributario string    `json:"regime_tributario"`
	CNAE             string    `json:"cnae"`
	CNAESecundarios  []string  `json:"cnaes_secundarios"`
}

type ClientResponse struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Company   *CompanyResponse `json:"company"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

type ClientService interface {
	CreateClient(ctx context.Context, actor Actor, req CreateClientRequest) (*ClientResponse, error)
	GetClient(ctx context.Context, id string) (*ClientResponse, error)
	GetMyClient(ctx context.Context, actor Actor) (*ClientResponse, error)
	ListClients(ctx context.Context, search string, p pagination.Params) ([]ClientResponse, int64, error)
	UpdateClient(ctx context.Context, actor Actor, id string, req UpdateClientRequest) (*ClientResponse, error)
	DeleteClient(ctx context.Context, actor Actor, id string) error
}

type clientService struct {
	clients  repository.ClientRepository
	users    repository.UserRepository
	tokens   repository.RefreshTokenRepository
	tx       repository.TransactionManager
	audit    AuditService
	hashCost int
}

func NewClientService(
	clients repository.ClientRepository,
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	tx repository.TransactionManager,
	audit AuditService,
) ClientService {
	return &clientService{
		clients:  clients,
		users:    users,
		tokens:   tokens,
		tx:       tx,
		audit:    audit,
		hashCost: bcrypt.DefaultCost,
	}
}

func normalizeCNPJ(raw string) (string, error) {
	digits := cnpj.Sanitize(raw)
	if !cnpj.Valid(digits) {
		return "", invalidInput("cnpj", "CNPJ must have 14 digits with valid check digits")
	}
	return digits, nil
}

// normalizeCNAE accepts "6201-5/01" or "6201501" and returns the 7 digits.
func normalizeCNAE(field, raw string) (string, error) {
	digits := cnpj.Sanitize(raw)
	if len(digits) != 7 {
		return "", invalidInput(field, "CNAE must have 7 digits")
	}
	return digits, nil
}

func normalizeRegime(raw string) (string, error) {
	r, err := taxcalc.ParseRegime(raw)
	if err != nil {
		return "", invalidInput("regime_tributario", "must be Simples Nacional, Lucro Presumido or Lucro Real")
	}
	return r.String(), nil
}

func secondaryCNAEs(codes []string) (datatypes.JSON, error) {
	out := make([]string, 0, len(codes))
	for i, c := range codes {
		code, err := normalizeCNAE(fmt.Sprintf("cnaes_secundarios[%d]", i), c)
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func toCompanyResponse(c *model.ClientCompany) *CompanyResponse {
	if c == nil {
		return nil
	}
	secondary := []string{}
	if len(c.CNAESecundarios) > 0 {
		_ = json.Unmarshal(c.CNAESecundarios, &secondary)
	}
	return &CompanyResponse{
		ID:               c.ID,
		CompanyName:      c.CompanyName,
		CNPJ:             c.CNPJ,
		RegimeTributario: c.RegimeTributario,
		CNAE:             c.CNAE,
		CNAESecundarios:  secondary,
	}
}

func toClientResponse(c *model.Client) *ClientResponse {
	return &ClientResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   toCompanyResponse(c.Company),
		CreatedAt: c.CreatedAt.Format(timeLayout),
		UpdatedAt: c.UpdatedAt.Format(timeLayout),
	}
}

func (s *clientService) emailAvailable(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *clientService) cnpjAvailable(ctx context.Context, digits string, except *uuid.UUID) error {
	taken, err := s.clients.CNPJTaken(ctx, digits, except)
	if err != nil {
		return fmt.Errorf("failed to check CNPJ: %w", err)
	}
	if taken {
		return ErrCNPJTaken
	}
	return nil
}

func (s *clientService) CreateClient(ctx context.Context, actor Actor, req CreateClientRequest) (*ClientResponse, error) {
	digits, err := normalizeCNPJ(req.CNPJ)
	if err != nil {
		return nil, err
	}
	cnae, err := normalizeCNAE("cnae", req.CNAE)
	if err != nil {
		return nil, err
	}
	regime, err := normalizeRegime(req.RegimeTributario)
	if err != nil {
		return nil, err
	}
	secondary, err := secondaryCNAEs(req.CNAESecundarios)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var client *model.Client
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.emailAvailable(txCtx, email); err != nil {
			return err
		}
		if err := s.cnpjAvailable(txCtx, digits, nil); err != nil {
			return err
		}

		user := &model.User{
			Name:     strings.TrimSpace(req.Name),
			Email:    email,
			Password: string(hashed),
			Role:     model.RoleClient,
			Active:   true,
		}
		if err := s.users.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		client = &model.Client{
			UserID: user.ID,
			Name:   user.Name,
			Email:  email,
			Phone:  strings.TrimSpace(req.Phone),
		}
		if err := s.clients.Create(txCtx, client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		company := &model.ClientCompany{
			ClientID:         client.ID,
			CompanyName:      strings.TrimSpace(req.CompanyName),
			CNPJ:             digits,
			RegimeTributario: regime,
			CNAE:             cnae,
			CNAESecundarios:  secondary,
		}
		if err := s.clients.CreateCompany(txCtx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		client.Company = company
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, model.ActionCreateClient, "client", client.ID.String(), map[string]interface{}{
		"email": client.Email,
		"cnpj":  digits,
	})
	return toClientResponse(client), nil
}

func (s *clientService) getClient(ctx context.Context, id string) (*model.Client, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidInput("id", "invalid client id")
	}
	client, err := s.clients.GetByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}
	return client, nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (*ClientResponse, error) {
	client, err := s.getClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

func (s *clientService) GetMyClient(ctx context.Context, actor Actor) (*ClientResponse, error) {
	client, err := s.clients.GetByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}
	return toClientResponse(client), nil
}

func (s *clientService) ListClients(ctx context.Context, search string, p pagination.Params) ([]ClientResponse, int64, error) {
	clients, total, err := s.clients.List(ctx, strings.TrimSpace(search), repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	res := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		res = append(res, *toClientResponse(&clients[i]))
	}
	return res, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, actor Actor, id string, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.getClient(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.GetByID(txCtx, client.UserID)
		if err != nil {
			return fmt.Errorf("failed to fetch client user: %w", err)
		}
		userChanged := false

		if req.Name != nil {
			client.Name = strings.TrimSpace(*req.Name)
			user.Name = client.Name
			userChanged = true
		}
		if req.Phone != nil {
			client.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			if email != client.Email {
				if err := s.emailAvailable(txCtx, email); err != nil {
					return err
				}
				client.Email = email
				user.Email = email
				userChanged = true
				changes["email"] = email
			}
		}
		if req.Password != nil {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.hashCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.Password = string(hashed)
			userChanged = true
			changes["password"] = "changed"
		}

		if userChanged {
			if err := s.users.Update(txCtx, user); err != nil {
				return fmt.Errorf("failed to update client user: %w", err)
			}
		}
		if err := s.clients.Update(txCtx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}

		if client.Company == nil {
			return nil
		}
		if err := s.applyCompanyChanges(txCtx, client.Company, req, changes); err != nil {
			return err
		}
		if err := s.clients.UpdateCompany(txCtx, client.Company); err != nil {
			return fmt.Errorf("failed to update company: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, ok := changes["password"]; ok {
		_ = s.tokens.RevokeAllForUser(ctx, client.UserID, time.Now())
	}

	s.audit.Record(ctx, actor, model.ActionUpdateClient, "client", client.ID.String(), changes)
	return toClientResponse(client), nil
}

func (s *clientService) applyCompanyChanges(ctx context.Context, company *model.ClientCompany, req UpdateClientRequest, changes map[string]interface{}) error {
	if req.CompanyName != nil {
		company.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.CNPJ != nil {
		digits, err := normalizeCNPJ(*req.CNPJ)
		if err != nil {
			return err
		}
		if digits != company.CNPJ {
			if err := s.cnpjAvailable(ctx, digits, &company.ID); err != nil {
				return err
			}
			company.CNPJ = digits
			changes["cnpj"] = digits
		}
	}
	if req.RegimeTributario != nil {
		regime, err := normalizeRegime(*req.RegimeTributario)
		if err != nil {
			return err
		}
		company.RegimeTributario = regime
		changes["regime_tributario"] = regime
	}
	// An empty CNAE leaves the current one untouched.
	if req.CNAE != nil && strings.TrimSpace(*req.CNAE) != "" {
		code, err := normalizeCNAE("cnae", *req.CNAE)
		if err != nil {
			return err
		}
		company.CNAE = code
	}
	if req.CNAESecundarios != nil {
		secondary, err := secondaryCNAEs(req.CNAESecundarios)
		if err != nil {
			return err
		}
		company.CNAESecundarios = secondary
	}
	return nil
}

func (s *clientService) DeleteClient(ctx context.Context, actor Actor, id string) error {
	client, err := s.getClient(ctx, id)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clients.Delete(txCtx, client.ID); err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}
		if err := s.users.Delete(txCtx, client.UserID); err != nil {
			return fmt.Errorf("failed to delete client user: %w", err)
		}
		return s.tokens.RevokeAllForUser(txCtx, client.UserID, time.Now())
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor, model.ActionDeleteClient, "client", client.ID.String(), map[string]interface{}{"email": client.Email})
	return nil
}
