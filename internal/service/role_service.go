package service

import (
	"context"
	"errors"
	"fmt"

	"occ-api/internal/model"
	"occ-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo repository.RoleRepository
	tx   repository.TransactionManager
}

func NewRoleService(repo repository.RoleRepository, tx repository.TransactionManager) RoleService {
	return &roleService{repo: repo, tx: tx}
}

var defaultPermissions = []model.Permission{
	{Code: model.PermDashboardRead, Name: "Ver dashboard e estatísticas", Group: "dashboard"},
	{Code: model.PermUsersManage, Name: "Gerenciar usuários da equipe", Group: "users"},
	{Code: model.PermRolesManage, Name: "Gerenciar permissões", Group: "roles"},
	{Code: model.PermClientsRead, Name: "Ver clientes", Group: "clients"},
	{Code: model.PermClientsWrite, Name: "Gerenciar clientes", Group: "clients"},
	{Code: model.PermContentWrite, Name: "Publicar posts e categorias", Group: "content"},
	{Code: model.PermSurveysWrite, Name: "Gerenciar pesquisas", Group: "surveys"},
	{Code: model.PermSurveyResponsesRead, Name: "Ver respostas de pesquisas", Group: "surveys"},
	{Code: model.PermTaxPlansManage, Name: "Gerenciar planejamentos tributários", Group: "tax"},
	{Code: model.PermActivityTypesWrite, Name: "Gerenciar tipos de atividade", Group: "tax"},
	{Code: model.PermTaxSimulate, Name: "Simular regimes sem salvar", Group: "tax"},
	{Code: model.PermCNAECacheManage, Name: "Gerenciar cache de CNAE", Group: "cnae"},
	{Code: model.PermAuditRead, Name: "Ver histórico de atividades", Group: "audit"},
}

// defaultRoles maps role name to its description and granted codes; nil grants every code.
var defaultRoles = []struct {
	Name        string
	Description string
	PermCodes   []string
}{
	{model.RoleSuperAdmin, "Acesso total ao sistema", nil},
	{model.RoleAdmin, "Equipe do escritório", []string{
		model.PermDashboardRead,
		model.PermClientsRead, model.PermClientsWrite,
		model.PermContentWrite,
		model.PermSurveysWrite, model.PermSurveyResponsesRead,
		model.PermTaxPlansManage, model.PermActivityTypesWrite, model.PermTaxSimulate,
		model.PermCNAECacheManage,
		model.PermAuditRead,
	}},
	{model.RoleClient, "Cliente do escritório", []string{}},
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, invalidInput("id", "invalid role id")
	}

	permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, pid := range req.PermissionIDs {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, invalidInput("permission_ids", "invalid permission id '%s'", pid)
		}
		permIDs = append(permIDs, parsed)
	}

	role, err := s.repo.FindByIDWithPermissions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}
	if role.Name == model.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: %s permissions are fixed", ErrForbidden, model.RoleSuperAdmin)
	}

	if err := s.repo.ReplacePermissions(ctx, id, permIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	updated, err := s.repo.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload role: %w", err)
	}
	resp := toRoleResponse(*updated)
	return &resp, nil
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.repo.GetPermissionCodes(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions for role '%s': %w", roleName, err)
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present.
// A new role gets its default grants; an existing role only receives permissions created by this run,
// so changes made through UpdateRolePermissions survive restarts.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existingPerms, err := s.repo.ListPermissions(txCtx)
		if err != nil {
			return fmt.Errorf("failed to list permissions: %w", err)
		}
		known := make(map[string]bool, len(existingPerms))
		for _, p := range existingPerms {
			known[p.Code] = true
		}

		existingRoles, err := s.repo.ListAll(txCtx)
		if err != nil {
			return fmt.Errorf("failed to list roles: %w", err)
		}
		roleExists := make(map[string]bool, len(existingRoles))
		for _, r := range existingRoles {
			roleExists[r.Name] = true
		}

		idByCode := make(map[string]uuid.UUID, len(defaultPermissions))
		for _, def := range defaultPermissions {
			p := def
			if err := s.repo.FindOrCreatePermission(txCtx, &p); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
			}
			idByCode[p.Code] = p.ID
		}

		for _, def := range defaultRoles {
			role := model.Role{Name: def.Name, Description: def.Description, IsSystem: true}
			if err := s.repo.FindOrCreateRole(txCtx, &role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
			}

			grant := make([]uuid.UUID, 0, len(idByCode))
			for _, p := range defaultPermissions {
				if def.PermCodes != nil && !contains(def.PermCodes, p.Code) {
					continue
				}
				if roleExists[def.Name] && known[p.Code] {
					continue
				}
				grant = append(grant, idByCode[p.Code])
			}

			if !roleExists[def.Name] {
				err = s.repo.ReplacePermissions(txCtx, role.ID, grant)
			} else {
				err = s.repo.AppendPermissions(txCtx, role.ID, grant)
			}
			if err != nil {
				return fmt.Errorf("failed to assign permissions to role '%s': %w", def.Name, err)
			}
		}
		return nil
	})
}

// --- Helpers ---

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format(timeLayout),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
