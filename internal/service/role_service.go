package service

import (
	"context"
	"fmt"

	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

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
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	roleRepo  repository.RoleRepository
	txManager repository.TransactionManager
}

func NewRoleService(roleRepo repository.RoleRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{roleRepo: roleRepo, txManager: txManager}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	permIDs := make([]uuid.UUID, 0, len(req.Permissions))
	for _, pid := range req.Permissions {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
		}
		permIDs = append(permIDs, parsed)
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roleRepo.Create(txCtx, &role); err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}
		if len(permIDs) > 0 {
			if err := s.roleRepo.UpdatePermissions(txCtx, role.ID, permIDs); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload with permissions
	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("role not found: %w", err)
	}

	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s'", role.Name)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Clear associations before deleting
		if err := s.roleRepo.UpdatePermissions(txCtx, roleID, nil); err != nil {
			return fmt.Errorf("failed to clear permissions: %w", err)
		}
		if err := s.roleRepo.Delete(txCtx, roleID); err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}
		return nil
	})
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roleRepo.ListPermissions(ctx)
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
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, pid := range req.PermissionIDs {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
		}
		permIDs = append(permIDs, parsed)
	}

	if err := s.roleRepo.UpdatePermissions(ctx, id, permIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	return s.GetRole(ctx, roleID)
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.roleRepo.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("role '%s' not found: %w", roleName, err)
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	// Define all permissions
	defaultPermissions := []model.Permission{
		{Code: "events.submit", Name: "Submit domain events", Group: "events"},
		{Code: "events.read", Name: "View event log", Group: "events"},
		{Code: "approvals.read", Name: "View approval queue", Group: "approvals"},
		{Code: "approvals.decide", Name: "Approve / deny queue entries", Group: "approvals"},
		{Code: "tracking.read", Name: "View tracking records", Group: "tracking"},
		{Code: "notifications.read", Name: "View notifications", Group: "notifications"},
		{Code: "metrics.read", Name: "View portfolio rollups", Group: "metrics"},
		{Code: "properties.read", Name: "View properties & leases", Group: "properties"},
		{Code: "properties.write", Name: "Manage properties & leases", Group: "properties"},
		{Code: "users.read", Name: "View users", Group: "users"},
		{Code: "users.write", Name: "Manage users", Group: "users"},
		{Code: "users.delete", Name: "Delete users", Group: "users"},
		{Code: "audit.read", Name: "View audit trail", Group: "audit"},
		{Code: "roles.manage", Name: "Manage roles & permissions", Group: "roles"},
	}

	// Upsert permissions
	for i := range defaultPermissions {
		if err := s.roleRepo.FindOrCreatePermission(ctx, &defaultPermissions[i]); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", defaultPermissions[i].Code, err)
		}
	}

	// Build permission maps by code for easy lookup
	permByCode := make(map[string]model.Permission)
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
	}

	// Define roles with their permissions
	roleDefinitions := map[string]struct {
		Description string
		PermCodes   []string
	}{
		model.RoleAdmin: {
			Description: "Administrator with full system access",
			PermCodes: []string{
				"events.submit", "events.read",
				"approvals.read", "approvals.decide",
				"tracking.read", "notifications.read", "metrics.read",
				"properties.read", "properties.write",
				"users.read", "users.write", "users.delete",
				"audit.read", "roles.manage",
			},
		},
		model.RoleOwner: {
			Description: "Property owner reviewing approvals and portfolio rollups",
			PermCodes: []string{
				"events.submit", "events.read",
				"approvals.read", "approvals.decide",
				"tracking.read", "notifications.read", "metrics.read",
				"properties.read",
				"audit.read",
			},
		},
		model.RoleManager: {
			Description: "Manager running day-to-day operations",
			PermCodes: []string{
				"events.submit",
				"approvals.read",
				"tracking.read", "notifications.read", "metrics.read",
				"properties.read", "properties.write",
				"users.read",
				"audit.read",
			},
		},
		model.RoleTenant: {
			Description: "Tenant reporting issues and making payments",
			PermCodes: []string{
				"events.submit",
				"tracking.read", "notifications.read",
			},
		},
		model.RoleHandyman: {
			Description: "Handyman completing jobs and submitting expenses",
			PermCodes: []string{
				"events.submit",
				"tracking.read", "notifications.read",
			},
		},
		model.RoleAccountant: {
			Description: "Accountant with read-only financial visibility",
			PermCodes: []string{
				"tracking.read", "metrics.read",
				"audit.read",
			},
		},
	}

	for roleName, def := range roleDefinitions {
		role, err := s.roleRepo.FindByName(ctx, roleName)
		if err != nil {
			// Create role
			role = &model.Role{
				Name:        roleName,
				Description: def.Description,
				IsSystem:    true,
			}
			if createErr := s.roleRepo.Create(ctx, role); createErr != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, createErr)
			}
		}

		// Assign permissions
		permIDs := make([]uuid.UUID, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				permIDs = append(permIDs, p.ID)
			}
		}
		if err := s.roleRepo.UpdatePermissions(ctx, role.ID, permIDs); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
		}
	}

	return nil
}

// --- Helpers ---

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
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
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
