// Package auth owns authentication tokens and the authorization policy.
// Every core operation is gated through a single table mapping the
// operation to the roles allowed to perform it.
package auth

import (
	"fmt"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
)

// Operation names a gated core operation.
type Operation string

const (
	OpAddStock             Operation = "stock.add"
	OpRemoveStock          Operation = "stock.remove"
	OpViewAuditLogs        Operation = "stock.logs"
	OpRequestItem          Operation = "request.create"
	OpViewOwnRequests      Operation = "request.list-own"
	OpViewAllRequests      Operation = "request.list-all"
	OpApproveRequest       Operation = "request.approve"
	OpDeclineRequest       Operation = "request.decline"
	OpIssueItem            Operation = "request.issue"
	OpReturnItem           Operation = "request.return"
	OpProvisionStorekeeper Operation = "admin.add-storekeeper"
	OpBlacklistUser        Operation = "admin.blacklist"
	OpActivateUser         Operation = "admin.activate"
	OpListUsers            Operation = "admin.list-users"
	OpInventoryReport      Operation = "admin.inventory-report"
)

// policy is the single source of truth for role checks. Admin keeps access
// to the storekeeper processing operations.
var policy = map[Operation][]models.Role{
	OpAddStock:             {models.RoleStorekeeper, models.RoleAdmin},
	OpRemoveStock:          {models.RoleStorekeeper, models.RoleAdmin},
	OpViewAuditLogs:        {models.RoleStorekeeper, models.RoleAdmin},
	OpRequestItem:          {models.RoleStudent},
	OpViewOwnRequests:      {models.RoleStudent},
	OpViewAllRequests:      {models.RoleStorekeeper, models.RoleAdmin},
	OpApproveRequest:       {models.RoleStorekeeper, models.RoleAdmin},
	OpDeclineRequest:       {models.RoleStorekeeper, models.RoleAdmin},
	OpIssueItem:            {models.RoleStorekeeper, models.RoleAdmin},
	OpReturnItem:           {models.RoleStorekeeper, models.RoleAdmin},
	OpProvisionStorekeeper: {models.RoleAdmin},
	OpBlacklistUser:        {models.RoleAdmin},
	OpActivateUser:         {models.RoleAdmin},
	OpListUsers:            {models.RoleAdmin},
	OpInventoryReport:      {models.RoleAdmin},
}

// Authorize checks the caller against the policy table. Inactive accounts
// are rejected regardless of role.
func Authorize(user *models.User, op Operation) error {
	if user == nil {
		return apperr.Unauthorized("no authenticated user")
	}
	if !user.IsActive {
		return apperr.Authorization("user account is deactivated")
	}

	allowed, ok := policy[op]
	if !ok {
		return apperr.Authorization(fmt.Sprintf("unknown operation %q", op))
	}
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return apperr.Authorization(fmt.Sprintf("access denied: role '%s' may not perform this operation", user.Role))
}
