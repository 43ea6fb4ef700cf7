// Package rbac builds the casbin enforcer that maps roles to resource actions.
//
// Roles are fixed (patient, doctor, admin), so policies live in code rather
// than in a database table.
package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// Roles.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Objects and actions used by route guards.
const (
	ObjRecords       = "records"
	ObjConsultations = "consultations"
	ObjAuditLogs     = "audit_logs"

	ActCreate = "create"
	ActRead   = "read"
)

// Policy grants Role the right to perform Act on Obj. "*" matches anything.
type Policy struct {
	Role string
	Obj  string
	Act  string
}

// DefaultPolicies is the policy set the API ships with. Ownership of a
// specific record is checked by the usecases, not here.
var DefaultPolicies = []Policy{
	{Role: RoleAdmin, Obj: "*", Act: "*"},
	{Role: RoleDoctor, Obj: ObjRecords, Act: ActCreate},
	{Role: RoleDoctor, Obj: ObjRecords, Act: ActRead},
	{Role: RoleDoctor, Obj: ObjConsultations, Act: ActCreate},
	{Role: RoleDoctor, Obj: ObjConsultations, Act: ActRead},
	{Role: RolePatient, Obj: ObjRecords, Act: ActRead},
	{Role: RolePatient, Obj: ObjConsultations, Act: ActRead},
}

// NewEnforcer returns an enforcer loaded with policies.
func NewEnforcer(policies []Policy) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac: parse model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac: new enforcer: %w", err)
	}

	rules := make([][]string, 0, len(policies))
	for _, p := range policies {
		rules = append(rules, []string{p.Role, p.Obj, p.Act})
	}
	if len(rules) > 0 {
		if _, err := e.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("rbac: add policies: %w", err)
		}
	}

	return e, nil
}

// IsRole reports whether role is one of the known roles.
func IsRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	default:
		return false
	}
}
