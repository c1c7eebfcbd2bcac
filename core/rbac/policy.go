// Package rbac enforces the stored role at privileged API operations.
package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Objects and actions the policy knows about.
const (
	ObjRecords = "records"
	ObjUsers   = "users"
	ObjAudit   = "audit"

	ActRead   = "read"
	ActWrite  = "write"
	ActDelete = "delete"
	ActManage = "manage"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Rules: every role may read and create records; analysts may also delete
// records; admins may do everything, manage users and read the audit trail.
var policyRules = [][]string{
	{"user", ObjRecords, ActRead},
	{"user", ObjRecords, ActWrite},
	{"analyst", ObjRecords, ActRead},
	{"analyst", ObjRecords, ActWrite},
	{"analyst", ObjRecords, ActDelete},
	{"admin", ObjRecords, ActRead},
	{"admin", ObjRecords, ActWrite},
	{"admin", ObjRecords, ActDelete},
	{"admin", ObjUsers, ActManage},
	{"admin", ObjAudit, ActRead},
}

type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for _, rule := range policyRules {
		if _, err := e.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			return nil, err
		}
	}
	return &Policy{enforcer: e}, nil
}

// Allow reports whether role may perform act on obj. Unknown roles get no
// permissions.
func (p *Policy) Allow(role, obj, act string) bool {
	ok, err := p.enforcer.Enforce(role, obj, act)
	return err == nil && ok
}
