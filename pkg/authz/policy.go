package authz

// modelText is a plain RBAC model with role inheritance and "*" wildcards on
// object and action.
const modelText = `
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

// DefaultPolicy: users read everything, technicians run the inventory day to day,
// admins can do anything including destructive project and bulk operations.
const DefaultPolicy = `
p, user, asset, view
p, user, asset, export
p, user, project, view
p, user, team, view
p, user, resource, view

p, technician, asset, create
p, technician, asset, edit
p, technician, asset, assign
p, technician, asset, import
p, technician, asset, change_environment
p, technician, project, allocate
p, technician, team, manage

p, admin, *, *

g, technician, user
g, admin, technician
`
