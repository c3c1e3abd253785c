package port

import "errors"

// ErrDuplicate is returned by repositories when an insert collides with a
// uniqueness constraint (mission reference, validation per approver and
// level, signature per level, ticket number).
var ErrDuplicate = errors.New("duplicate record")
