package orm

import (
	"context"

	"github.com/jadedragon942/dorm/object"
)

// Operation names one of the five gateway operations.
type Operation string

const (
	OpFindAll  Operation = "findAll"
	OpFindByID Operation = "findById"
	OpCreate   Operation = "create"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
)

var operations = map[Operation]struct{}{
	OpFindAll:  {},
	OpFindByID: {},
	OpCreate:   {},
	OpUpdate:   {},
	OpDelete:   {},
}

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	if s == "" {
		return "", inputErrorf("operation is required")
	}
	op := Operation(s)
	if _, ok := operations[op]; !ok {
		return "", inputErrorf("unknown operation %q", s)
	}
	return op, nil
}

func (op Operation) needsID() bool {
	return op == OpFindByID || op == OpUpdate || op == OpDelete
}

func (op Operation) needsPayload() bool {
	return op == OpCreate || op == OpUpdate
}

// Execute runs one operation against table. The result is a
// []*object.Object for findAll, a *object.Object for the others, or nil
// when the row does not exist.
func Execute(ctx context.Context, mgr *Manager, table string, op Operation, payload *object.Object, id any) (any, error) {
	if table == "" {
		return nil, inputErrorf("table is required")
	}
	if _, err := ParseOperation(string(op)); err != nil {
		return nil, err
	}
	if op.needsID() && isMissingID(id) {
		return nil, inputErrorf("id is required for %s", op)
	}
	if op.needsPayload() && payload == nil {
		return nil, inputErrorf("data is required for %s", op)
	}

	model := mgr.Model(table)
	var (
		obj *object.Object
		err error
	)
	switch op {
	case OpFindAll:
		objs, err := model.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return objs, nil
	case OpFindByID:
		obj, err = model.FindByID(ctx, id)
	case OpCreate:
		obj, err = model.Create(ctx, payload)
	case OpUpdate:
		obj, err = model.Update(ctx, id, payload)
	case OpDelete:
		obj, err = model.Delete(ctx, id)
	}
	if err != nil || obj == nil {
		return nil, err
	}
	return obj, nil
}

func isMissingID(id any) bool {
	switch v := id.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
