package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/nhle/taskboard/internal/model"
)

// Gateway reads and writes the board's records as JSON values in a KV.
// Every failure is returned as a storage error (model.IsStorage).
type Gateway struct {
	kv KV
}

// NewGateway wraps kv.
func NewGateway(kv KV) *Gateway {
	return &Gateway{kv: kv}
}

// LoadTasks returns the persisted collection. ok is false when nothing has
// been saved yet, which is a valid initial condition rather than an error.
func (g *Gateway) LoadTasks(ctx context.Context) (tasks []model.Task, ok bool, err error) {
	data, ok, err := g.kv.Get(ctx, KeyTasks)
	if err != nil {
		return nil, false, model.WrapStorage("load tasks", err)
	}
	if !ok {
		return []model.Task{}, false, nil
	}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, false, model.WrapStorage("load tasks", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, true, nil
}

// SaveTasks overwrites the whole persisted collection.
func (g *Gateway) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return model.WrapStorage("save tasks", err)
	}
	if err := g.kv.Put(ctx, KeyTasks, data); err != nil {
		return model.WrapStorage("save tasks", err)
	}
	return nil
}

// LoadUser returns the registered account, if any.
func (g *Gateway) LoadUser(ctx context.Context) (model.User, bool, error) {
	var u model.User
	data, ok, err := g.kv.Get(ctx, KeyUser)
	if err != nil {
		return u, false, model.WrapStorage("load user", err)
	}
	if !ok {
		return u, false, nil
	}
	if err := json.Unmarshal(data, &u); err != nil {
		return u, false, model.WrapStorage("load user", err)
	}
	return u, true, nil
}

// SaveUser stores the registered account.
func (g *Gateway) SaveUser(ctx context.Context, u model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return model.WrapStorage("save user", err)
	}
	if err := g.kv.Put(ctx, KeyUser, data); err != nil {
		return model.WrapStorage("save user", err)
	}
	return nil
}

// ClearUser removes the account and its session marker.
func (g *Gateway) ClearUser(ctx context.Context) error {
	if err := g.kv.Delete(ctx, KeyUser); err != nil {
		return model.WrapStorage("clear user", err)
	}
	if err := g.kv.Delete(ctx, KeyIsAuthenticated); err != nil {
		return model.WrapStorage("clear user", err)
	}
	return nil
}

// SetAuthenticated records whether a session is active.
func (g *Gateway) SetAuthenticated(ctx context.Context, authenticated bool) error {
	value := []byte(strconv.FormatBool(authenticated))
	if err := g.kv.Put(ctx, KeyIsAuthenticated, value); err != nil {
		return model.WrapStorage("set session", err)
	}
	return nil
}

// IsAuthenticated reports whether a session is active. A missing or
// unparsable marker counts as logged out.
func (g *Gateway) IsAuthenticated(ctx context.Context) (bool, error) {
	data, ok, err := g.kv.Get(ctx, KeyIsAuthenticated)
	if err != nil {
		return false, model.WrapStorage("read session", err)
	}
	if !ok {
		return false, nil
	}
	authenticated, err := strconv.ParseBool(string(data))
	if err != nil {
		return false, nil
	}
	return authenticated, nil
}
