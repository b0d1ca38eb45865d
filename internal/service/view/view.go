package view

import (
	"context"

	"github.com/zhouzirui/appt-dashboard/internal/model/appointment"
	"github.com/zhouzirui/appt-dashboard/internal/model/member"
	"github.com/zhouzirui/appt-dashboard/internal/service/backend"
	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
)

// Op names shared by the views.
const (
	OpUsers        = "users"
	OpAppointments = "appointments"
)

// Source is the slice of the backend client the views need.
type Source interface {
	FetchUsers(ctx context.Context) ([]member.Member, error)
	FetchAppointments(ctx context.Context) ([]appointment.Appointment, error)
	FetchRaw(ctx context.Context, path string) (backend.RawResponse, error)
}

// Definition binds a route to its fetches and its projection.
type Definition struct {
	Name  string
	Title string
	Path  string
	// Loading is shown while the fetches are in flight.
	Loading string
	Ops     []loader.Op
	// Project turns a Ready state into the view model the template renders.
	Project func(loader.State) any
}

// All returns the views in navigation order.
func All(src Source) []Definition {
	return []Definition{
		Dashboard(src),
		Members(src),
		Appointments(src),
		Debug(src),
	}
}

// Find returns the definition called name.
func Find(defs []Definition, name string) (Definition, bool) {
	for _, def := range defs {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

func usersOp(src Source) loader.Op {
	return loader.Op{Name: OpUsers, Fetch: func(ctx context.Context) (any, error) {
		return src.FetchUsers(ctx)
	}}
}

func appointmentsOp(src Source) loader.Op {
	return loader.Op{Name: OpAppointments, Fetch: func(ctx context.Context) (any, error) {
		return src.FetchAppointments(ctx)
	}}
}

func usersFrom(state loader.State) []member.Member {
	users, _ := loader.Result[[]member.Member](state, OpUsers)
	return users
}

func appointmentsFrom(state loader.State) []appointment.Appointment {
	items, _ := loader.Result[[]appointment.Appointment](state, OpAppointments)
	return items
}
