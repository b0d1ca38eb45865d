package view

import (
	"github.com/zhouzirui/appt-dashboard/internal/model/appointment"
	"github.com/zhouzirui/appt-dashboard/internal/model/member"
	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
)

// RecentLimit is how many appointments the dashboard lists.
const RecentLimit = 5

// DashboardModel is the Dashboard view model.
type DashboardModel struct {
	TotalMembers int                `json:"totalMembers"`
	Counts       appointment.Counts `json:"appointments"`
	Recent       []AppointmentRow   `json:"recent"`
}

// Dashboard shows aggregates and the first appointments as listed by the backend.
func Dashboard(src Source) Definition {
	return Definition{
		Name:    "dashboard",
		Title:   "Dashboard",
		Path:    "/",
		Loading: "Loading dashboard...",
		Ops:     []loader.Op{usersOp(src), appointmentsOp(src)},
		Project: func(state loader.State) any {
			return ProjectDashboard(usersFrom(state), appointmentsFrom(state))
		},
	}
}

// ProjectDashboard computes the aggregates and the recent list. The recent
// list is not re-sorted.
func ProjectDashboard(users []member.Member, items []appointment.Appointment) DashboardModel {
	recent := items
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return DashboardModel{
		TotalMembers: len(users),
		Counts:       appointment.Tally(items),
		Recent:       appointmentRows(recent, member.NewMemoryDirectory(users)),
	}
}
