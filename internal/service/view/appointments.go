package view

import (
	"github.com/zhouzirui/appt-dashboard/internal/model/appointment"
	"github.com/zhouzirui/appt-dashboard/internal/model/member"
	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
)

// AppointmentRow is one rendered appointment with its member name resolved.
type AppointmentRow struct {
	DisplayID  string `json:"displayId"`
	UserID     int64  `json:"userId"`
	MemberName string `json:"memberName"`
	Purpose    string `json:"purpose"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	Badge      string `json:"badge"`
}

// AppointmentsModel is the Appointments view model.
type AppointmentsModel struct {
	Rows []AppointmentRow `json:"rows"`
}

// Appointments lists every appointment joined to its member.
func Appointments(src Source) Definition {
	return Definition{
		Name:    "appointments",
		Title:   "Appointments",
		Path:    "/appointments",
		Loading: "Loading appointments...",
		Ops:     []loader.Op{appointmentsOp(src), usersOp(src)},
		Project: func(state loader.State) any {
			return ProjectAppointments(appointmentsFrom(state), usersFrom(state))
		},
	}
}

// ProjectAppointments resolves member names and keeps backend order.
func ProjectAppointments(items []appointment.Appointment, users []member.Member) AppointmentsModel {
	return AppointmentsModel{Rows: appointmentRows(items, member.NewMemoryDirectory(users))}
}

func appointmentRows(items []appointment.Appointment, dir member.Directory) []AppointmentRow {
	rows := make([]AppointmentRow, 0, len(items))
	for _, a := range items {
		rows = append(rows, AppointmentRow{
			DisplayID:  a.DisplayID(),
			UserID:     a.UserID,
			MemberName: dir.NameFor(a.UserID),
			Purpose:    a.Purpose,
			Date:       a.AppointmentDate,
			Time:       a.AppointmentTime,
			Status:     a.Status,
			Badge:      a.Badge(),
		})
	}
	return rows
}
