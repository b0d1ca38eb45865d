package view

import (
	"github.com/zhouzirui/appt-dashboard/internal/model/member"
	"github.com/zhouzirui/appt-dashboard/internal/service/loader"
)

// MemberRow is one rendered row of the members table.
type MemberRow struct {
	DisplayID   string `json:"displayId"`
	Initial     string `json:"initial"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
}

// MembersModel is the Members view model.
type MembersModel struct {
	Rows []MemberRow `json:"rows"`
}

// Members lists every member.
func Members(src Source) Definition {
	return Definition{
		Name:    "members",
		Title:   "Members",
		Path:    "/members",
		Loading: "Loading members...",
		Ops:     []loader.Op{usersOp(src)},
		Project: func(state loader.State) any {
			return ProjectMembers(usersFrom(state))
		},
	}
}

// ProjectMembers builds the members table rows in backend order.
func ProjectMembers(users []member.Member) MembersModel {
	rows := make([]MemberRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, MemberRow{
			DisplayID:   u.DisplayID(),
			Initial:     u.Initial(),
			Name:        u.Name,
			DateOfBirth: u.DateOfBirth,
		})
	}
	return MembersModel{Rows: rows}
}
