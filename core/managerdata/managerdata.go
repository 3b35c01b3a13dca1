// Package managerdata composes the template data of a manager and their team.
package managerdata

import (
	"context"

	"github.com/kat-co/vala"

	"github.com/gregoryekhator/debonairkent/core/bundle"
	"github.com/gregoryekhator/debonairkent/core/course"
	"github.com/gregoryekhator/debonairkent/core/user"
	"github.com/gregoryekhator/debonairkent/core/userdata"
)

const (
	Name = "managerdata"

	SectionManager   = "manager"
	SectionTeamStats = "teamstats"
)

type Composer struct {
	users    *user.Service
	courses  *course.Service
	userdata *userdata.Composer
	builder  *bundle.Builder
}

func NewComposer(users *user.Service, courses *course.Service, ud *userdata.Composer) (*Composer, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(ud, "userdata"),
	).Check(); err != nil {
		return nil, err
	}

	c := &Composer{users: users, courses: courses, userdata: ud}
	c.builder = bundle.NewBuilder(Name,
		func(s interface{}) bool {
			usr, ok := s.(*user.User)
			return ok && usr.IsValid()
		},
		bundle.Section{Name: SectionManager, Run: c.includeManager},
		bundle.Section{Name: SectionTeamStats, Run: c.includeTeamStats},
	)
	return c, nil
}

// Build returns the bundle of manager holding the requested sections.
func (c *Composer) Build(ctx context.Context, manager *user.User, requested map[string]interface{}) (bundle.Bundle, error) {
	return c.builder.Build(ctx, manager, requested)
}

func (c *Composer) includeManager(ctx context.Context, st *bundle.State, _ interface{}) error {
	manager := st.Subject.(*user.User)

	ub, err := c.userdata.Build(ctx, manager, nil)
	if err != nil {
		return err
	}
	data, _ := ub[userdata.SectionUser].(map[string]interface{})
	if data == nil {
		data = map[string]interface{}{}
	}
	data["myteamurl"] = c.courses.URL("/my/teammembers.php", nil)

	st.Set(SectionManager, data, true)
	return nil
}

func (c *Composer) includeTeamStats(ctx context.Context, st *bundle.State, _ interface{}) error {
	manager := st.Subject.(*user.User)
	st.Bundle[bundle.HasKey(SectionTeamStats)] = false

	if !c.users.HasJobAssignments() {
		return nil
	}
	staff, err := c.users.Staff(ctx, manager.ID)
	if err != nil {
		return err
	}
	if len(staff) == 0 {
		return nil
	}

	ids := make([]int, 0, len(staff))
	for _, u := range staff {
		ids = append(ids, u.ID)
	}
	team := map[string]interface{}{"staffnum": len(staff)}

	stats, err := c.courses.TeamStats(ctx, manager.ID, ids)
	if err != nil {
		return err
	}
	for name, count := range stats {
		team[name] = count
	}

	st.Set(SectionTeamStats, team, true)
	return nil
}
