package calendar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/huddle/internal/domain"
)

// fixtureFile is the YAML shape of seeded calendars:
//
//	busy:
//	  u1:
//	    - start: 2026-10-20T09:00:00Z
//	      end: 2026-10-20T10:00:00Z
type fixtureFile struct {
	Busy map[string][]domain.BusySlot `yaml:"busy"`
}

// LoadFixtures reads busy slots from a YAML file into the calendar.
func (c *MemoryCalendar) LoadFixtures(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read calendar fixtures: %w", err)
	}
	return c.LoadFixturesYAML(data)
}

func (c *MemoryCalendar) LoadFixturesYAML(data []byte) error {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse calendar fixtures: %w", err)
	}

	for user, slots := range f.Busy {
		for i, s := range slots {
			if !s.End.After(s.Start) {
				return fmt.Errorf("calendar fixtures: %s slot %d: end must be after start", user, i)
			}
		}
		c.AddBusy(domain.UserID(user), slots...)
	}
	return nil
}
