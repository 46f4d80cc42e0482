package scheduler

import (
	"math/rand"
	"time"

	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const moduleName = "scheduler"

// offeringsPerSaturday is the number of offering collectors drawn for each
// Saturday service.
const offeringsPerSaturday = 2

// Generator produces duty schedules by seeded random draw. The key duty
// rotates circularly: no deacon holds the key again until every roster member
// has held it once in the current round.
type Generator struct {
	roster []string
	rng    *rand.Rand

	// usedKeys tracks who already held the key in the current rotation round.
	usedKeys map[string]struct{}
	// weeklyKeys maps the anchor Saturday date to the deacon drawn for the
	// key that week.
	weeklyKeys map[time.Time]string
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator reproducible: the same seed and roster always
// produce the same schedule.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Generator for the given roster. The roster is copied and
// never mutated. An empty roster is an error.
func New(roster []string, opts ...Option) (*Generator, error) {
	if len(roster) == 0 {
		return nil, exception.NewBatchError(moduleName, "the deacon roster cannot be empty", exception.ErrEmptyRoster, false, false)
	}

	names := make([]string, len(roster))
	copy(names, roster)

	g := &Generator{
		roster:     names,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		usedKeys:   make(map[string]struct{}),
		weeklyKeys: make(map[time.Time]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Roster returns a copy of the generator's roster.
func (g *Generator) Roster() []string {
	names := make([]string, len(g.roster))
	copy(names, g.roster)
	return names
}

// Reset clears the rotation state so a fresh schedule can be generated.
func (g *Generator) Reset() {
	g.usedKeys = make(map[string]struct{})
	g.weeklyKeys = make(map[time.Time]string)
}

// draw picks one name uniformly from the candidates.
func (g *Generator) draw(candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", exception.NewBatchError(moduleName, "no deacons available for the draw", exception.ErrNoCandidates, false, false)
	}
	return candidates[g.rng.Intn(len(candidates))], nil
}

// remove returns a new slice without the named deacon.
func remove(names []string, name string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// nextKeyHolder draws the next key holder using circular rotation: once every
// roster member has been drawn, the round restarts.
func (g *Generator) nextKeyHolder() string {
	if len(g.usedKeys) >= len(g.roster) {
		g.usedKeys = make(map[string]struct{})
	}

	candidates := make([]string, 0, len(g.roster))
	for _, name := range g.roster {
		if _, used := g.usedKeys[name]; !used {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		g.usedKeys = make(map[string]struct{})
		candidates = g.Roster()
	}

	// Cannot fail: candidates is never empty here.
	chosen := candidates[g.rng.Intn(len(candidates))]
	g.usedKeys[chosen] = struct{}{}
	return chosen
}

// AssignmentsFor produces the assignments of a single service date, advancing
// the generator's rotation state. Dates must be fed in chronological order
// for the weekly key anchoring to hold.
func (g *Generator) AssignmentsFor(sd ServiceDate) ([]model.Assignment, error) {
	date := sd.Date
	if sd.Day == model.DaySaturday {
		keyHolder := g.nextKeyHolder()
		g.weeklyKeys[date] = keyHolder

		assignments := []model.Assignment{
			{Name: keyHolder, Role: model.RoleKey, Day: model.DaySaturday, Date: &date},
		}
		for i := 0; i < offeringsPerSaturday; i++ {
			collector, err := g.draw(g.roster)
			if err != nil {
				return nil, err
			}
			assignments = append(assignments, model.Assignment{
				Name: collector, Role: model.RoleOffering, Day: model.DaySaturday, Date: &date,
			})
		}
		return assignments, nil
	}

	// Sunday and Wednesday carry only the key, held by whoever was drawn on
	// the anchor Saturday of the same week.
	var keyHolder string
	if anchor, ok := WeekAnchorSaturday(date); ok {
		if name, found := g.weeklyKeys[anchor]; found {
			keyHolder = name
		}
	}
	if keyHolder == "" {
		// No anchor Saturday was generated (year boundary); fall back to the
		// rotation.
		logger.Debugf("No anchor Saturday for %s; falling back to the key rotation.", date.Format("2006-01-02"))
		keyHolder = g.nextKeyHolder()
	}

	return []model.Assignment{
		{Name: keyHolder, Role: model.RoleKey, Day: sd.Day, Date: &date},
	}, nil
}

// GenerateYear generates the complete schedule of the given year. The
// rotation state is reset first, so consecutive calls are independent.
func (g *Generator) GenerateYear(year int, loc *time.Location) (model.Schedule, error) {
	g.Reset()

	var schedule model.Schedule
	for _, sd := range ServiceDatesForYear(year, loc) {
		assignments, err := g.AssignmentsFor(sd)
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, assignments...)
	}
	logger.Debugf("Generated %d assignments for year %d.", len(schedule), year)
	return schedule, nil
}

// GenerateWeek generates a single undated week: key and offering for Sunday
// and Wednesday, key and two offerings for Saturday. With avoidRepeats, drawn
// deacons leave the pool so nobody serves twice in the week; seven deacons
// are then required.
func (g *Generator) GenerateWeek(avoidRepeats bool) (model.Schedule, error) {
	pool := g.Roster()
	var schedule model.Schedule

	appendDraw := func(day model.ServiceDay, role model.Role) error {
		name, err := g.draw(pool)
		if err != nil {
			return err
		}
		schedule = append(schedule, model.Assignment{Name: name, Role: role, Day: day})
		if avoidRepeats {
			pool = remove(pool, name)
		}
		return nil
	}

	for _, day := range []model.ServiceDay{model.DaySunday, model.DayWednesday} {
		if err := appendDraw(day, model.RoleKey); err != nil {
			return nil, err
		}
		if err := appendDraw(day, model.RoleOffering); err != nil {
			return nil, err
		}
	}

	if err := appendDraw(model.DaySaturday, model.RoleKey); err != nil {
		return nil, err
	}
	for i := 0; i < offeringsPerSaturday; i++ {
		if err := appendDraw(model.DaySaturday, model.RoleOffering); err != nil {
			return nil, err
		}
	}

	return schedule, nil
}
