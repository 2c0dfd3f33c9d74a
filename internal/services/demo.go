package services

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/Glivan2903/fazendo-90/internal/models"
)

const demoIDPrefix = "demo-"

type demoSlot struct {
	hour    int
	program string
	coach   int
}

type demoCoach struct {
	name   string
	avatar string
}

var (
	demoSlots = []demoSlot{
		{hour: 6, program: "CrossFit", coach: 0},
		{hour: 7, program: "CrossFit", coach: 1},
		{hour: 8, program: "Funcional", coach: 2},
		{hour: 12, program: "LPO", coach: 0},
		{hour: 17, program: "Mobilidade", coach: 3},
		{hour: 18, program: "CrossFit", coach: 1},
		{hour: 19, program: "Funcional", coach: 2},
	}
	demoCoaches = []demoCoach{
		{name: "Bruno Almeida", avatar: "https://i.pravatar.cc/150?u=coach-bruno"},
		{name: "Carla Mendes", avatar: "https://i.pravatar.cc/150?u=coach-carla"},
		{name: "Diego Souza", avatar: "https://i.pravatar.cc/150?u=coach-diego"},
		{name: "Fernanda Lima", avatar: "https://i.pravatar.cc/150?u=coach-fernanda"},
	}
	demoCapacities = []int{10, 12, 15, 20}
	demoFirstNames = []string{
		"Ana", "Beatriz", "Camila", "Daniel", "Eduardo", "Felipe", "Gabriela", "Henrique",
		"Isabela", "João", "Larissa", "Lucas", "Mariana", "Pedro", "Rafael", "Tatiane",
	}
	demoLastNames = []string{
		"Silva", "Santos", "Oliveira", "Souza", "Rodrigues", "Ferreira", "Alves", "Pereira",
		"Gomes", "Costa", "Ribeiro", "Martins",
	}
)

// DemoGenerator produces placeholder classes for a day. The same day always
// yields the same classes and counts.
type DemoGenerator struct {
	loc *time.Location
}

func NewDemoGenerator(loc *time.Location) *DemoGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &DemoGenerator{loc: loc}
}

func (g *DemoGenerator) Classes(day time.Time) []models.ClassListItem {
	day = CalendarDay(day)
	rng := rand.New(rand.NewPCG(daySeed(day), 0x5eed))
	y, m, d := day.Date()

	items := make([]models.ClassListItem, 0, len(demoSlots))
	for i, slot := range demoSlots {
		capacity := demoCapacities[rng.IntN(len(demoCapacities))]
		attendees := rng.IntN(capacity + 1)
		coach := demoCoaches[slot.coach]
		avatar := coach.avatar
		startsAt := time.Date(y, m, d, slot.hour, 0, 0, 0, g.loc)

		items = append(items, models.ClassListItem{
			ID:            demoID(day, i+1),
			StartsAt:      startsAt,
			EndsAt:        startsAt.Add(time.Hour),
			ProgramName:   slot.program,
			CoachName:     coach.name,
			CoachAvatar:   &avatar,
			MaxCapacity:   capacity,
			AttendeeCount: attendees,
			SpotsLeft:     capacity - attendees,
		})
	}
	return items
}

// Detail synthesizes a class and its roster for classID. Ids minted by
// Classes map back to the same class; anything else lands on today.
func (g *DemoGenerator) Detail(classID string, today time.Time) (models.ClassDetail, []models.Attendee) {
	day, index, ok := parseDemoID(classID)
	if !ok {
		day = CalendarDay(today)
		index = int(hashString(classID) % uint64(len(demoSlots)))
	}

	item := g.Classes(day)[index]
	item.ID = classID

	detail := models.ClassDetail{
		ID:            item.ID,
		Date:          day.Format(time.DateOnly),
		StartsAt:      item.StartsAt,
		EndsAt:        item.EndsAt,
		ProgramName:   item.ProgramName,
		CoachName:     item.CoachName,
		CoachAvatar:   item.CoachAvatar,
		MaxCapacity:   item.MaxCapacity,
		AttendeeCount: item.AttendeeCount,
		SpotsLeft:     item.SpotsLeft,
	}
	return detail, demoAttendees(classID, item.AttendeeCount)
}

func demoAttendees(classID string, count int) []models.Attendee {
	seed := hashString(classID)
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	attendees := make([]models.Attendee, 0, count)
	for i := 0; i < count; i++ {
		userID := fmt.Sprintf("%s-u%d", classID, i+1)
		avatar := "https://i.pravatar.cc/150?u=" + userID
		attendees = append(attendees, models.Attendee{
			UserID:    userID,
			Name:      demoFirstNames[rng.IntN(len(demoFirstNames))] + " " + demoLastNames[rng.IntN(len(demoLastNames))],
			AvatarURL: &avatar,
		})
	}
	return attendees
}

func IsDemoID(classID string) bool {
	_, _, ok := parseDemoID(classID)
	return ok
}

func demoID(day time.Time, n int) string {
	return demoIDPrefix + day.Format("20060102") + "-" + strconv.Itoa(n)
}

// parseDemoID returns the day and the zero-based slot index.
func parseDemoID(classID string) (time.Time, int, bool) {
	rest, ok := strings.CutPrefix(classID, demoIDPrefix)
	if !ok {
		return time.Time{}, 0, false
	}
	datePart, numberPart, ok := strings.Cut(rest, "-")
	if !ok {
		return time.Time{}, 0, false
	}
	day, err := time.Parse("20060102", datePart)
	if err != nil {
		return time.Time{}, 0, false
	}
	n, err := strconv.Atoi(numberPart)
	if err != nil || n < 1 || n > len(demoSlots) {
		return time.Time{}, 0, false
	}
	return day, n - 1, true
}

func daySeed(day time.Time) uint64 {
	y, m, d := day.Date()
	return uint64(y*10000 + int(m)*100 + d)
}

func hashString(value string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(value))
	return h.Sum64()
}
