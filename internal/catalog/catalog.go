// Package catalog is the static badge table: definitions, rarity point
// values, and the trigger predicates that award them. It is read-only at
// runtime; adding a badge is a code change here, not a data migration.
package catalog

// Category groups related badges in the UI.
type Category string

const (
	CategoryCompletion  Category = "completion"
	CategoryMastery     Category = "mastery"
	CategoryConsistency Category = "consistency"
	CategorySpecial     Category = "special"
)

// Rarity is the badge tier. The tier alone determines the point value.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Points returns the fixed point value for the rarity.
func (r Rarity) Points() int {
	switch r {
	case RarityCommon:
		return 10
	case RarityRare:
		return 50
	case RarityEpic:
		return 100
	case RarityLegendary:
		return 500
	}
	return 0
}

// Activity event types that can trigger badges. These arrive from the
// progress-tracking collaborator; the engine never computes them itself.
const (
	EventLessonComplete = "lesson_complete"
	EventCourseComplete = "course_complete"
	EventQuizScored     = "quiz_scored"
	EventCodeSubmitted  = "code_submitted"
	EventStreakUpdated  = "streak_updated"
)

// UserStats is the aggregate snapshot supplied by the caller alongside an
// activity event. Predicates read it; nothing here is recomputed internally.
type UserStats struct {
	LessonsCompleted int `json:"lessons_completed"`
	CoursesCompleted int `json:"courses_completed"`
	QuizzesTaken     int `json:"quizzes_taken"`
	QuizzesPassed    int `json:"quizzes_passed"`
	LastQuizScore    int `json:"last_quiz_score"`
	CodeSubmissions  int `json:"code_submissions"`
	CurrentStreak    int `json:"current_streak"`
}

// BadgeDefinition describes a single awardable badge.
type BadgeDefinition struct {
	BadgeID     string
	Name        string
	Description string
	Category    Category
	Rarity      Rarity
	// Triggers lists the event types that can plausibly fire this badge;
	// other events skip the predicate entirely.
	Triggers []string
	// Condition reports whether the badge should be awarded for this snapshot.
	Condition func(*UserStats) bool
}

// Catalog holds the full badge registry with a by-trigger index.
type Catalog struct {
	defs      []BadgeDefinition
	byTrigger map[string][]BadgeDefinition
}

func New() *Catalog {
	defs := buildRegistry()
	byTrigger := make(map[string][]BadgeDefinition)
	for _, d := range defs {
		for _, trig := range d.Triggers {
			byTrigger[trig] = append(byTrigger[trig], d)
		}
	}
	return &Catalog{defs: defs, byTrigger: byTrigger}
}

// All returns a shallow copy of every registered badge.
func (c *Catalog) All() []BadgeDefinition {
	out := make([]BadgeDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Find looks up a badge by ID.
func (c *Catalog) Find(badgeID string) (BadgeDefinition, bool) {
	for _, d := range c.defs {
		if d.BadgeID == badgeID {
			return d, true
		}
	}
	return BadgeDefinition{}, false
}

// TriggeredBy returns the badges whose Triggers include the event type.
func (c *Catalog) TriggeredBy(eventType string) []BadgeDefinition {
	return c.byTrigger[eventType]
}

func buildRegistry() []BadgeDefinition {
	return []BadgeDefinition{

		// ── Completion ─────────────────────────────────────────────────────

		{
			BadgeID: "first_lesson", Name: "Langkah Pertama",
			Description: "Selesaikan pelajaran pertamamu",
			Category:    CategoryCompletion, Rarity: RarityCommon,
			Triggers:  []string{EventLessonComplete},
			Condition: func(s *UserStats) bool { return s.LessonsCompleted >= 1 },
		},
		{
			BadgeID: "lessons_10", Name: "Rajin Belajar",
			Description: "Selesaikan 10 pelajaran",
			Category:    CategoryCompletion, Rarity: RarityRare,
			Triggers:  []string{EventLessonComplete},
			Condition: func(s *UserStats) bool { return s.LessonsCompleted >= 10 },
		},
		{
			BadgeID: "lessons_50", Name: "Kutu Buku",
			Description: "Selesaikan 50 pelajaran",
			Category:    CategoryCompletion, Rarity: RarityEpic,
			Triggers:  []string{EventLessonComplete},
			Condition: func(s *UserStats) bool { return s.LessonsCompleted >= 50 },
		},
		{
			BadgeID: "first_course", Name: "Lulusan Pertama",
			Description: "Tamatkan satu kursus penuh",
			Category:    CategoryCompletion, Rarity: RarityEpic,
			Triggers:  []string{EventCourseComplete},
			Condition: func(s *UserStats) bool { return s.CoursesCompleted >= 1 },
		},
		{
			BadgeID: "courses_5", Name: "Kolektor Ijazah",
			Description: "Tamatkan 5 kursus",
			Category:    CategoryCompletion, Rarity: RarityLegendary,
			Triggers:  []string{EventCourseComplete},
			Condition: func(s *UserStats) bool { return s.CoursesCompleted >= 5 },
		},

		// ── Mastery ────────────────────────────────────────────────────────

		{
			BadgeID: "first_quiz", Name: "Pemanasan",
			Description: "Kerjakan kuis pertamamu",
			Category:    CategoryMastery, Rarity: RarityCommon,
			Triggers:  []string{EventQuizScored},
			Condition: func(s *UserStats) bool { return s.QuizzesTaken >= 1 },
		},
		{
			BadgeID: "quiz_perfect", Name: "Nilai Sempurna",
			Description: "Raih skor 100 pada sebuah kuis",
			Category:    CategoryMastery, Rarity: RarityRare,
			Triggers:  []string{EventQuizScored},
			Condition: func(s *UserStats) bool { return s.LastQuizScore >= 100 },
		},
		{
			BadgeID: "quizzes_10", Name: "Langganan Lulus",
			Description: "Lulus 10 kuis",
			Category:    CategoryMastery, Rarity: RarityRare,
			Triggers:  []string{EventQuizScored},
			Condition: func(s *UserStats) bool { return s.QuizzesPassed >= 10 },
		},
		{
			BadgeID: "quiz_master", Name: "Master Kuis",
			Description: "Lulus 25 kuis",
			Category:    CategoryMastery, Rarity: RarityEpic,
			Triggers:  []string{EventQuizScored},
			Condition: func(s *UserStats) bool { return s.QuizzesPassed >= 25 },
		},
		{
			BadgeID: "first_code", Name: "Hello World",
			Description: "Kumpulkan tugas koding pertamamu",
			Category:    CategoryMastery, Rarity: RarityCommon,
			Triggers:  []string{EventCodeSubmitted},
			Condition: func(s *UserStats) bool { return s.CodeSubmissions >= 1 },
		},
		{
			BadgeID: "code_25", Name: "Tukang Ngoding",
			Description: "Kumpulkan 25 tugas koding",
			Category:    CategoryMastery, Rarity: RarityRare,
			Triggers:  []string{EventCodeSubmitted},
			Condition: func(s *UserStats) bool { return s.CodeSubmissions >= 25 },
		},

		// ── Consistency ────────────────────────────────────────────────────

		{
			BadgeID: "streak_7", Name: "Seminggu Penuh",
			Description: "Belajar 7 hari berturut-turut",
			Category:    CategoryConsistency, Rarity: RarityCommon,
			Triggers:  []string{EventStreakUpdated},
			Condition: func(s *UserStats) bool { return s.CurrentStreak >= 7 },
		},
		{
			BadgeID: "streak_30", Name: "Sebulan Tanpa Putus",
			Description: "Belajar 30 hari berturut-turut",
			Category:    CategoryConsistency, Rarity: RarityRare,
			Triggers:  []string{EventStreakUpdated},
			Condition: func(s *UserStats) bool { return s.CurrentStreak >= 30 },
		},
		{
			BadgeID: "streak_100", Name: "Seratus Hari",
			Description: "Belajar 100 hari berturut-turut",
			Category:    CategoryConsistency, Rarity: RarityLegendary,
			Triggers:  []string{EventStreakUpdated},
			Condition: func(s *UserStats) bool { return s.CurrentStreak >= 100 },
		},

		// ── Special ────────────────────────────────────────────────────────

		{
			BadgeID: "polymath", Name: "Serba Bisa",
			Description: "10 pelajaran, 10 kuis lulus, dan 10 tugas koding",
			Category:    CategorySpecial, Rarity: RarityEpic,
			Triggers:  []string{EventLessonComplete, EventQuizScored, EventCodeSubmitted},
			Condition: func(s *UserStats) bool {
				return s.LessonsCompleted >= 10 &&
					s.QuizzesPassed >= 10 &&
					s.CodeSubmissions >= 10
			},
		},
		{
			BadgeID: "completionist", Name: "Sang Penakluk",
			Description: "3 kursus tamat dan 20 kuis lulus",
			Category:    CategorySpecial, Rarity: RarityLegendary,
			Triggers:  []string{EventCourseComplete, EventQuizScored},
			Condition: func(s *UserStats) bool {
				return s.CoursesCompleted >= 3 && s.QuizzesPassed >= 20
			},
		},
	}
}
