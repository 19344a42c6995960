package entities

// RequirementKind selects the stat an achievement is measured against.
type RequirementKind string

const (
	RequirementTotalPlayed  RequirementKind = "total_played"  // games played
	RequirementTotalCorrect RequirementKind = "total_correct" // correct answers
	RequirementStreak       RequirementKind = "streak"        // best streak ever
	RequirementAccuracy     RequirementKind = "accuracy"      // lifetime accuracy, in percent
)

// Achievement is a static milestone definition.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Kind        RequirementKind
	Value       int
	MinAnswered int // accuracy achievements only: questions required before the ratio counts
}

// Level is a progression tier reached at a cumulative point total.
type Level struct {
	Number    int
	Title     string
	MinPoints int
}

// Levels lists the tiers in ascending order. Breakpoints must stay increasing.
var Levels = []Level{
	{Number: 1, Title: "Beginner", MinPoints: 0},
	{Number: 2, Title: "Student", MinPoints: 1000},
	{Number: 3, Title: "Disciple", MinPoints: 3000},
	{Number: 4, Title: "Scholar", MinPoints: 7500},
	{Number: 5, Title: "Teacher", MinPoints: 15000},
	{Number: 6, Title: "Master", MinPoints: 30000},
}

// MaxLevel is the highest reachable level number.
var MaxLevel = Levels[len(Levels)-1].Number
