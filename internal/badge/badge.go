// Package badge holds the badge catalogue and the predicates that unlock
// each badge from a player's pre-aggregated history.
package badge

// Type identifies a badge kind.
type Type string

const (
	FirstGame      Type = "first_game"
	Centurion      Type = "centurion"
	Regular        Type = "regular"
	ChampionStreak Type = "champion_streak"
	FirstChelem    Type = "first_chelem"
	Kamikaze       Type = "kamikaze"
	NoNet          Type = "no_net"
	PetitMalin     Type = "petit_malin"
	Wall           Type = "wall"
	Comeback       Type = "comeback"
	LastPlace      Type = "last_place"
	Marathon       Type = "marathon"
	NightOwl       Type = "night_owl"
	Social         Type = "social"
	StarCollector  Type = "star_collector"
)

// All lists every badge kind in display order.
var All = []Type{
	FirstGame, Centurion, Regular, ChampionStreak, FirstChelem,
	Kamikaze, NoNet, PetitMalin, Wall, Comeback,
	LastPlace, Marathon, NightOwl, Social, StarCollector,
}

// Thresholds.
const (
	centurionGames     = 100
	regularSessions    = 10
	championStreakLen  = 5
	petitMalinWins     = 5
	wallStreakLen      = 10
	lastPlaceSessions  = 5
	marathonSeconds    = 3 * 60 * 60
	socialCoPlayers    = 10
	starCollectorStars = 10
	nightOwlLastHour   = 4
)

// Info describes a badge for display.
type Info struct {
	Type        Type   `json:"type"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// Describe returns the display information of a badge kind.
func Describe(t Type) Info {
	switch t {
	case FirstGame:
		return Info{t, "Première donne", "Jouer sa première donne", "🃏"}
	case Centurion:
		return Info{t, "Centurion", "Jouer 100 donnes", "💯"}
	case Regular:
		return Info{t, "Habitué", "Participer à 10 sessions", "🪑"}
	case ChampionStreak:
		return Info{t, "Série de champion", "Gagner 5 prises d'affilée", "🔥"}
	case FirstChelem:
		return Info{t, "Premier chelem", "Réussir un chelem annoncé", "👑"}
	case Kamikaze:
		return Info{t, "Kamikaze", "Tenter une garde contre", "💣"}
	case NoNet:
		return Info{t, "Sans filet", "Gagner une garde sans", "🎪"}
	case PetitMalin:
		return Info{t, "Petit malin", "Gagner 5 donnes avec le petit au bout", "🐭"}
	case Wall:
		return Info{t, "Le mur", "Faire chuter 10 preneurs d'affilée en défense", "🧱"}
	case Comeback:
		return Info{t, "Remontada", "Finir premier d'une session après avoir été dernier", "🚀"}
	case LastPlace:
		return Info{t, "Lanterne rouge", "Finir dernier de 5 sessions", "🏮"}
	case Marathon:
		return Info{t, "Marathon", "Jouer une session de plus de 3 heures", "🏃"}
	case NightOwl:
		return Info{t, "Oiseau de nuit", "Jouer une donne entre minuit et 5 heures", "🦉"}
	case Social:
		return Info{t, "Sociable", "Jouer avec 10 partenaires différents", "🤝"}
	case StarCollector:
		return Info{t, "Collectionneur d'étoiles", "Recevoir 10 étoiles", "⭐"}
	}
	return Info{Type: t, Label: string(t)}
}

// Unlocked reports whether the aggregated history satisfies the badge.
func (t Type) Unlocked(c *Context) bool {
	switch t {
	case FirstGame:
		return c.CompletedGames >= 1
	case Centurion:
		return c.CompletedGames >= centurionGames
	case Regular:
		return c.SessionsPlayed >= regularSessions
	case ChampionStreak:
		return longestPositiveRun(c.TakerScores) >= championStreakLen
	case FirstChelem:
		return c.ChelemsWon >= 1
	case Kamikaze:
		return c.GardeContreTaken >= 1
	case NoNet:
		return c.GardeSansWon >= 1
	case PetitMalin:
		return c.PetitAuBoutWins >= petitMalinWins
	case Wall:
		return c.LongestWall >= wallStreakLen
	case Comeback:
		return c.Comeback
	case LastPlace:
		return c.LastPlaceFinishes >= lastPlaceSessions
	case Marathon:
		return c.MarathonSessions >= 1
	case NightOwl:
		return c.NightOwlHands >= 1
	case Social:
		return c.CoPlayers >= socialCoPlayers
	case StarCollector:
		return c.StarEvents >= starCollectorStars
	}
	return false
}

// Evaluate returns the badges the context qualifies for that are not held
// yet, in catalogue order.
func Evaluate(c *Context, held map[Type]bool) []Type {
	var unlocked []Type
	for _, t := range All {
		if held[t] {
			continue
		}
		if t.Unlocked(c) {
			unlocked = append(unlocked, t)
		}
	}
	return unlocked
}

// longestPositiveRun returns the longest run of strictly positive scores.
func longestPositiveRun(scores []int) int {
	best, run := 0, 0
	for _, s := range scores {
		if s > 0 {
			run++
			if run > best {
				best = run
			}
			continue
		}
		run = 0
	}
	return best
}
