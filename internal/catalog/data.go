package catalog

// Built-in registry data. Game ids are already in collection-address form
// (lowercase, underscore-separated) so the addresser never has to rename a
// known game.

var sharedSourceCategories = []string{
	"Character",
	"Combat",
	"Magic",
	"Equipment",
	"Skills",
	"Rules",
	"Tables",
	"Lore",
	"NPCs",
	"Adventures",
}

var novelCategories = []string{
	"Chapter/Section",
	"Dialogue",
	"Description",
	"Action",
	"Internal Monologue",
	"Narrative",
}

var builtinGames = []Game{
	{
		ID:        "dnd",
		Name:      "D&D",
		Publisher: "TSR",
		Editions:  []string{"1st", "2nd", "3rd", "3.5", "4th", "5th"},
		Books: map[string][]string{
			"1st": {"phb", "dmg", "mm", "ua", "dd", "ftf"},
			"2nd": {"phb", "dmg", "mm", "toms"},
			"3rd": {"phb", "dmg", "mm"},
			"3.5": {"phb", "dmg", "mm"},
			"4th": {"phb", "dmg", "mm"},
			"5th": {"phb", "dmg", "mm", "xgte", "tce"},
		},
		Keywords: []Keyword{
			{"dungeon master", 3}, {"armor class", 2}, {"hit dice", 2},
			{"saving throw", 2}, {"thac0", 3}, {"d20", 1}, {"dungeons", 2},
			{"dragons", 1}, {"alignment", 1}, {"spell level", 1},
			{"experience points", 1}, {"cleric", 1}, {"paladin", 1},
		},
		Categories: sharedSourceCategories,
		Protected: []string{
			"thac0", "drow", "lich", "beholder", "tarrasque", "illithid",
			"vancian", "gygax", "greyhawk", "faerun", "mindflayer",
		},
	},
	{
		ID:        "pathfinder",
		Name:      "Pathfinder",
		Publisher: "Paizo",
		Editions:  []string{"1st", "2nd"},
		Books: map[string][]string{
			"1st": {"crb", "bestiary", "apg"},
			"2nd": {"crb", "bestiary", "gmg"},
		},
		Keywords: []Keyword{
			{"pathfinder", 3}, {"golarion", 3}, {"archetype", 2},
			{"combat maneuver", 2}, {"paizo", 2}, {"ancestry", 2},
			{"feat", 1}, {"adventure path", 2},
		},
		Categories: sharedSourceCategories,
		Protected:  []string{"golarion", "paizo", "iomedae", "absalom"},
	},
	{
		ID:        "call_of_cthulhu",
		Name:      "Call of Cthulhu",
		Publisher: "Chaosium",
		Editions:  []string{"5th", "6th", "7th"},
		Books: map[string][]string{
			"5th": {"keeper"},
			"6th": {"keeper"},
			"7th": {"keeper", "investigator", "grand_grimoire"},
		},
		Keywords: []Keyword{
			{"cthulhu", 3}, {"sanity", 3}, {"mythos", 2}, {"keeper", 2},
			{"investigator", 2}, {"chaosium", 2}, {"lovecraft", 2},
			{"elder", 1}, {"arkham", 2},
		},
		Categories: append([]string{"Sanity", "Investigation"}, sharedSourceCategories...),
		Protected:  []string{"cthulhu", "nyarlathotep", "azathoth", "arkham", "miskatonic"},
	},
	{
		ID:        "vampire",
		Name:      "Vampire: The Masquerade",
		Publisher: "White Wolf",
		Editions:  []string{"1st", "2nd", "revised", "v5"},
		Books: map[string][]string{
			"1st":     {"core"},
			"2nd":     {"core"},
			"revised": {"core"},
			"v5":      {"core", "camarilla", "anarch"},
		},
		Keywords: []Keyword{
			{"vampire", 2}, {"masquerade", 3}, {"camarilla", 3},
			{"kindred", 3}, {"clan", 1}, {"discipline", 1}, {"embrace", 1},
			{"blood pool", 2},
		},
		Categories: sharedSourceCategories,
		Protected:  []string{"camarilla", "kindred", "sabbat", "tremere", "ventrue"},
	},
	{
		ID:        "werewolf",
		Name:      "Werewolf: The Apocalypse",
		Publisher: "White Wolf",
		Editions:  []string{"1st", "2nd", "revised", "w5"},
		Books: map[string][]string{
			"1st":     {"core"},
			"2nd":     {"core"},
			"revised": {"core"},
			"w5":      {"core"},
		},
		Keywords: []Keyword{
			{"werewolf", 2}, {"garou", 3}, {"apocalypse", 2}, {"gaia", 2},
			{"tribe", 1}, {"rage", 1}, {"umbra", 2},
		},
		Categories: sharedSourceCategories,
		Protected:  []string{"garou", "umbra", "wyrm", "weaver", "wyld"},
	},
	{
		ID:        "shadowrun",
		Name:      "Shadowrun",
		Publisher: "Catalyst",
		Editions:  []string{"1st", "2nd", "3rd", "4th", "5th", "6th"},
		Books: map[string][]string{
			"1st": {"core"}, "2nd": {"core"}, "3rd": {"core"},
			"4th": {"core"}, "5th": {"core"}, "6th": {"core"},
		},
		Keywords: []Keyword{
			{"shadowrun", 3}, {"decker", 3}, {"matrix", 1}, {"essence", 1},
			{"cyberware", 2}, {"megacorp", 2}, {"awakened", 1}, {"sprawl", 1},
		},
		Categories: append([]string{"Matrix", "Cyberware"}, sharedSourceCategories...),
		Protected:  []string{"decker", "rigger", "rezzed", "megacorp"},
	},
	{
		ID:        "cyberpunk",
		Name:      "Cyberpunk",
		Publisher: "R. Talsorian",
		Editions:  []string{"2013", "2020", "red"},
		Books: map[string][]string{
			"2013": {"core"}, "2020": {"core", "chromebook"}, "red": {"core"},
		},
		Keywords: []Keyword{
			{"cyberpunk", 3}, {"netrunner", 3}, {"night city", 3},
			{"chrome", 1}, {"solo", 1}, {"fixer", 1}, {"humanity cost", 2},
		},
		Categories: sharedSourceCategories,
		Protected:  []string{"netrunner", "braindance", "cyberdeck"},
	},
	{
		ID:         "generic",
		Name:       "Generic",
		Publisher:  "",
		Editions:   []string{"1st"},
		Books:      map[string][]string{"1st": {"core"}},
		Keywords:   nil,
		Categories: sharedSourceCategories,
	},
}

// builtinSynonyms maps normalized title fragments to catalog references.
// Fragments are matched as substrings of the normalized first pages.
var builtinSynonyms = map[string]BookRef{
	"player's handbook":          {Game: "dnd", Edition: "1st", Book: "phb", Title: "Player's Handbook"},
	"players handbook":           {Game: "dnd", Edition: "1st", Book: "phb", Title: "Player's Handbook"},
	"dungeon master's guide":     {Game: "dnd", Edition: "1st", Book: "dmg", Title: "Dungeon Master's Guide"},
	"dungeon masters guide":      {Game: "dnd", Edition: "1st", Book: "dmg", Title: "Dungeon Master's Guide"},
	"monster manual":             {Game: "dnd", Edition: "1st", Book: "mm", Title: "Monster Manual"},
	"unearthed arcana":           {Game: "dnd", Edition: "1st", Book: "ua", Title: "Unearthed Arcana"},
	"fiend folio":                {Game: "dnd", Edition: "1st", Book: "ftf", Title: "Fiend Folio"},
	"deities and demigods":       {Game: "dnd", Edition: "1st", Book: "dd", Title: "Deities & Demigods"},
	"xanathar's guide":           {Game: "dnd", Edition: "5th", Book: "xgte", Title: "Xanathar's Guide to Everything"},
	"tasha's cauldron":           {Game: "dnd", Edition: "5th", Book: "tce", Title: "Tasha's Cauldron of Everything"},
	"pathfinder core rulebook":   {Game: "pathfinder", Edition: "2nd", Book: "crb", Title: "Pathfinder Core Rulebook"},
	"pathfinder bestiary":        {Game: "pathfinder", Edition: "2nd", Book: "bestiary", Title: "Pathfinder Bestiary"},
	"advanced player's guide":    {Game: "pathfinder", Edition: "1st", Book: "apg", Title: "Advanced Player's Guide"},
	"keeper rulebook":            {Game: "call_of_cthulhu", Edition: "7th", Book: "keeper", Title: "Keeper Rulebook"},
	"investigator handbook":      {Game: "call_of_cthulhu", Edition: "7th", Book: "investigator", Title: "Investigator Handbook"},
	"vampire the masquerade":     {Game: "vampire", Edition: "revised", Book: "core", Title: "Vampire: The Masquerade"},
	"werewolf the apocalypse":    {Game: "werewolf", Edition: "revised", Book: "core", Title: "Werewolf: The Apocalypse"},
	"shadowrun core rulebook":    {Game: "shadowrun", Edition: "5th", Book: "core", Title: "Shadowrun Core Rulebook"},
	"cyberpunk 2020":             {Game: "cyberpunk", Edition: "2020", Book: "core", Title: "Cyberpunk 2020"},
	"cyberpunk red":              {Game: "cyberpunk", Edition: "red", Book: "core", Title: "Cyberpunk RED"},
}
