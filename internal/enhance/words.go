package enhance

// baseWords is the built-in English core vocabulary, enough to score
// dictionary coverage and gate the OCR substitutions. Game jargon is layered
// on top from the catalog's protected terms.
var baseWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am",
	"an", "and", "any", "are", "arm", "armor", "around", "as", "at", "attack",
	"ability", "abilities", "action", "actions", "adventure", "adventures",
	"age", "air", "allow", "allowed", "always", "among", "amount", "ancient",
	"animal", "another", "answer", "appear", "apply", "area", "arms", "army",
	"attribute", "available", "average", "away",
	"back", "base", "based", "basic", "battle", "be", "bear", "became",
	"because", "become", "been", "before", "begin", "behind", "being",
	"below", "best", "better", "between", "beyond", "big", "black", "blade",
	"block", "blood", "board", "body", "bonus", "book", "both", "bottom",
	"bow", "box", "break", "bring", "broken", "brought", "build", "but",
	"by",
	"call", "called", "can", "cannot", "care", "carry", "case", "cast",
	"compare", "compared", "consult",
	"caster", "cause", "certain", "chance", "change", "chapter", "character",
	"characters", "charge", "check", "choice", "choose", "chosen", "city",
	"class", "classes", "clear", "close", "cold", "combat", "come", "common",
	"complete", "cost", "could", "count", "course", "cover", "create",
	"creature", "creatures", "cross", "current",
	"damage", "danger", "dark", "day", "dead", "deal", "death", "deep",
	"defense", "described", "description", "detail", "details", "determine", "dice",
	"did", "die", "different", "difficult", "direction", "distance", "do",
	"does", "done", "door", "down", "draw", "drop", "during", "dungeon",
	"each", "early", "earth", "easy", "edge", "edition", "effect", "effects",
	"eight", "either", "elf", "else", "end", "enemy", "energy", "enough",
	"enter", "entire", "equal", "equipment", "even", "ever", "every",
	"example", "except", "experience", "extra", "eye", "eyes",
	"face", "fact", "fail", "failure", "fall", "far", "fast", "fear", "feet",
	"few", "field", "fight", "fighter", "figure", "final", "find", "fire",
	"first", "five", "fly", "follow", "following", "food", "for", "force",
	"form", "found", "four", "free", "from", "front", "full", "further",
	"gain", "game", "gave", "general", "get", "giant", "give", "given",
	"gives", "go", "god", "gods", "going", "gold", "good", "great", "ground",
	"group", "grow", "guard", "guide",
	"had", "half", "hand", "hands", "happen", "hard", "has", "have", "he",
	"head", "healing", "hear", "heart", "heavy", "held", "help", "her",
	"here", "high", "him", "his", "hit", "hold", "home", "horse", "hour",
	"house", "how", "however", "human", "hundred",
	"idea", "if", "important", "improve", "improves", "in", "include",
	"including", "increase",
	"indicate", "individual", "information", "inside", "instead", "into",
	"is", "it", "item", "items", "its",
	"join", "just",
	"keep", "key", "kind", "king", "know", "known",
	"land", "large", "last", "late", "later", "lead", "learn", "least",
	"leave", "left", "less", "let", "letter", "level", "levels", "life",
	"light", "like", "limit", "line", "list", "listed", "little", "live",
	"long", "look", "lose", "loss", "lost", "low",
	"made", "magic", "magical", "main", "make", "making", "man", "many",
	"mark", "master", "may", "me", "mean", "means", "melee", "member",
	"men", "might", "mile", "mind", "minute", "miss", "missile", "mode",
	"modifier", "money", "monster", "monsters", "month", "more", "most",
	"mount", "move", "movement", "much", "must", "my",
	"name", "natural", "nature", "near", "need", "never", "new", "next",
	"night", "nine", "no", "none", "normal", "not", "note", "nothing",
	"now", "number",
	"of", "off", "offer", "often", "old", "on", "once", "one", "only",
	"open", "option", "or", "order", "other", "others", "otherwise", "our",
	"out", "outside", "over", "own",
	"page", "part", "party", "pass", "past", "people", "per", "percent",
	"perhaps", "period", "person", "place", "plan", "play", "player",
	"players", "point", "points", "possible", "power", "present", "price",
	"priest", "probably", "problem", "process", "provide", "purpose", "put",
	"quarter", "question", "quick", "quite",
	"race", "radius", "raise", "random", "range", "rate", "rather", "reach",
	"read", "ready", "real", "really", "reason", "receive", "recent",
	"reduce", "refer", "remain", "remember", "remove", "require", "required",
	"rest", "result", "results", "return", "right", "ring", "rise", "roll",
	"rolled", "room", "round", "rounds", "rule", "rules", "run",
	"said", "same", "save", "saving", "saw", "say", "score", "scroll",
	"second", "secret", "section", "see", "seem", "seen", "select", "sense",
	"set", "seven", "several", "shall", "shape", "she", "shield", "short",
	"should", "show", "shown", "side", "sight", "silver", "similar",
	"simple", "simply", "since", "single", "six", "size", "skill", "skills",
	"sleep", "slow", "small", "so", "some", "something", "sometimes", "soon",
	"sort", "sound", "speak", "special", "specific", "speed", "spell",
	"spells", "spend", "stand", "start", "state", "stay", "step", "still",
	"stone", "stop", "story", "strength", "strike", "strong", "study",
	"subject", "success", "successful", "such", "suffer", "suit", "sure",
	"surface", "surprise", "sword", "system",
	"table", "tables", "take", "taken", "takes", "tell", "ten", "term",
	"terrain", "test", "text", "than", "that", "the", "their", "them",
	"then", "there", "these", "they", "thing", "things", "think", "third",
	"this", "those", "though", "thought", "three", "through", "throw",
	"thrown", "thus", "time", "times", "to", "today", "together", "too",
	"took", "top", "total", "touch", "toward", "town", "travel", "treasure",
	"true", "turn", "turns", "two", "type", "types",
	"under", "understand", "unit", "unless", "until", "unusual", "up",
	"upon", "use", "used", "useful", "uses", "using", "usually",
	"value", "various", "very", "victim", "village", "visible", "voice",
	"wait", "walk", "wall", "want", "war", "was", "water", "way", "weapon",
	"weapons", "wear", "week", "weight", "well", "went", "were", "what",
	"when", "where", "whether", "which", "while", "white", "who", "whole",
	"whose", "why", "wild", "will", "wind", "wish", "with", "within",
	"without", "wizard", "word", "words", "work", "world", "would", "wound",
	"wounds", "write", "written",
	"yard", "year", "years", "yes", "yet", "you", "young", "your",
}
