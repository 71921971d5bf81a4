package enhance

import "strings"

// Score rates text quality 0..100 as a weighted blend of dictionary
// coverage, content volume, structural markers and the inverse of the
// suspicious-token rate.
func Score(text string, dict *Dictionary) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}

	inDict, suspicious := 0, 0
	for _, f := range fields {
		core, _, _ := trimPunct(f)
		if core == "" {
			continue
		}
		if dict.Contains(core) {
			inDict++
		}
		if looksSuspicious(core) {
			suspicious++
		}
	}
	coverage := float64(inDict) / float64(len(fields))

	volume := 0.0
	if len(fields) >= 10 {
		volume = 1.0
	} else {
		volume = float64(len(fields)) / 10.0
	}

	structure := 0.0
	if strings.Contains(text, "\n\n") {
		structure += 0.5
	}
	for _, l := range strings.Split(text, "\n") {
		if looksLikeHeading(l) {
			structure += 0.5
			break
		}
	}

	clean := 1.0 - float64(suspicious)/float64(len(fields))

	score := 100 * (0.4*coverage + 0.2*volume + 0.15*structure + 0.25*clean)
	if score > 100 {
		score = 100
	}
	return score
}

// Grade maps a 0..100 score to a letter at the 90/80/70/60 thresholds.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	}
	return "F"
}

// looksSuspicious flags tokens that switch between digits and non-digits
// three or more times, the usual OCR noise shape.
func looksSuspicious(token string) bool {
	if len(token) < 3 {
		return false
	}
	transitions := 0
	for i := 1; i < len(token); i++ {
		if isDigit(token[i]) != isDigit(token[i-1]) {
			transitions++
		}
	}
	return transitions >= 3
}

func looksLikeHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 60 {
		return false
	}
	letters, uppers := 0, 0
	for _, r := range trimmed {
		if r >= 'a' && r <= 'z' {
			letters++
		}
		if r >= 'A' && r <= 'Z' {
			letters++
			uppers++
		}
	}
	return letters >= 4 && uppers*2 > letters
}
