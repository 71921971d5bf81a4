package constants

// Stage is the canonical state of an extraction session.
type Stage string

// Stable values (these exact strings appear in events, API responses and logs).
const (
	StageCreated         Stage = "created"
	StageUploaded        Stage = "uploaded"
	StageIdentifying     Stage = "identifying"
	StageIdentified      Stage = "identified"
	StageDedupCheck      Stage = "dedup_check"
	StageExtracting      Stage = "extracting"
	StageEnhancing       Stage = "enhancing"
	StageCategorizing    Stage = "categorizing"
	StageScoring         Stage = "scoring"
	StageNovelCharacters Stage = "novel_characters"
	StagePersisting      Stage = "persisting"
	StageCompleted       Stage = "completed"

	StageFailedIdentification Stage = "failed_identification"
	StageFailedExtraction     Stage = "failed_extraction"
	StageFailedPersistence    Stage = "failed_persistence"
	StageRejectedDuplicate    Stage = "rejected_duplicate"
	StageCancelled            Stage = "cancelled"
)

// stageOrder gives each forward stage a monotone index. Terminal error
// stages are not listed; Index reports them as -1.
var stageOrder = map[Stage]int{
	StageCreated:         0,
	StageUploaded:        1,
	StageIdentifying:     2,
	StageIdentified:      3,
	StageDedupCheck:      4,
	StageExtracting:      5,
	StageEnhancing:       6,
	StageCategorizing:    7,
	StageScoring:         8,
	StageNovelCharacters: 9,
	StagePersisting:      10,
	StageCompleted:       11,
}

// Index returns the ordering index of a forward stage, or -1 for terminal
// failure stages (which are reachable from anywhere).
func (s Stage) Index() int {
	if i, ok := stageOrder[s]; ok {
		return i
	}
	return -1
}

// Terminal reports whether a session in this stage will never move again.
func (s Stage) Terminal() bool {
	switch s {
	case StageCompleted, StageFailedIdentification, StageFailedExtraction,
		StageFailedPersistence, StageRejectedDuplicate, StageCancelled:
		return true
	}
	return false
}

// Failed reports whether this is a terminal failure stage.
func (s Stage) Failed() bool {
	switch s {
	case StageFailedIdentification, StageFailedExtraction, StageFailedPersistence:
		return true
	}
	return false
}
