package story

// Sequence names a scripted run of dialogue lines.
type Sequence string

const (
	StartingDialogue Sequence = "starting_dialogue"
	FoundPitcher     Sequence = "found_pitcher"
	NPCGiveHint      Sequence = "npc_give_hint"
	FoundPebbles     Sequence = "found_pebbles"
	DropPebble1      Sequence = "drop_pebble_1"
	DropPebble2      Sequence = "drop_pebble_2"
	ReachWater       Sequence = "reach_water"
)

// Speaker identifies which bird says a line.
type Speaker string

const (
	SpeakerCrow Speaker = "crow"
	SpeakerNPC  Speaker = "npc"
)

var dialogueLines = map[Sequence][]string{
	StartingDialogue: {
		"Ahh... I'm so thirsty...",
		"I need to find some water.",
		"This place is so dry.",
	},
	FoundPitcher: {
		"A pitcher! Maybe it has water!",
		"Water! But... I can't reach it.",
		"The water is too low\nfor my beak to touch.",
		"Think, think...\nHow can I make the water rise?",
	},
	NPCGiveHint: {
		"Caw! You look thirsty, friend.",
		"Pebbles! If you add pebbles,\nthe water will come up!",
	},
	FoundPebbles: {
		"Pebbles! These will help!",
		"One by one, I'll drop them in.\nThe water must rise!",
	},
	DropPebble1: {
		"Yes! The water is coming up!",
		"More pebbles...\njust a little higher...",
	},
	DropPebble2: {
		"Almost there!\nOne more should do it!",
		"I can see the water\nrising with each stone!",
	},
	ReachWater: {
		"Success! The water reaches me now!",
		"At last... cool, fresh water!\nI'm saved!",
		"Small steps can solve big problems.\nPatience and cleverness win!",
		"When faced with a challenge,\nthink like the crow with the pitcher!",
	},
}

// Lines returns the lines of seq, or nil for an unknown sequence.
func Lines(seq Sequence) []string {
	lines := dialogueLines[seq]
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// Line returns line i of seq, or "" when out of range.
func Line(seq Sequence, i int) string {
	lines := dialogueLines[seq]
	if i < 0 || i >= len(lines) {
		return ""
	}
	return lines[i]
}

// SpeakerOf returns who delivers seq.
func SpeakerOf(seq Sequence) Speaker {
	if seq == NPCGiveHint {
		return SpeakerNPC
	}
	return SpeakerCrow
}

// Utterance is one sequence queued for display.
type Utterance struct {
	Sequence Sequence `json:"sequence"`
	Speaker  Speaker  `json:"speaker"`
	Lines    []string `json:"lines"`
}

func say(seq Sequence) Utterance {
	return Utterance{Sequence: seq, Speaker: SpeakerOf(seq), Lines: Lines(seq)}
}

// Remark is a one-off line outside the scripted sequences.
func remark(text string) Utterance {
	return Utterance{Speaker: SpeakerCrow, Lines: []string{text}}
}
