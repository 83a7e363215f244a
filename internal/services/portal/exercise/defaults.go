package exercise

const (
	DefaultExerciseMinutes   = 40
	DefaultTaskMinutes       = 10
	DefaultMaxWordsPerBlank  = 1
	DefaultMaxWordsPerAnswer = 20
	DefaultMinimumWordCount  = 150
)

// NewExercise returns the blank form state for a new exercise of type t.
func NewExercise(t Type) Exercise {
	return Exercise{Type: t, AllowedMinutes: DefaultExerciseMinutes}
}

// NewTask returns the blank form state for a new task of type t.
func NewTask(t TaskType) Task {
	task := Task{Type: t, AllowedMinutes: DefaultTaskMinutes}
	switch t {
	case TaskMatching:
		task.Matching = &Matching{}
	case TaskFillingBlanks:
		task.FillingBlanks = &FillingBlanks{MaxWordsPerBlank: DefaultMaxWordsPerBlank}
	case TaskMCQ:
		task.MCQ = &MCQ{}
	case TaskQA:
		task.QA = &QA{MaxWordsPerAnswer: DefaultMaxWordsPerAnswer}
	case TaskWriting:
		task.Writing = &Writing{MinimumWordCount: DefaultMinimumWordCount}
	}
	return task
}
