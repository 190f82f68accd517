package content

import (
	"fmt"

	"github.com/alkime/snacks/internal/interview"
)

// WorkoutSystemPrompt frames the model as the coach writing the plan.
const WorkoutSystemPrompt = "You are a knowledgeable fitness instructor who specializes in quick, effective workouts."

// WorkoutPrompt builds the user message for a workout request.
func WorkoutPrompt(answers interview.Answers) string {
	return fmt.Sprintf(`Create a quick workout routine with these parameters:
- Available time: %s
- Current energy level: %s
- Desired outcome: %s

Format the response as a structured workout with:
1. Warm-up
2. Main exercises (with reps/duration)
3. Cool-down
Keep it concise and achievable within the time limit.`,
		answers.Time, answers.EnergyLevel, answers.DesiredOutcome)
}

// TranscriptionHint builds the prompt passed to the speech-to-text model so it
// knows which question the recording answers. An empty question still yields
// a usable hint.
func TranscriptionHint(question string) string {
	return fmt.Sprintf("Transcribe the following audio. The question being answered is: %q", question)
}
