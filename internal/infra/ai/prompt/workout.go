package prompt

// GetWorkoutPrompt is the fixed instruction sent alongside every uploaded photo.
// The answer is shown as plain text and printed into the PDF, so markdown is ruled out.
func GetWorkoutPrompt() string {
	return "Analyze this image and provide Detailed Information, How to do this workout, Benefits, " +
		"Care Instructions, and Some Interesting Facts. Please provide the response in plain text " +
		"without using any markdown format."
}
