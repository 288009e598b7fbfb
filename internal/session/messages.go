package session

import (
	"fmt"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/diversion"
)

const (
	greetingText      = "Hello! I'm your Dyslexia Learning Assistant. What’s your name?"
	initFailedText    = "Failed to initialize data. Please try again."
	writeFailedText   = "Something went wrong. Please try again."
	closingText       = "Thank you for practicing! Have a great day!"
	levelCompleteText = "Congratulations! You've completed all 3 exercises for this level. Take a new assessment next time!"
	wordSolvedText    = "Great job! You unscrambled the word correctly!"
	tabSwitchText     = "Hey, I noticed you switched tabs! Please stay focused on the task."
	celebrateText     = "Correct!"
)

func welcomeBackText(name, question string) string {
	return fmt.Sprintf("Welcome back, %s! Let’s continue with your exercises. Here’s the next one:\n\n%s", name, question)
}

func askLevelText(name string) string {
	return fmt.Sprintf("Hi %s! Please enter your severity level (1-100) to get started with exercises tailored for you.", name)
}

func startLevelText(lvl *content.Level) string {
	return fmt.Sprintf("Great! Let's start with exercises for level %s: %s\n\n%s",
		lvl.Range, lvl.Description, lvl.Exercises[0].Question)
}

func repeatLevelText(lvl *content.Level) string {
	return fmt.Sprintf("Great! Let's repeat the exercises for level %s:\n\n%s", lvl.Range, lvl.Exercises[0].Question)
}

func nextExerciseText(question string) string {
	return "Let's try the next exercise:\n\n" + question
}

func hintText(feedback, hint string) string {
	return feedback + "\n\nHint: " + hint
}

func revealText(feedback, expected string) string {
	return feedback + "\n\nCorrect answer: " + expected
}

func diversionStartText(r diversion.Round) string {
	return fmt.Sprintf("Let's take a short break with a fun word game!\nUnscramble this word: %s\nHint: %s", r.Scrambled, r.Hint)
}

func nextWordText(r diversion.Round) string {
	return fmt.Sprintf("Here's another word to unscramble: %s\nHint: %s", r.Scrambled, r.Hint)
}

func secondHintText(r diversion.Round) string {
	return fmt.Sprintf("Not quite right. Here's another hint: The word starts with %q", r.FirstLetter())
}

func revealWordText(r diversion.Round) string {
	return "The correct word was: " + r.Word
}

func returnText(question string) string {
	return "Now, let's return to our exercise:\n\n" + question
}
