package content

import (
	"fmt"

	"kids_edu_backend/internal/quiz"
)

// 生成失败时的兜底内容，保证前端总能渲染

func FallbackLesson(req Request) *Lesson {
	return &Lesson{
		Title:        fmt.Sprintf("%s: %s", req.Subject, req.Topic),
		Introduction: fmt.Sprintf("Let's explore %s together!", req.Topic),
		MainContent: []Section{
			{
				Title:   "Getting started",
				Content: fmt.Sprintf("Today we are learning about %s in %s. Take your time and ask a grown-up if something is tricky.", req.Topic, req.Subject),
			},
			{
				Title:   "Try it yourself",
				Content: fmt.Sprintf("Think of one thing you already know about %s and tell someone about it.", req.Topic),
			},
		},
		Activities: []string{fmt.Sprintf("Draw a picture about %s.", req.Topic)},
		Summary:    "Great job! Come back later for a full lesson.",
		FunFacts:   []string{},
	}
}

var fallbackSubjects = []string{"Math", "Science", "Reading", "Art"}

func FallbackQuiz(req Request) *QuizContent {
	options := []string{req.Subject}
	for _, s := range fallbackSubjects {
		if len(options) == 4 {
			break
		}
		if s != req.Subject {
			options = append(options, s)
		}
	}

	return &QuizContent{
		Title: fmt.Sprintf("%s warm-up", req.Topic),
		Questions: []quiz.Question{
			{
				Question:      "Which subject are we practicing today?",
				QuestionType:  quiz.TypeMultipleChoice,
				Options:       options,
				CorrectAnswer: 0,
				Explanation:   fmt.Sprintf("This quiz is part of %s.", req.Subject),
			},
			{
				Question:      fmt.Sprintf("Is this quiz about %s?", req.Topic),
				QuestionType:  quiz.TypeTrueFalse,
				Options:       []string{"True", "False"},
				CorrectAnswer: 0,
				Explanation:   fmt.Sprintf("Yes! We are learning about %s.", req.Topic),
			},
		},
	}
}

func FallbackGame(req Request) *Game {
	return &Game{
		Title:        fmt.Sprintf("%s match-up", req.Topic),
		GameType:     "matching",
		Instructions: "Match each card with the right answer.",
		Items: []GameItem{
			{Prompt: "Subject", Answer: req.Subject},
			{Prompt: "Topic", Answer: req.Topic},
		},
	}
}
